package issue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryNames(t *testing.T) {
	// The string forms are a durable contract consumed by remediation
	// tools; a rename here breaks them.
	assert.Equal(t, "Path Length", CategoryPathLength.String())
	assert.Equal(t, "ID3 Tags", CategoryID3Tags.String())
	assert.Equal(t, "Unsupported Formats", CategoryUnsupportedFormat.String())
	assert.Equal(t, "Read Error", CategoryReadError.String())
	assert.Equal(t, "Invalid Characters", CategoryInvalidCharacters.String())
	assert.Equal(t, "Unknown", Category(99).String())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "ERROR", SeverityError.String())
	assert.Equal(t, "WARNING", SeverityWarning.String())
	assert.Equal(t, "INFO", SeverityInfo.String())
}

func TestCollectorSubmitAndCounts(t *testing.T) {
	c := NewCollector()

	c.Submit(Record{Path: "a.mp3", Category: CategoryBitrate, Severity: SeverityError})
	c.Submit(Record{Path: "b.mp3", Category: CategoryBitrate, Severity: SeverityError})
	c.Submit(Record{Path: "c.mp3", Category: CategoryID3Tags, Severity: SeverityWarning})

	counts := c.Counts()
	assert.Equal(t, int64(2), counts[CategoryBitrate])
	assert.Equal(t, int64(1), counts[CategoryID3Tags])
	assert.NotContains(t, counts, CategorySampleRate)

	assert.Equal(t, 2, c.Errors())
}

func TestFinalizeOrdering(t *testing.T) {
	c := NewCollector()

	// Submit deliberately out of order.
	c.Submit(Record{Path: "b/track.mp3", Category: CategoryBitrate})
	c.Submit(Record{Path: "a/track.mp3", Category: CategorySampleRate})
	c.Submit(Record{Path: "a/track.mp3", Category: CategoryBitrate})
	c.Submit(Record{Path: "a/track.mp3", Category: CategoryBitrate, Description: "z"})

	got := c.Finalize()
	require.Len(t, got, 4)

	assert.Equal(t, "a/track.mp3", got[0].Path)
	assert.Equal(t, CategoryBitrate, got[0].Category)
	assert.Equal(t, "", got[0].Description)
	assert.Equal(t, "z", got[1].Description)
	assert.Equal(t, CategorySampleRate, got[2].Category)
	assert.Equal(t, "b/track.mp3", got[3].Path)
}

func TestFinalizeIdempotent(t *testing.T) {
	c := NewCollector()
	c.Submit(Record{Path: "x", Category: CategoryReadError})

	first := c.Finalize()
	second := c.Finalize()
	assert.Equal(t, first, second)
}

// TestConcurrentMergeDeterminism verifies that merging per-worker
// buffers from many goroutines loses nothing and that the finalized
// order does not depend on worker interleaving.
func TestConcurrentMergeDeterminism(t *testing.T) {
	for _, workers := range []int{1, 4, 32} {
		t.Run(fmt.Sprintf("workers-%d", workers), func(t *testing.T) {
			c := NewCollector()

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					buf := NewBuffer()
					for i := 0; i < 100; i++ {
						// Same record set regardless of worker count.
						if i%workers != w%workers && workers > 1 {
							continue
						}
						buf.Add(Record{
							Path:     fmt.Sprintf("dir/%03d.mp3", i),
							Category: CategoryBitrate,
							Severity: SeverityError,
						})
					}
					c.Merge(buf)
				}(w)
			}
			wg.Wait()

			got := c.Finalize()
			require.Len(t, got, 100)
			for i, rec := range got {
				assert.Equal(t, fmt.Sprintf("dir/%03d.mp3", i), rec.Path)
			}
			assert.Equal(t, int64(100), c.Counts()[CategoryBitrate])
		})
	}
}

func TestMergeResetsBuffer(t *testing.T) {
	c := NewCollector()
	buf := NewBuffer()
	buf.Add(Record{Path: "a"})
	buf.Add(Record{Path: "b"})
	require.Equal(t, 2, buf.Len())

	c.Merge(buf)
	assert.Equal(t, 0, buf.Len())

	// Merging an empty buffer is a no-op.
	c.Merge(buf)
	assert.Len(t, c.Finalize(), 2)
}
