package issue

import (
	"sort"
	"sync"
	"sync/atomic"
)

// countSlots is the number of per-category counter slots.
// Categories are dense small integers, so a fixed array works.
const countSlots = int(CategoryReadError) + 1

// Collector accumulates issue records from any number of concurrent
// workers. Workers submit through per-worker buffers merged at a single
// synchronization point, so the hot path takes no global lock.
//
// Finalize produces the deterministic report ordering: records sorted
// by (path, category), with description as the final tie-break so that
// repeated runs over an unchanged tree are byte-identical.
type Collector struct {
	mu      sync.Mutex
	records []Record

	// counts holds one atomic tally per category, readable at any
	// time for live progress reporting.
	counts [countSlots]atomic.Int64

	finalizeOnce sync.Once
	finalized    []Record
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{records: make([]Record, 0, 64)}
}

// Submit appends a single record. Safe for concurrent use; the worker
// pool should prefer per-worker Buffers to avoid lock contention.
func (c *Collector) Submit(rec Record) {
	c.mu.Lock()
	c.records = append(c.records, rec)
	c.mu.Unlock()
	c.count(rec.Category)
}

// SubmitAll appends a batch of records under one lock acquisition.
func (c *Collector) SubmitAll(recs []Record) {
	if len(recs) == 0 {
		return
	}
	c.mu.Lock()
	c.records = append(c.records, recs...)
	c.mu.Unlock()
	for _, rec := range recs {
		c.count(rec.Category)
	}
}

// count bumps the running tally for a category.
func (c *Collector) count(cat Category) {
	if i := int(cat); i >= 0 && i < countSlots {
		c.counts[i].Add(1)
	}
}

// Counts returns a snapshot of the per-category tallies. It is safe to
// call at any time, including while workers are still submitting.
func (c *Collector) Counts() map[Category]int64 {
	snapshot := make(map[Category]int64)
	for i := range c.counts {
		if n := c.counts[i].Load(); n > 0 {
			snapshot[Category(i)] = n
		}
	}
	return snapshot
}

// Errors reports how many Error-severity records have been collected.
func (c *Collector) Errors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, rec := range c.records {
		if rec.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Finalize sorts all collected records into the deterministic report
// order and returns them. Call it once, after all submissions are known
// complete; repeated calls return the same slice.
func (c *Collector) Finalize() []Record {
	c.finalizeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		sort.SliceStable(c.records, func(i, j int) bool {
			a, b := c.records[i], c.records[j]
			if a.Path != b.Path {
				return a.Path < b.Path
			}
			if a.Category != b.Category {
				return a.Category < b.Category
			}
			return a.Description < b.Description
		})
		c.finalized = c.records
	})
	return c.finalized
}

// Buffer is a per-worker accumulation buffer. Workers add records
// locally without synchronization and merge once when done.
type Buffer struct {
	records []Record
}

// NewBuffer creates an empty per-worker buffer.
func NewBuffer() *Buffer {
	return &Buffer{records: make([]Record, 0, 16)}
}

// Add appends a record to the buffer. Not safe for concurrent use;
// each worker owns its buffer.
func (b *Buffer) Add(rec Record) {
	b.records = append(b.records, rec)
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	return len(b.records)
}

// Merge drains a worker buffer into the collector. The buffer is empty
// afterwards and may be reused.
func (c *Collector) Merge(b *Buffer) {
	c.SubmitAll(b.records)
	b.records = b.records[:0]
}
