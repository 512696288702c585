package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
)

// writeFile creates an empty file, creating parent directories as needed.
func writeFile(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

// recordsFor filters records by path and category.
func recordsFor(records []issue.Record, path string, cat issue.Category) []issue.Record {
	var out []issue.Record
	for _, rec := range records {
		if rec.Path == path && rec.Category == cat {
			out = append(out, rec)
		}
	}
	return out
}

func TestWalkBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "track.mp3")
	writeFile(t, root, filepath.Join("Album", "01.mp3"))
	writeFile(t, root, filepath.Join("Album", "02.mp3"))

	w := New(config.DefaultLimits())
	result, err := w.Walk(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, result.Files, 3)
	// Sorted by path.
	assert.Equal(t, filepath.Join("Album", "01.mp3"), result.Files[0].Path)
	assert.Equal(t, filepath.Join("Album", "02.mp3"), result.Files[1].Path)
	assert.Equal(t, "track.mp3", result.Files[2].Path)

	assert.Equal(t, 0, result.Files[2].Depth)
	assert.Equal(t, 1, result.Files[0].Depth)

	assert.Equal(t, int64(3), result.TotalFiles)
	assert.Equal(t, int64(1), result.TotalDirs)
	assert.Equal(t, int64(1), result.RootFolders)
	assert.Empty(t, result.Records)
}

func TestWalkRootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.mp3")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	w := New(config.DefaultLimits())

	_, err := w.Walk(context.Background(), file)
	assert.ErrorIs(t, err, ErrNotDirectory)

	_, err = w.Walk(context.Background(), filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestPathLengthBoundary(t *testing.T) {
	root := t.TempDir()
	// Relative path length is exactly the filename length for
	// root-level files.
	at := strings.Repeat("a", 56) + ".mp3" // 60 chars: allowed
	over := strings.Repeat("b", 57) + ".mp3" // 61 chars: too long
	writeFile(t, root, at)
	writeFile(t, root, over)

	w := New(config.DefaultLimits())
	result, err := w.Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, recordsFor(result.Records, at, issue.CategoryPathLength))

	recs := recordsFor(result.Records, over, issue.CategoryPathLength)
	require.Len(t, recs, 1)
	assert.Equal(t, issue.SeverityError, recs[0].Severity)
	assert.Contains(t, recs[0].Description, "61")
}

func TestLengthCountsCharactersNotBytes(t *testing.T) {
	root := t.TempDir()
	// 56 characters but 108 bytes of UTF-8; within both limits.
	name := strings.Repeat("é", 52) + ".mp3"
	writeFile(t, root, name)

	result, err := New(config.DefaultLimits()).Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, recordsFor(result.Records, name, issue.CategoryPathLength))
	assert.Empty(t, recordsFor(result.Records, name, issue.CategoryFilenameLength))

	// 61 characters is over the path limit; the reported count is in
	// characters too.
	long := strings.Repeat("é", 57) + ".mp3"
	writeFile(t, root, long)

	result, err = New(config.DefaultLimits()).Walk(context.Background(), root)
	require.NoError(t, err)

	recs := recordsFor(result.Records, long, issue.CategoryPathLength)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Description, "61")
}

func TestFilenameLengthBoundary(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxPathLength = 200 // keep path length out of the way

	root := t.TempDir()
	at := strings.Repeat("a", 60) + ".mp3" // 64 chars
	over := strings.Repeat("b", 61) + ".mp3" // 65 chars
	writeFile(t, root, at)
	writeFile(t, root, over)

	result, err := New(limits).Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, recordsFor(result.Records, at, issue.CategoryFilenameLength))

	recs := recordsFor(result.Records, over, issue.CategoryFilenameLength)
	require.Len(t, recs, 1)
	assert.Equal(t, issue.SeverityWarning, recs[0].Severity)
	assert.Contains(t, recs[0].Description, "65")
}

func TestFilesPerFolderBoundary(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxFilesPerFolder = 5

	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, root, filepath.Join("ok", fmt.Sprintf("%03d.mp3", i)))
	}
	for i := 0; i < 6; i++ {
		writeFile(t, root, filepath.Join("full", fmt.Sprintf("%03d.mp3", i)))
	}

	result, err := New(limits).Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, recordsFor(result.Records, "ok", issue.CategoryFilesPerFolder))

	recs := recordsFor(result.Records, "full", issue.CategoryFilesPerFolder)
	require.Len(t, recs, 1)
	assert.Equal(t, issue.SeverityError, recs[0].Severity)
	assert.Contains(t, recs[0].Description, "6")
}

func TestNestingDepthBoundary(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxNestingDepth = 2
	limits.MaxPathLength = 200

	root := t.TempDir()
	writeFile(t, root, filepath.Join("a", "b", "ok.mp3"))        // depth 2
	writeFile(t, root, filepath.Join("a", "b", "c", "deep.mp3")) // depth 3

	result, err := New(limits).Walk(context.Background(), root)
	require.NoError(t, err)

	okPath := filepath.Join("a", "b", "ok.mp3")
	deepPath := filepath.Join("a", "b", "c", "deep.mp3")

	assert.Empty(t, recordsFor(result.Records, okPath, issue.CategoryNestingDepth))

	recs := recordsFor(result.Records, deepPath, issue.CategoryNestingDepth)
	require.Len(t, recs, 1)
	assert.Equal(t, issue.SeverityError, recs[0].Severity)
}

func TestTotalFilesAndRootFolders(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxTotalFiles = 3
	limits.MaxRootFolders = 1

	root := t.TempDir()
	writeFile(t, root, filepath.Join("one", "a.mp3"))
	writeFile(t, root, filepath.Join("two", "b.mp3"))
	writeFile(t, root, filepath.Join("two", "c.mp3"))
	writeFile(t, root, "d.mp3")

	result, err := New(limits).Walk(context.Background(), root)
	require.NoError(t, err)

	total := recordsFor(result.Records, "", issue.CategoryTotalFiles)
	require.Len(t, total, 1)
	assert.Equal(t, issue.SeverityError, total[0].Severity)
	assert.Contains(t, total[0].Description, "4")

	folders := recordsFor(result.Records, "", issue.CategoryRootFolders)
	require.Len(t, folders, 1)
	assert.Contains(t, folders[0].Description, "2")
}

func TestInvalidCharacters(t *testing.T) {
	assert.Empty(t, invalidChars("Track 01 - Name (live).mp3"))
	assert.Empty(t, invalidChars("100% legal & fine!.mp3"))

	// One record per file, each offending character listed once.
	assert.Equal(t, "é", invalidChars("café été.mp3"))
	assert.Equal(t, "\"?", invalidChars("a\"b?c\".mp3"))
}

func TestInvalidCharactersRecord(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "caféé.mp3")

	result, err := New(config.DefaultLimits()).Walk(context.Background(), root)
	require.NoError(t, err)

	recs := recordsFor(result.Records, "caféé.mp3", issue.CategoryInvalidCharacters)
	require.Len(t, recs, 1)
	assert.Equal(t, issue.SeverityWarning, recs[0].Severity)
	assert.Contains(t, recs[0].Description, "é")
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, root, filepath.Join(fmt.Sprintf("d%02d", i%5), fmt.Sprintf("f%02d.mp3", i)))
	}

	w := New(config.DefaultLimits())

	first, err := w.Walk(context.Background(), root)
	require.NoError(t, err)
	second, err := w.Walk(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first.Files, second.Files)
}
