// Package walker enumerates every regular file under the scan root
// and checks the structural limits of the target player: total file
// count, folders in root, files per folder, nesting depth, path and
// filename length, and filename character validity.
//
// Traversal uses fastwalk for parallel directory reading; the
// resulting file list is sorted by path before it is returned so the
// rest of the scan sees a stable order.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/logging"
)

// FileNode is one discovered regular file. Nodes are created once
// during traversal and never mutated.
type FileNode struct {
	// Path is the file path relative to the scan root, using the
	// platform's native separator.
	Path string

	// Depth is the nesting level relative to the scan root; files
	// directly in the root have depth 0.
	Depth int

	// SizeBytes is the file size at traversal time.
	SizeBytes int64
}

// Result holds everything the traversal produced.
type Result struct {
	// Files is the discovered file list, sorted by Path. Files that
	// could not be stat'ed are excluded but still counted below.
	Files []FileNode

	// Records are the structural issues detected during traversal.
	Records []issue.Record

	// TotalFiles counts every discovered file, readable or not.
	TotalFiles int64

	// TotalDirs counts every directory below the root.
	TotalDirs int64

	// RootFolders counts immediate subdirectories of the root.
	RootFolders int64
}

// Walker traverses a directory tree and applies structural checks.
type Walker struct {
	limits config.Limits
	log    *logging.Logger
}

// New creates a walker with the given limits.
func New(limits config.Limits) *Walker {
	limits.Normalize()
	return &Walker{
		limits: limits,
		log:    logging.Get("walker"),
	}
}

// ErrNotDirectory is returned when the scan root is not a directory.
var ErrNotDirectory = errors.New("scan root is not a directory")

// Walk traverses the tree rooted at root. An unreadable or missing
// root is the only fatal error; everything below degrades to issue
// records.
func (w *Walker) Walk(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, absRoot)
	}

	st := &walkState{
		root:          absRoot,
		limits:        w.limits,
		dirFileCounts: make(map[string]int),
	}

	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() { close(done) })
	defer stop()

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, absRoot, st.callback(done))
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	result := st.finish()
	w.log.Info("traversal complete",
		"files", result.TotalFiles,
		"dirs", result.TotalDirs,
		"issues", len(result.Records))
	return result, nil
}

// walkState carries the shared mutable traversal state. fastwalk runs
// the callback from multiple goroutines, so slices and maps are
// mutex-guarded and plain counters are atomics.
type walkState struct {
	root   string
	limits config.Limits

	totalFiles  atomic.Int64
	totalDirs   atomic.Int64
	rootFolders atomic.Int64

	mu            sync.Mutex
	files         []FileNode
	records       []issue.Record
	dirFileCounts map[string]int
}

// callback returns the fastwalk visit function.
func (st *walkState) callback(done <-chan struct{}) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-done:
			return fastwalk.ErrSkipFiles
		default:
		}

		if err != nil {
			st.addRecord(issue.Record{
				Path:        st.rel(path),
				Category:    issue.CategoryReadError,
				Severity:    issue.SeverityWarning,
				Description: fmt.Sprintf("cannot read: %v", err),
			})
			return nil
		}

		if path == st.root {
			return nil
		}

		if d.IsDir() {
			st.handleDir(path)
			return nil
		}
		if d.Type().IsRegular() {
			st.handleFile(path, d)
		}
		return nil
	}
}

// handleDir counts a directory and notes root-level folders.
func (st *walkState) handleDir(path string) {
	st.totalDirs.Add(1)
	if filepath.Dir(path) == st.root {
		st.rootFolders.Add(1)
	}
}

// handleFile stats one regular file, records its node, and applies
// the per-file structural checks.
func (st *walkState) handleFile(path string, d fs.DirEntry) {
	st.totalFiles.Add(1)
	relPath := st.rel(path)

	info, err := d.Info()
	if err != nil {
		// Unreadable files still count toward the total but are
		// excluded from the file list.
		st.addRecord(issue.Record{
			Path:        relPath,
			Category:    issue.CategoryReadError,
			Severity:    issue.SeverityWarning,
			Description: fmt.Sprintf("cannot stat: %v", err),
		})
		return
	}

	depth := strings.Count(relPath, string(filepath.Separator))
	node := FileNode{
		Path:      relPath,
		Depth:     depth,
		SizeBytes: info.Size(),
	}

	records := st.checkFile(node)

	parent := ""
	if dir := filepath.Dir(relPath); dir != "." {
		parent = dir
	}

	st.mu.Lock()
	st.files = append(st.files, node)
	st.records = append(st.records, records...)
	st.dirFileCounts[parent]++
	st.mu.Unlock()
}

// checkFile applies the per-file limits and returns any violations.
func (st *walkState) checkFile(node FileNode) []issue.Record {
	var records []issue.Record

	if node.Depth > st.limits.MaxNestingDepth {
		records = append(records, issue.Record{
			Path:     node.Path,
			Category: issue.CategoryNestingDepth,
			Severity: issue.SeverityError,
			Description: fmt.Sprintf("nested %d levels deep, player reads at most %d",
				node.Depth, st.limits.MaxNestingDepth),
		})
	}

	// The player counts characters, not bytes, when resolving paths.
	if n := utf8.RuneCountInString(node.Path); n > st.limits.MaxPathLength {
		records = append(records, issue.Record{
			Path:     node.Path,
			Category: issue.CategoryPathLength,
			Severity: issue.SeverityError,
			Description: fmt.Sprintf("path is %d characters, player resolves at most %d",
				n, st.limits.MaxPathLength),
		})
	}

	name := filepath.Base(node.Path)
	if n := utf8.RuneCountInString(name); n > st.limits.MaxFilenameLength {
		records = append(records, issue.Record{
			Path:     node.Path,
			Category: issue.CategoryFilenameLength,
			Severity: issue.SeverityWarning,
			Description: fmt.Sprintf("filename is %d characters, keep under %d",
				n, st.limits.MaxFilenameLength),
		})
	}

	if bad := invalidChars(name); len(bad) > 0 {
		records = append(records, issue.Record{
			Path:        node.Path,
			Category:    issue.CategoryInvalidCharacters,
			Severity:    issue.SeverityWarning,
			Description: fmt.Sprintf("filename contains characters the player cannot display: %s", bad),
		})
	}

	return records
}

// finish derives the aggregate records and produces the sorted result.
func (st *walkState) finish() *Result {
	result := &Result{
		Files:       st.files,
		Records:     st.records,
		TotalFiles:  st.totalFiles.Load(),
		TotalDirs:   st.totalDirs.Load(),
		RootFolders: st.rootFolders.Load(),
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})

	if result.TotalFiles > int64(st.limits.MaxTotalFiles) {
		result.Records = append(result.Records, issue.Record{
			Category: issue.CategoryTotalFiles,
			Severity: issue.SeverityError,
			Description: fmt.Sprintf("%d files on volume, player indexes at most %d",
				result.TotalFiles, st.limits.MaxTotalFiles),
		})
	}

	if result.RootFolders > int64(st.limits.MaxRootFolders) {
		result.Records = append(result.Records, issue.Record{
			Category: issue.CategoryRootFolders,
			Severity: issue.SeverityError,
			Description: fmt.Sprintf("%d folders in root, player reads at most %d",
				result.RootFolders, st.limits.MaxRootFolders),
		})
	}

	for dir, count := range st.dirFileCounts {
		if count > st.limits.MaxFilesPerFolder {
			result.Records = append(result.Records, issue.Record{
				Path:     dir,
				Category: issue.CategoryFilesPerFolder,
				Severity: issue.SeverityError,
				Description: fmt.Sprintf("folder holds %d files, player reads at most %d",
					count, st.limits.MaxFilesPerFolder),
			})
		}
	}

	return result
}

// rel converts an absolute walk path to a root-relative one.
func (st *walkState) rel(path string) string {
	rel, err := filepath.Rel(st.root, path)
	if err != nil {
		return path
	}
	return rel
}

// addRecord appends a record under the lock.
func (st *walkState) addRecord(rec issue.Record) {
	st.mu.Lock()
	st.records = append(st.records, rec)
	st.mu.Unlock()
}

// allowedPunct is the punctuation the player's firmware is known to
// display; everything else in a filename renders as garbage or breaks
// indexing.
const allowedPunct = " !#$%&'()+,-.;=@[]^_`{}~"

// invalidChars returns the distinct disallowed characters in name, in
// order of first appearance.
func invalidChars(name string) string {
	var bad []rune
	seen := make(map[rune]bool)
	for _, r := range name {
		if isAllowed(r) || seen[r] {
			continue
		}
		seen[r] = true
		bad = append(bad, r)
	}
	return string(bad)
}

// isAllowed reports whether the player can handle the character in a
// filename. The allow-list is ASCII only.
func isAllowed(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	default:
		return strings.ContainsRune(allowedPunct, r)
	}
}
