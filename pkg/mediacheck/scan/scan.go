// Package scan orchestrates a full volume verification: volume
// profile checks, structural traversal, then parallel per-file audio
// analysis, all feeding one issue collector.
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/audio"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/logging"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/volume"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/walker"
)

// Stats summarizes one scan run.
type Stats struct {
	Duration     time.Duration `json:"duration"`
	FilesScanned int64         `json:"files_scanned"`
	DirsScanned  int64         `json:"dirs_scanned"`
	BytesScanned int64         `json:"bytes_scanned"`
	Workers      int           `json:"workers"`
}

// Report is the complete result of one scan run.
type Report struct {
	RunID   string    `json:"run_id"`
	Root    string    `json:"root"`
	Started time.Time `json:"started"`

	Profile volume.Profile `json:"profile"`

	// Records are all issues found, sorted by path then category.
	Records []issue.Record `json:"records"`

	Counts map[issue.Category]int64 `json:"counts"`
	Stats  Stats                    `json:"stats"`
}

// Errors counts the error-severity records.
func (r *Report) Errors() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Severity == issue.SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts the warning-severity records.
func (r *Report) Warnings() int {
	n := 0
	for _, rec := range r.Records {
		if rec.Severity == issue.SeverityWarning {
			n++
		}
	}
	return n
}

// volumeInspector profiles the volume a path lives on.
type volumeInspector interface {
	Inspect(ctx context.Context, mountPath string) volume.Profile
}

// Coordinator runs scans. It is safe for sequential reuse; a single
// Run may not be shared across goroutines.
type Coordinator struct {
	limits    config.Limits
	workers   int
	inspector volumeInspector
	walker    *walker.Walker
	probe     *audio.Probe
	log       *logging.Logger
}

// New creates a coordinator. workers <= 0 selects a default sized for
// mixed stat/read workloads.
func New(limits config.Limits, workers int) *Coordinator {
	limits.Normalize()
	return &Coordinator{
		limits:    limits,
		workers:   workers,
		inspector: volume.NewInspector(),
		walker:    walker.New(limits),
		probe:     audio.NewProbe(limits),
		log:       logging.Get("scan"),
	}
}

// Run scans the tree rooted at root. mountPath selects the volume to
// profile; empty means the volume containing root. The returned
// report is complete unless the context is canceled or the root
// itself cannot be read.
func (c *Coordinator) Run(ctx context.Context, root, mountPath string) (*Report, error) {
	started := time.Now()
	runID := uuid.NewString()
	if mountPath == "" {
		mountPath = root
	}

	c.log.Info("scan starting", "run_id", runID, "root", root)

	collector := issue.NewCollector()

	profile := c.inspector.Inspect(ctx, mountPath)
	collector.SubmitAll(volume.Check(profile, c.limits))

	res, err := c.walker.Walk(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("traversal failed: %w", err)
	}
	collector.SubmitAll(res.Records)

	// The walker degrades cancellation to a truncated result; the
	// scan as a whole must not.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workers := c.workers
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}

	var bytesScanned atomic.Int64
	jobs := make(chan walker.FileNode)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, node := range res.Files {
			select {
			case jobs <- node:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			buf := issue.NewBuffer()
			for node := range jobs {
				c.analyzeOne(root, node, buf)
				bytesScanned.Add(node.SizeBytes)
			}
			collector.Merge(buf)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   runID,
		Root:    root,
		Started: started,
		Profile: profile,
		Records: collector.Finalize(),
		Counts:  collector.Counts(),
		Stats: Stats{
			Duration:     time.Since(started),
			FilesScanned: res.TotalFiles,
			DirsScanned:  res.TotalDirs,
			BytesScanned: bytesScanned.Load(),
			Workers:      workers,
		},
	}

	c.log.Info("scan complete",
		"run_id", runID,
		"files", report.Stats.FilesScanned,
		"issues", len(report.Records),
		"errors", report.Errors(),
		"duration", report.Stats.Duration)
	return report, nil
}

// analyzeOne probes a single file. A panic inside the binary parsers
// must not take down the scan, so it degrades to a read error record.
func (c *Coordinator) analyzeOne(root string, node walker.FileNode, buf *issue.Buffer) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("analysis panic", "path", node.Path, "panic", r)
			buf.Add(issue.Record{
				Path:        node.Path,
				Category:    issue.CategoryReadError,
				Severity:    issue.SeverityWarning,
				Description: fmt.Sprintf("analysis aborted: %v", r),
			})
		}
	}()

	a := c.probe.Analyze(filepath.Join(root, node.Path))
	for _, rec := range c.probe.Check(node.Path, a) {
		buf.Add(rec)
	}
}
