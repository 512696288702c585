package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/scan"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/volume"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Records []jsonRecord `json:"records"`
	Profile jsonProfile  `json:"profile"`
	Stats   jsonStats    `json:"stats"`
	Meta    jsonMeta     `json:"meta"`
}

// jsonRecord represents one issue in JSON output.
type jsonRecord struct {
	Path        string `json:"file_path"`
	Type        string `json:"issue_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// jsonProfile represents the volume profile in JSON output.
type jsonProfile struct {
	Filesystem      string `json:"filesystem"`
	PartitionScheme string `json:"partition_scheme"`
	ClusterSize     int64  `json:"cluster_size_bytes,omitempty"`
	Device          string `json:"device,omitempty"`
	MountPoint      string `json:"mount_point,omitempty"`
}

// jsonStats represents scan statistics in JSON output.
type jsonStats struct {
	FilesScanned int64  `json:"files_scanned"`
	DirsScanned  int64  `json:"dirs_scanned"`
	BytesScanned int64  `json:"bytes_scanned"`
	Duration     string `json:"duration"`
	Workers      int    `json:"workers"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	RunID    string    `json:"run_id"`
	Root     string    `json:"root"`
	Started  time.Time `json:"started"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
}

// JSONFormatter formats a report as a single indented JSON object.
// It produces a complete JSON document with records, profile, stats,
// and meta sections.
type JSONFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *scan.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.buildOutput(r))
}

// buildOutput converts a Report to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *scan.Report) jsonOutput {
	records := make([]jsonRecord, len(r.Records))
	for i, rec := range r.Records {
		records[i] = buildRecord(rec)
	}

	return jsonOutput{
		Records: records,
		Profile: buildProfile(r.Profile),
		Stats: jsonStats{
			FilesScanned: r.Stats.FilesScanned,
			DirsScanned:  r.Stats.DirsScanned,
			BytesScanned: r.Stats.BytesScanned,
			Duration:     r.Stats.Duration.String(),
			Workers:      r.Stats.Workers,
		},
		Meta: jsonMeta{
			RunID:    r.RunID,
			Root:     r.Root,
			Started:  r.Started,
			Errors:   r.Errors(),
			Warnings: r.Warnings(),
		},
	}
}

func buildRecord(rec issue.Record) jsonRecord {
	return jsonRecord{
		Path:        rec.Path,
		Type:        rec.Category.String(),
		Severity:    rec.Severity.String(),
		Description: rec.Description,
	}
}

func buildProfile(p volume.Profile) jsonProfile {
	return jsonProfile{
		Filesystem:      p.Filesystem.String(),
		PartitionScheme: p.PartitionScheme.String(),
		ClusterSize:     p.ClusterSizeBytes,
		Device:          p.Device,
		MountPoint:      p.MountPoint,
	}
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats a report as newline-delimited JSON, one
// record per line. This format is suitable for streaming processing
// with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *scan.Report) error {
	for _, rec := range r.Records {
		data, err := json.Marshal(buildRecord(rec))
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
