package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/scan"
)

// PrettyFormatter formats a report with colors and styling using
// lipgloss. It produces a visually appealing output suitable for
// terminal display.
type PrettyFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *scan.Report) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")
	w.WriteString(f.formatRecords(r))
	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")
	return nil
}

// formatHeader builds the header box with the volume profile and scan
// metadata.
func (f *PrettyFormatter) formatHeader(r *scan.Report) string {
	var lines []string

	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s %s", rootLabel, rootValue))

	volumeLabel := LabelStyle.Render("Volume:")
	volumeValue := ValueStyle.Render(f.describeVolume(r))
	lines = append(lines, fmt.Sprintf("%s %s", volumeLabel, volumeValue))

	scannedLabel := LabelStyle.Render("Scanned:")
	scannedValue := ValueStyle.Render(fmt.Sprintf("%d files, %s in %s",
		r.Stats.FilesScanned,
		humanize.IBytes(uint64(r.Stats.BytesScanned)),
		formatDuration(r.Stats.Duration)))
	lines = append(lines, fmt.Sprintf("%s %s", scannedLabel, scannedValue))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// describeVolume renders the profile line, noting unknowns rather
// than hiding them.
func (f *PrettyFormatter) describeVolume(r *scan.Report) string {
	parts := []string{r.Profile.Filesystem.String()}
	if r.Profile.PartitionScheme != 0 {
		parts = append(parts, r.Profile.PartitionScheme.String())
	}
	if r.Profile.ClusterSizeBytes > 0 {
		parts = append(parts, fmt.Sprintf("%s clusters",
			humanize.IBytes(uint64(r.Profile.ClusterSizeBytes))))
	}
	if r.Profile.Device != "" {
		parts = append(parts, r.Profile.Device)
	}
	return strings.Join(parts, ", ")
}

// formatRecords lists every issue, one line per record, errors styled
// red and warnings orange.
func (f *PrettyFormatter) formatRecords(r *scan.Report) string {
	if len(r.Records) == 0 {
		return MutedStyle.Render("  No issues found\n")
	}

	var sb strings.Builder
	for _, rec := range r.Records {
		severity := f.severityTag(rec.Severity)
		category := CategoryStyle.Render(rec.Category.String())
		path := PathStyle.Render(rec.Path)
		if rec.Path == "" {
			path = MutedStyle.Render("(volume)")
		}
		sb.WriteString(fmt.Sprintf("  %s %s  %s  %s\n",
			severity, category, path, MutedStyle.Render(rec.Description)))
	}
	return sb.String()
}

// severityTag renders a fixed-width severity marker.
func (f *PrettyFormatter) severityTag(s issue.Severity) string {
	switch s {
	case issue.SeverityError:
		return ErrorStyle.Render("ERROR  ")
	case issue.SeverityWarning:
		return WarningStyle.Render("WARNING")
	default:
		return MutedStyle.Render("INFO   ")
	}
}

// formatFooter builds the footer box with the verdict and counts.
func (f *PrettyFormatter) formatFooter(r *scan.Report) string {
	errors := r.Errors()
	warnings := r.Warnings()

	var verdict string
	switch {
	case errors > 0:
		verdict = ErrorStyle.Bold(true).Render(
			fmt.Sprintf("%d errors, %d warnings: the player will not accept this volume as-is", errors, warnings))
	case warnings > 0:
		verdict = WarningStyle.Render(
			fmt.Sprintf("%d warnings: playable, but expect rough edges", warnings))
	default:
		verdict = SuccessStyle.Render("Volume is compatible")
	}

	hint := MutedStyle.Render("Use -o csv for a machine-readable report")
	return FooterBox.Render(verdict + "  " + hint)
}

// formatDuration formats a time.Duration as a human-friendly string.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
