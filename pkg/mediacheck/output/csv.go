package output

import (
	"bytes"
	"encoding/csv"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/scan"
)

// csvHeader is the fixed column set of the CSV report. Downstream
// consumers key on these names; do not reorder or rename.
var csvHeader = []string{"file_path", "issue_type", "severity", "description"}

// CSVFormatter formats a report as RFC 4180 CSV. Only error and
// warning records are emitted; info records are advisory and stay out
// of the machine-readable report.
type CSVFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *scan.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, rec := range r.Records {
		if rec.Severity == issue.SeverityInfo {
			continue
		}
		row := []string{
			rec.Path,
			rec.Category.String(),
			rec.Severity.String(),
			rec.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)
