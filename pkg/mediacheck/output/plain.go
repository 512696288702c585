package output

import (
	"bytes"
	"text/tabwriter"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/scan"
)

// PlainFormatter formats a report as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted report to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *scan.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("SEVERITY\tTYPE\tPATH\tDESCRIPTION\n")); err != nil {
		return err
	}

	for _, rec := range r.Records {
		line := rec.Severity.String() + "\t" +
			rec.Category.String() + "\t" +
			rec.Path + "\t" +
			rec.Description + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
