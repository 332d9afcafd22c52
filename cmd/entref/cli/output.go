package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"entref/internal/record"
)

// printer handles table or JSON output.
type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string) *printer {
	return &printer{format: format, w: os.Stdout}
}

// json marshals v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

// result prints a lookup result: JSON when requested, otherwise one line per
// value (a scalar result prints as a single line).
func (p *printer) result(v any) error {
	if p.format == "json" {
		return p.json(v)
	}
	values, ok := v.([]record.Scalar)
	if !ok {
		_, err := fmt.Fprintln(p.w, record.CanonicalString(v))
		return err
	}
	for _, val := range values {
		if _, err := fmt.Fprintln(p.w, record.CanonicalString(val)); err != nil {
			return err
		}
	}
	return nil
}
