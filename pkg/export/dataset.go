package export

import "errors"

var errNoHeaders = errors.New("dataset has no headers")

// Dataset is tabular export content. Rows are keyed by header name so every
// renderer emits columns in header order without caring where the data came
// from.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return errNoHeaders
	}
	return nil
}

// record projects one row into header order. Missing keys render empty,
// which is what the totals row relies on for non-summable columns.
func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}
