package report

import (
	"encoding/csv"
	"io"

	"github.com/tidwall/gjson"
)

// Cell is one dimension or metric value of a row.
type Cell struct {
	Name  string
	Value string
}

// Row holds dimension cells followed by metric cells, in response order.
type Row []Cell

type Report struct {
	Rows []Row
	// MatchingRowCount comes from the stream footer, zero when absent.
	MatchingRowCount int64
	Warnings         []string
}

// Parse reads a generate response. Network and mediation reports stream a
// JSON array of header, row and footer objects; campaign reports return an
// object with a rows array.
func Parse(resp gjson.Result) *Report {
	r := &Report{}

	if !resp.IsArray() {
		for _, row := range resp.Get("rows").Array() {
			r.Rows = append(r.Rows, parseRow(row))
		}
		return r
	}

	for _, item := range resp.Array() {
		switch {
		case item.Get("row").Exists():
			r.Rows = append(r.Rows, parseRow(item.Get("row")))
		case item.Get("footer").Exists():
			r.MatchingRowCount = item.Get("footer.matchingRowCount").Int()
			for _, w := range item.Get("footer.warnings").Array() {
				r.Warnings = append(r.Warnings, w.Get("description").String())
			}
		case item.Get("header").Exists():
			for _, w := range item.Get("header.warnings").Array() {
				r.Warnings = append(r.Warnings, w.Get("description").String())
			}
		}
	}

	return r
}

func parseRow(row gjson.Result) Row {
	var cells Row
	for _, field := range []string{"dimensionValues", "metricValues"} {
		row.Get(field).ForEach(func(name, value gjson.Result) bool {
			cells = append(cells, Cell{Name: name.String(), Value: firstValue(value)})
			return true
		})
	}

	return cells
}

// firstValue returns the first member of a value object such as
// {"value": "US", "displayLabel": "United States"} or {"integerValue": "42"}.
func firstValue(v gjson.Result) string {
	if !v.IsObject() {
		return v.String()
	}

	var s string
	v.ForEach(func(_, value gjson.Result) bool {
		s = value.String()
		return false
	})

	return s
}

// Header returns the column names of the first row.
func (r *Report) Header() []string {
	if len(r.Rows) == 0 {
		return nil
	}

	header := make([]string, 0, len(r.Rows[0]))
	for _, c := range r.Rows[0] {
		header = append(header, c.Name)
	}

	return header
}

// WriteCSV writes a header line followed by one line per row. Nothing is
// written for an empty report.
func (r *Report) WriteCSV(w io.Writer) error {
	if len(r.Rows) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header()); err != nil {
		return err
	}

	for _, row := range r.Rows {
		record := make([]string, 0, len(row))
		for _, c := range row {
			record = append(record, c.Value)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
