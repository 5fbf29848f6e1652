package report

import (
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes the named tables (all four when names is empty) as boxed
// terminal tables.
func Render(w io.Writer, r *Report, names ...string) error {
	tables := r.Tables()
	if len(names) > 0 {
		tables = tables[:0:0]
		for _, n := range names {
			t, ok := r.Table(n)
			if !ok {
				return fmt.Errorf("report: unknown table %q", n)
			}
			tables = append(tables, t)
		}
	}

	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		renderTable(w, t)
	}
	return nil
}

func renderTable(w io.Writer, t Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(fmt.Sprintf("%s (%d)", t.Name, len(t.Rows)))

	header := make(table.Row, len(t.Columns))
	configs := make([]table.ColumnConfig, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignRight}
		if i == 0 || (t.Name != TablePivot && i == 1 && c == "consequents") {
			configs[i].Align = text.AlignLeft
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, cells := range t.Rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Marshal encodes r compactly, for storage.
func Marshal(r *Report) ([]byte, error) {
	return gojson.Marshal(r)
}

// Unmarshal decodes a report written by Marshal or WriteJSON.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := gojson.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: decode: %w", err)
	}
	return &r, nil
}
