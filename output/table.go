package output

import (
	"fmt"
	"io"

	"ecframe-go/dataframe"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var tableStyles = map[string]table.Style{
	"default": table.StyleDefault,
	"light":   table.StyleLight,
	"rounded": table.StyleRounded,
	"bold":    table.StyleBold,
	"double":  table.StyleDouble,
}

// RenderTable writes df as a boxed text table. limit > 0 shows only that many rows and adds
// a footer with the number of rows left out.
func RenderTable(w io.Writer, df *dataframe.DataFrame, style string, limit int) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	s, ok := tableStyles[style]
	if !ok {
		s = table.StyleDefault
	}
	t.SetStyle(s)
	t.SetAutoIndex(false)
	t.Style().Options.SeparateRows = false
	// keep column names as written
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, df.ColumnCount())
	for i, name := range df.ColumnNames() {
		header[i] = name
	}
	t.AppendHeader(header)

	rows := df.RowCount()
	if limit > 0 {
		rows = min(rows, limit)
	}
	for row := 0; row < rows; row++ {
		values, err := df.Row(row)
		if err != nil {
			return err
		}
		tableRow := make(table.Row, len(values))
		for i, v := range values {
			if v.IsVoid() {
				tableRow[i] = "NULL"
				continue
			}
			tableRow[i] = v.Format()
		}
		t.AppendRow(tableRow)
	}
	if hidden := df.RowCount() - rows; hidden > 0 {
		t.AppendFooter(table.Row{fmt.Sprintf("... %d more rows", hidden)})
	}
	t.Render()
	return nil
}
