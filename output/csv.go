package output

import (
	"bufio"
	"io"
	"strings"

	"ecframe-go/dataframe"
	"ecframe-go/value"
)

// WriteCSV renders df as CSV: a header of column names, then one line per row. Strings are
// always quoted, Void is left empty. limit > 0 stops after that many rows.
func WriteCSV(w io.Writer, df *dataframe.DataFrame, limit int) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(df.ColumnNames(), ",") + "\n"); err != nil {
		return err
	}
	rows := df.RowCount()
	if limit > 0 {
		rows = min(rows, limit)
	}
	cols := df.Columns()
	for row := 0; row < rows; row++ {
		for i, col := range cols {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			v, err := col.Value(row)
			if err != nil {
				return err
			}
			if _, err := bw.WriteString(csvCell(v)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// CSVString is WriteCSV into a string.
func CSVString(df *dataframe.DataFrame, limit int) (string, error) {
	var sb strings.Builder
	if err := WriteCSV(&sb, df, limit); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func csvCell(v value.Value) string {
	switch v.Type() {
	case value.TypeVoid:
		return ""
	case value.TypeString:
		return `"` + strings.ReplaceAll(v.Text(), `"`, `""`) + `"`
	default:
		return v.Format()
	}
}
