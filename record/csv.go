package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"ecframe-go/dataframe"
	"ecframe-go/value"
)

var (
	ErrCSVCell = func(row int, column string, cell string, err error) error {
		return fmt.Errorf("csv row %d, column %s: cannot read %q: %w", row, column, cell, err)
	}
)

// CSVOptions controls LoadCSV. Cells that are empty or equal NullToken load as Void.
type CSVOptions struct {
	NullToken string
}

// LoadCSV reads a header line and the rows below it into a new frame. Column types are
// inferred as the narrowest of boolean, long, double, date, date-time and string that fits
// every non-null cell; a column with no values becomes a string column.
func LoadCSV(source io.Reader, name string, opts CSVOptions) (*dataframe.DataFrame, error) {
	r := csv.NewReader(source)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	isNull := func(cell string) bool {
		cell = strings.TrimSpace(cell)
		return cell == "" || (opts.NullToken != "" && cell == opts.NullToken)
	}

	df := dataframe.New(name)
	columns := make([]dataframe.Column, len(header))
	for i, colName := range header {
		typ := value.TypeVoid
		for _, row := range rows {
			if isNull(row[i]) {
				continue
			}
			typ = widen(typ, parseDataType(row[i]))
		}
		if typ == value.TypeVoid {
			typ = value.TypeString
		}
		col, err := df.AddStoredColumn(strings.TrimSpace(colName), typ)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}

	for rowIdx, row := range rows {
		for i, cell := range row {
			if isNull(cell) {
				if err := columns[i].AddEmptyValue(); err != nil {
					return nil, err
				}
				continue
			}
			v, err := parseCell(cell, columns[i].Type())
			if err != nil {
				return nil, ErrCSVCell(rowIdx+1, columns[i].Name(), cell, err)
			}
			if err := columns[i].AddValue(v); err != nil {
				return nil, err
			}
		}
	}
	if err := df.Seal(); err != nil {
		return nil, err
	}
	return df, nil
}

func parseDataType(sample string) value.Type {
	sample = strings.TrimSpace(sample)

	// Boolean
	if sample == "true" || sample == "false" {
		return value.TypeBoolean
	}
	// Try int
	if _, err := strconv.ParseInt(sample, 10, 64); err == nil {
		return value.TypeLong
	}
	// Try float
	if _, err := strconv.ParseFloat(sample, 64); err == nil {
		return value.TypeDouble
	}
	if _, err := time.Parse(value.DateLayout, sample); err == nil {
		return value.TypeDate
	}
	if _, err := time.Parse(value.DateTimeLayout, sample); err == nil {
		return value.TypeDateTime
	}
	// Fallback to string
	return value.TypeString
}

// widen returns the narrowest type that holds values of both a and b.
func widen(a, b value.Type) value.Type {
	switch {
	case a == value.TypeVoid || a == b:
		return b
	case a.IsNumeric() && b.IsNumeric():
		return value.TypeDouble
	case (a == value.TypeDate && b == value.TypeDateTime) || (a == value.TypeDateTime && b == value.TypeDate):
		return value.TypeDateTime
	}
	return value.TypeString
}

func parseCell(cell string, typ value.Type) (value.Value, error) {
	trimmed := strings.TrimSpace(cell)
	switch typ {
	case value.TypeBoolean:
		b, err := strconv.ParseBool(trimmed)
		return value.NewBoolean(b), err
	case value.TypeLong:
		n, err := strconv.ParseInt(trimmed, 10, 64)
		return value.NewLong(n), err
	case value.TypeDouble:
		f, err := strconv.ParseFloat(trimmed, 64)
		return value.NewDouble(f), err
	case value.TypeDate:
		t, err := time.Parse(value.DateLayout, trimmed)
		return value.NewDate(t), err
	case value.TypeDateTime:
		if t, err := time.Parse(value.DateLayout, trimmed); err == nil {
			return value.NewDateTime(t), nil
		}
		t, err := time.Parse(value.DateTimeLayout, trimmed)
		return value.NewDateTime(t), err
	}
	return value.NewString(cell), nil
}
