package record

import (
	"fmt"
	"time"

	"ecframe-go/dataframe"
	"ecframe-go/value"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

var (
	ErrUnsupportedArrowType = func(field arrow.Field) error {
		return fmt.Errorf("column %s has unsupported Arrow type %s", field.Name, field.Type)
	}
	ErrSchemaMismatch = func(info string) error {
		return fmt.Errorf("record does not match the data frame schema: %s", info)
	}
)

// ArrowType maps a column type to the Arrow type used to carry it.
func ArrowType(typ value.Type) (arrow.DataType, error) {
	switch typ {
	case value.TypeLong:
		return arrow.PrimitiveTypes.Int64, nil
	case value.TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case value.TypeString:
		return arrow.BinaryTypes.String, nil
	case value.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case value.TypeDate:
		return arrow.FixedWidthTypes.Date32, nil
	case value.TypeDateTime:
		return arrow.FixedWidthTypes.Timestamp_s, nil
	}
	return nil, fmt.Errorf("no Arrow type for %s", typ)
}

// ValueType is the inverse of ArrowType. Narrower integer and float types widen.
func ValueType(field arrow.Field) (value.Type, error) {
	switch field.Type.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return value.TypeLong, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return value.TypeDouble, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return value.TypeString, nil
	case arrow.BOOL:
		return value.TypeBoolean, nil
	case arrow.DATE32, arrow.DATE64:
		return value.TypeDate, nil
	case arrow.TIMESTAMP:
		return value.TypeDateTime, nil
	}
	return value.TypeVoid, ErrUnsupportedArrowType(field)
}

func Schema(df *dataframe.DataFrame) (*arrow.Schema, error) {
	fields := make([]arrow.Field, df.ColumnCount())
	for i, col := range df.Columns() {
		dt, err := ArrowType(col.Type())
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: col.Name(), Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToRecord copies every column of df, computed ones included, into a new record. The
// caller owns the record and must Release it.
func ToRecord(df *dataframe.DataFrame, mem memory.Allocator) (arrow.Record, error) {
	schema, err := Schema(df)
	if err != nil {
		return nil, err
	}
	columns := make([]arrow.Array, 0, df.ColumnCount())
	release := func() {
		for _, c := range columns {
			c.Release()
		}
	}
	for i, col := range df.Columns() {
		arr, err := buildArray(col, schema.Field(i).Type, mem)
		if err != nil {
			release()
			return nil, err
		}
		columns = append(columns, arr)
	}
	rec := array.NewRecord(schema, columns, int64(df.RowCount()))
	// the record holds its own references
	release()
	return rec, nil
}

func buildArray(col dataframe.Column, dt arrow.DataType, mem memory.Allocator) (arrow.Array, error) {
	builder := array.NewBuilder(mem, dt)
	defer builder.Release()
	builder.Reserve(col.Size())
	for row := 0; row < col.Size(); row++ {
		v, err := col.Value(row)
		if err != nil {
			return nil, err
		}
		if v.IsVoid() {
			builder.AppendNull()
			continue
		}
		switch b := builder.(type) {
		case *array.Int64Builder:
			b.Append(v.Long())
		case *array.Float64Builder:
			b.Append(v.Double())
		case *array.StringBuilder:
			b.Append(v.Text())
		case *array.BooleanBuilder:
			b.Append(v.Bool())
		case *array.Date32Builder:
			b.Append(arrow.Date32FromTime(v.Time()))
		case *array.TimestampBuilder:
			b.Append(arrow.Timestamp(v.Time().Unix()))
		default:
			return nil, fmt.Errorf("unsupported Arrow builder %T for column %s", builder, col.Name())
		}
	}
	return builder.NewArray(), nil
}

// FromRecord builds a new frame holding the rows of rec.
func FromRecord(name string, rec arrow.Record) (*dataframe.DataFrame, error) {
	df, err := NewFrame(name, rec.Schema())
	if err != nil {
		return nil, err
	}
	if err := AppendRecord(df, rec); err != nil {
		return nil, err
	}
	return df, nil
}

// NewFrame creates an empty frame with one stored column per field of schema.
func NewFrame(name string, schema *arrow.Schema) (*dataframe.DataFrame, error) {
	df := dataframe.New(name)
	for _, field := range schema.Fields() {
		typ, err := ValueType(field)
		if err != nil {
			return nil, err
		}
		if _, err := df.AddStoredColumn(field.Name, typ); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// AppendRecord appends the rows of rec to the stored columns of df, matched by position.
func AppendRecord(df *dataframe.DataFrame, rec arrow.Record) error {
	if int(rec.NumCols()) != df.ColumnCount() {
		return ErrSchemaMismatch(fmt.Sprintf("%d fields for %d columns", rec.NumCols(), df.ColumnCount()))
	}
	for i, col := range df.Columns() {
		field := rec.Schema().Field(i)
		if field.Name != col.Name() || !col.IsStored() {
			return ErrSchemaMismatch(fmt.Sprintf("field %s does not map to stored column %s", field.Name, col.Name()))
		}
		arr := rec.Column(i)
		for row := 0; row < arr.Len(); row++ {
			v, err := arrowValue(arr, row)
			if err != nil {
				return err
			}
			if err := col.AddValue(v); err != nil {
				return err
			}
		}
	}
	return df.Seal()
}

func arrowValue(arr arrow.Array, i int) (value.Value, error) {
	if arr.IsNull(i) {
		return value.Void, nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return value.NewLong(int64(a.Value(i))), nil
	case *array.Int16:
		return value.NewLong(int64(a.Value(i))), nil
	case *array.Int32:
		return value.NewLong(int64(a.Value(i))), nil
	case *array.Int64:
		return value.NewLong(a.Value(i)), nil
	case *array.Uint8:
		return value.NewLong(int64(a.Value(i))), nil
	case *array.Uint16:
		return value.NewLong(int64(a.Value(i))), nil
	case *array.Uint32:
		return value.NewLong(int64(a.Value(i))), nil
	case *array.Float32:
		return value.NewDouble(float64(a.Value(i))), nil
	case *array.Float64:
		return value.NewDouble(a.Value(i)), nil
	case *array.String:
		return value.NewString(a.Value(i)), nil
	case *array.LargeString:
		return value.NewString(a.Value(i)), nil
	case *array.Boolean:
		return value.NewBoolean(a.Value(i)), nil
	case *array.Date32:
		return value.NewDate(a.Value(i).ToTime()), nil
	case *array.Date64:
		return value.NewDate(a.Value(i).ToTime()), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return value.NewDateTime(a.Value(i).ToTime(unit).In(time.UTC)), nil
	}
	return value.Void, fmt.Errorf("unsupported Arrow array %s", arr.DataType())
}
