package dataframe

import (
	"fmt"
	"slices"

	"ecframe-go/Expr"
	"ecframe-go/value"
)

// DataFrame is an ordered set of uniquely named columns sharing a row count. It assumes a
// single writer; clone the structure to get an independent frame.
type DataFrame struct {
	name      string
	columns   []Column
	index     map[string]int
	rowCount  int
	scope     *Expr.EvalContext
	functions []*Expr.FunctionScript
	parser    Expr.Parser
}

func New(name string) *DataFrame {
	return &DataFrame{
		name:    name,
		columns: make([]Column, 0, 8),
		index:   make(map[string]int),
		scope:   Expr.NewEvalContext(),
	}
}

// WithParser enables AddComputedColumnText.
func (df *DataFrame) WithParser(p Expr.Parser) *DataFrame {
	df.parser = p
	return df
}

// AddFunction makes a user function callable from computed columns and predicates.
func (df *DataFrame) AddFunction(fn *Expr.FunctionScript) *DataFrame {
	df.functions = append(df.functions, fn)
	df.scope.AddFunction(fn)
	return df
}

// ====================
// Schema
// ====================

// AddColumn attaches col. An empty stored column is padded with Void up to the row count. A
// filled one must match the row count, unless it is the first stored column of the frame, in
// which case the frame adopts its size.
func (df *DataFrame) AddColumn(col Column) error {
	if _, exists := df.index[col.Name()]; exists {
		return ErrDuplicateColumn(df.name, col.Name())
	}
	adopt := false
	if col.IsStored() && col.Size() > 0 && col.Size() != df.rowCount {
		if len(df.storedColumns()) > 0 {
			return ErrRaggedColumn(col.Name(), col.Size(), df.rowCount)
		}
		adopt = true
	}
	if err := col.attach(df); err != nil {
		return err
	}
	if adopt {
		df.rowCount = col.Size()
	}
	if col.IsStored() {
		for col.Size() < df.rowCount {
			if err := col.AddEmptyValue(); err != nil {
				return err
			}
		}
	}
	df.index[col.Name()] = len(df.columns)
	df.columns = append(df.columns, col)
	return nil
}

func (df *DataFrame) AddStoredColumn(name string, typ value.Type) (Column, error) {
	col, err := NewStoredColumn(typ, name)
	if err != nil {
		return nil, err
	}
	if err := df.AddColumn(col); err != nil {
		return nil, err
	}
	return col, nil
}

func (df *DataFrame) AddLongColumn(name string) error {
	return df.AddColumn(NewLongColumn(name))
}

func (df *DataFrame) AddDoubleColumn(name string) error {
	return df.AddColumn(NewDoubleColumn(name))
}

func (df *DataFrame) AddStringColumn(name string) error {
	return df.AddColumn(NewStringColumn(name))
}

func (df *DataFrame) AddBooleanColumn(name string) error {
	return df.AddColumn(NewBooleanColumn(name))
}

func (df *DataFrame) AddDateColumn(name string) error {
	return df.AddColumn(NewDateColumn(name))
}

func (df *DataFrame) AddDateTimeColumn(name string) error {
	return df.AddColumn(NewDateTimeColumn(name))
}

func (df *DataFrame) AddComputedColumn(name string, typ value.Type, expr Expr.Expression) error {
	return df.AddColumn(NewComputedColumn(name, typ, expr))
}

func (df *DataFrame) AddComputedColumnText(name string, typ value.Type, text string) error {
	if df.parser == nil {
		return ErrNoParser
	}
	expr, err := df.parser.Parse(text)
	if err != nil {
		return fmt.Errorf("parsing expression for column %s: %w", name, err)
	}
	return df.AddComputedColumn(name, typ, expr)
}

// ====================
// Rows
// ====================

// AddRow appends one row of Go natives, positionally over the stored columns.
func (df *DataFrame) AddRow(objects ...any) error {
	values := make([]value.Value, len(objects))
	for i, obj := range objects {
		v, err := value.FromObject(obj)
		if err != nil {
			return err
		}
		values[i] = v
	}
	return df.AddRowValues(values...)
}

// AddRowValues either appends a full row or leaves the frame untouched.
func (df *DataFrame) AddRowValues(values ...value.Value) error {
	stored := df.storedColumns()
	if len(values) != len(stored) {
		return ErrRowWidth(df.name, len(stored), len(values))
	}
	conformed := make([]value.Value, len(values))
	for i, v := range values {
		c, ok := conform(v, stored[i].Type())
		if !ok {
			return ErrIncompatibleValue(stored[i], v)
		}
		conformed[i] = c
	}
	for i, col := range stored {
		if err := col.AddValue(conformed[i]); err != nil {
			return err
		}
	}
	df.rowCount++
	return nil
}

// SetValue overwrites one cell of a stored column.
func (df *DataFrame) SetValue(name string, row int, v value.Value) error {
	col, err := df.Column(name)
	if err != nil {
		return err
	}
	return col.SetValue(row, v)
}

// Seal checks that every stored column holds the same number of rows and adopts that count.
// Needed after filling columns directly instead of through AddRow.
func (df *DataFrame) Seal() error {
	size := -1
	for _, col := range df.columns {
		if !col.IsStored() {
			continue
		}
		if size < 0 {
			size = col.Size()
			continue
		}
		if col.Size() != size {
			return ErrRaggedColumn(col.Name(), col.Size(), size)
		}
	}
	if size < 0 {
		size = 0
	}
	df.rowCount = size
	return nil
}

// SealColumn replaces a computed column with a stored column holding its current values,
// keeping its position. Stored columns are left alone.
func (df *DataFrame) SealColumn(name string) error {
	i, ok := df.index[name]
	if !ok {
		return ErrUnknownColumn(df.name, name)
	}
	col := df.columns[i]
	if col.IsStored() {
		return nil
	}
	sealed, err := NewStoredColumn(col.Type(), col.Name())
	if err != nil {
		return err
	}
	if err := copyValues(col, sealed); err != nil {
		return err
	}
	if err := sealed.attach(df); err != nil {
		return err
	}
	df.columns[i] = sealed
	if cc, ok := col.(*ComputedColumn); ok {
		cc.frame = nil
	}
	return nil
}

// ====================
// Accessors
// ====================

func (df *DataFrame) Name() string     { return df.name }
func (df *DataFrame) RowCount() int    { return df.rowCount }
func (df *DataFrame) ColumnCount() int { return len(df.columns) }

func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.index[name]
	return ok
}

func (df *DataFrame) lookup(name string) (Column, bool) {
	i, ok := df.index[name]
	if !ok {
		return nil, false
	}
	return df.columns[i], true
}

func (df *DataFrame) Column(name string) (Column, error) {
	col, ok := df.lookup(name)
	if !ok {
		return nil, ErrUnknownColumn(df.name, name)
	}
	return col, nil
}

func (df *DataFrame) ColumnAt(i int) Column {
	return df.columns[i]
}

func (df *DataFrame) Columns() []Column {
	return slices.Clone(df.columns)
}

func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, col := range df.columns {
		names[i] = col.Name()
	}
	return names
}

func (df *DataFrame) storedColumns() []Column {
	stored := make([]Column, 0, len(df.columns))
	for _, col := range df.columns {
		if col.IsStored() {
			stored = append(stored, col)
		}
	}
	return stored
}

func (df *DataFrame) Value(name string, row int) (value.Value, error) {
	col, err := df.Column(name)
	if err != nil {
		return value.Void, err
	}
	return col.Value(row)
}

// Long reads a Long cell; ok is false for a null cell.
func (df *DataFrame) Long(name string, row int) (v int64, ok bool, err error) {
	cell, err := df.typedValue(name, row, value.TypeLong)
	return cell.Long(), !cell.IsVoid(), err
}

func (df *DataFrame) Double(name string, row int) (v float64, ok bool, err error) {
	cell, err := df.typedValue(name, row, value.TypeDouble)
	return cell.Double(), !cell.IsVoid(), err
}

func (df *DataFrame) String(name string, row int) (v string, ok bool, err error) {
	cell, err := df.typedValue(name, row, value.TypeString)
	return cell.Text(), !cell.IsVoid(), err
}

func (df *DataFrame) typedValue(name string, row int, typ value.Type) (value.Value, error) {
	v, err := df.Value(name, row)
	if err != nil {
		return value.Void, err
	}
	if !v.IsVoid() && v.Type() != typ {
		col, _ := df.lookup(name)
		return value.Void, ErrIncompatibleValue(col, v)
	}
	return v, nil
}

// EvalAt evaluates expr with the columns of row bound as variables.
func (df *DataFrame) EvalAt(expr Expr.Expression, row int) (value.Value, error) {
	if row < 0 || row >= df.rowCount {
		return value.Void, ErrRowOutOfRange(df.name, row, df.rowCount)
	}
	ctx := &rowContext{frame: df, row: row}
	v, err := Expr.EvalExpression(expr, ctx)
	if ctx.err != nil {
		return value.Void, ctx.err
	}
	return v, err
}

// Row returns every column of row, computed columns included.
func (df *DataFrame) Row(row int) ([]value.Value, error) {
	values := make([]value.Value, len(df.columns))
	for i, col := range df.columns {
		v, err := col.Value(row)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
