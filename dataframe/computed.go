package dataframe

import (
	"slices"

	"ecframe-go/Expr"
	"ecframe-go/value"
)

var (
	_ = (Column)(&ComputedColumn{})
	_ = (Expr.Context)(&rowContext{})
)

// ComputedColumn derives each row by evaluating an expression over the sibling columns of
// the same row. Nothing is cached; DataFrame.SealColumn materializes it.
type ComputedColumn struct {
	name  string
	typ   value.Type
	expr  Expr.Expression
	frame *DataFrame
}

func NewComputedColumn(name string, typ value.Type, expr Expr.Expression) *ComputedColumn {
	return &ComputedColumn{name: name, typ: typ, expr: expr}
}

func (c *ComputedColumn) Name() string                { return c.name }
func (c *ComputedColumn) Type() value.Type            { return c.typ }
func (c *ComputedColumn) IsStored() bool              { return false }
func (c *ComputedColumn) DataFrame() *DataFrame       { return c.frame }
func (c *ComputedColumn) Expression() Expr.Expression { return c.expr }

func (c *ComputedColumn) Size() int {
	if c.frame == nil {
		return 0
	}
	return c.frame.RowCount()
}

func (c *ComputedColumn) Value(row int) (value.Value, error) {
	return c.evaluate(row, nil)
}

func (c *ComputedColumn) Object(row int) (any, error) {
	v, err := c.Value(row)
	if err != nil {
		return nil, err
	}
	return v.Object(), nil
}

func (c *ComputedColumn) IsNull(row int) (bool, error) {
	v, err := c.Value(row)
	if err != nil {
		return false, err
	}
	return v.IsVoid(), nil
}

func (c *ComputedColumn) AddValue(value.Value) error { return ErrComputedAppend(c.name) }
func (c *ComputedColumn) AddObject(any) error        { return ErrComputedAppend(c.name) }
func (c *ComputedColumn) AddEmptyValue() error       { return ErrComputedAppend(c.name) }

func (c *ComputedColumn) SetValue(int, value.Value) error { return ErrComputedWrite(c.name) }
func (c *ComputedColumn) SetObject(int, any) error        { return ErrComputedWrite(c.name) }

// CloneSchemaAndAttachTo shares the expression tree; trees are immutable.
func (c *ComputedColumn) CloneSchemaAndAttachTo(target *DataFrame, newName string) (Column, error) {
	if newName == "" {
		newName = c.name
	}
	clone := NewComputedColumn(newName, c.typ, c.expr)
	if err := target.AddColumn(clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// MergeWithInto materializes both sides into a stored column.
func (c *ComputedColumn) MergeWithInto(other Column, target *DataFrame) (Column, error) {
	return mergeColumns(c, other, target)
}

func (c *ComputedColumn) Comparator(other Column) RowComparator {
	return compareRows(c, other)
}

func (c *ComputedColumn) attach(df *DataFrame) error {
	if c.frame != nil {
		return ErrAlreadyAttached(c.name, c.frame.Name())
	}
	c.frame = df
	return nil
}

// visiting holds the computed columns already being evaluated for this row.
func (c *ComputedColumn) evaluate(row int, visiting []string) (value.Value, error) {
	if c.frame == nil {
		return value.Void, ErrDetachedColumn(c.name)
	}
	if row < 0 || row >= c.frame.RowCount() {
		return value.Void, ErrRowOutOfRange(c.name, row, c.frame.RowCount())
	}
	if i := slices.Index(visiting, c.name); i >= 0 {
		return value.Void, ErrCircularReference(append(slices.Clone(visiting[i:]), c.name))
	}
	ctx := &rowContext{
		frame:    c.frame,
		row:      row,
		visiting: append(slices.Clone(visiting), c.name),
	}
	v, err := Expr.EvalExpression(c.expr, ctx)
	if ctx.err != nil {
		return value.Void, ctx.err
	}
	if err != nil {
		return value.Void, err
	}
	conformed, ok := conform(v, c.typ)
	if !ok {
		return value.Void, ErrIncompatibleValue(c, v)
	}
	return conformed, nil
}

// rowContext projects every column of a frame at one row as variables. Functions resolve
// against the frame's registered scripts, then the built-ins.
type rowContext struct {
	frame    *DataFrame
	row      int
	visiting []string
	// first failure while resolving a sibling; Context lookups cannot return errors
	err error
}

func (r *rowContext) Variable(name string) (value.Value, bool) {
	col, ok := r.frame.lookup(name)
	if !ok {
		return value.Void, false
	}
	var (
		v   value.Value
		err error
	)
	if cc, computed := col.(*ComputedColumn); computed {
		v, err = cc.evaluate(r.row, r.visiting)
	} else {
		v, err = col.Value(r.row)
	}
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return value.Void, true
	}
	return v, true
}

func (r *rowContext) Function(name string) (Expr.Function, bool) {
	return r.frame.scope.Function(name)
}
