package dataframe

import (
	"time"

	"ecframe-go/value"
)

var (
	_ = (Column)(&StoredColumn[int64]{})
	_ = (Column)(&StoredColumn[time.Time]{})
)

// codec moves a Go native in and out of a Value of one variant.
type codec[T any] struct {
	typ  value.Type
	from func(value.Value) T
	to   func(T) value.Value
}

var (
	longCodec     = codec[int64]{typ: value.TypeLong, from: value.Value.Long, to: value.NewLong}
	doubleCodec   = codec[float64]{typ: value.TypeDouble, from: value.Value.Double, to: value.NewDouble}
	stringCodec   = codec[string]{typ: value.TypeString, from: value.Value.Text, to: value.NewString}
	booleanCodec  = codec[bool]{typ: value.TypeBoolean, from: value.Value.Bool, to: value.NewBoolean}
	dateCodec     = codec[time.Time]{typ: value.TypeDate, from: value.Value.Time, to: value.NewDate}
	dateTimeCodec = codec[time.Time]{typ: value.TypeDateTime, from: value.Value.Time, to: value.NewDateTime}
)

// StoredColumn keeps materialized values with a parallel validity slice; a false slot is Void.
type StoredColumn[T any] struct {
	name  string
	codec codec[T]
	data  []T
	valid []bool
	frame *DataFrame
}

func newStored[T any](name string, c codec[T]) *StoredColumn[T] {
	return &StoredColumn[T]{
		name:  name,
		codec: c,
		data:  make([]T, 0, 16),
		valid: make([]bool, 0, 16),
	}
}

func NewLongColumn(name string) *StoredColumn[int64]         { return newStored(name, longCodec) }
func NewDoubleColumn(name string) *StoredColumn[float64]     { return newStored(name, doubleCodec) }
func NewStringColumn(name string) *StoredColumn[string]      { return newStored(name, stringCodec) }
func NewBooleanColumn(name string) *StoredColumn[bool]       { return newStored(name, booleanCodec) }
func NewDateColumn(name string) *StoredColumn[time.Time]     { return newStored(name, dateCodec) }
func NewDateTimeColumn(name string) *StoredColumn[time.Time] { return newStored(name, dateTimeCodec) }

// NewStoredColumn picks the factory for typ.
func NewStoredColumn(typ value.Type, name string) (Column, error) {
	switch typ {
	case value.TypeLong:
		return NewLongColumn(name), nil
	case value.TypeDouble:
		return NewDoubleColumn(name), nil
	case value.TypeString:
		return NewStringColumn(name), nil
	case value.TypeBoolean:
		return NewBooleanColumn(name), nil
	case value.TypeDate:
		return NewDateColumn(name), nil
	case value.TypeDateTime:
		return NewDateTimeColumn(name), nil
	}
	return nil, ErrNoStoredType(name, typ)
}

func (c *StoredColumn[T]) Name() string          { return c.name }
func (c *StoredColumn[T]) Type() value.Type      { return c.codec.typ }
func (c *StoredColumn[T]) IsStored() bool        { return true }
func (c *StoredColumn[T]) Size() int             { return len(c.valid) }
func (c *StoredColumn[T]) DataFrame() *DataFrame { return c.frame }

func (c *StoredColumn[T]) Value(row int) (value.Value, error) {
	if row < 0 || row >= len(c.valid) {
		return value.Void, ErrRowOutOfRange(c.name, row, len(c.valid))
	}
	if !c.valid[row] {
		return value.Void, nil
	}
	return c.codec.to(c.data[row]), nil
}

func (c *StoredColumn[T]) Object(row int) (any, error) {
	v, err := c.Value(row)
	if err != nil {
		return nil, err
	}
	return v.Object(), nil
}

func (c *StoredColumn[T]) IsNull(row int) (bool, error) {
	if row < 0 || row >= len(c.valid) {
		return false, ErrRowOutOfRange(c.name, row, len(c.valid))
	}
	return !c.valid[row], nil
}

// Typed returns the raw slot; ok is false for a null slot.
func (c *StoredColumn[T]) Typed(row int) (v T, ok bool) {
	if row < 0 || row >= len(c.valid) || !c.valid[row] {
		return v, false
	}
	return c.data[row], true
}

func (c *StoredColumn[T]) AddValue(v value.Value) error {
	conformed, ok := conform(v, c.codec.typ)
	if !ok {
		return ErrIncompatibleValue(c, v)
	}
	if conformed.IsVoid() {
		return c.AddEmptyValue()
	}
	c.data = append(c.data, c.codec.from(conformed))
	c.valid = append(c.valid, true)
	return nil
}

func (c *StoredColumn[T]) AddObject(obj any) error {
	v, err := value.FromObject(obj)
	if err != nil {
		return err
	}
	return c.AddValue(v)
}

// SetValue overwrites an existing row with the same conversions as AddValue.
func (c *StoredColumn[T]) SetValue(row int, v value.Value) error {
	if row < 0 || row >= len(c.valid) {
		return ErrRowOutOfRange(c.name, row, len(c.valid))
	}
	conformed, ok := conform(v, c.codec.typ)
	if !ok {
		return ErrIncompatibleValue(c, v)
	}
	if conformed.IsVoid() {
		var zero T
		c.data[row], c.valid[row] = zero, false
		return nil
	}
	c.data[row], c.valid[row] = c.codec.from(conformed), true
	return nil
}

func (c *StoredColumn[T]) SetObject(row int, obj any) error {
	v, err := value.FromObject(obj)
	if err != nil {
		return err
	}
	return c.SetValue(row, v)
}

func (c *StoredColumn[T]) AddEmptyValue() error {
	var zero T
	c.data = append(c.data, zero)
	c.valid = append(c.valid, false)
	return nil
}

func (c *StoredColumn[T]) CloneSchemaAndAttachTo(target *DataFrame, newName string) (Column, error) {
	if newName == "" {
		newName = c.name
	}
	clone := newStored(newName, c.codec)
	if err := target.AddColumn(clone); err != nil {
		return nil, err
	}
	return clone, nil
}

func (c *StoredColumn[T]) MergeWithInto(other Column, target *DataFrame) (Column, error) {
	return mergeColumns(c, other, target)
}

func (c *StoredColumn[T]) Comparator(other Column) RowComparator {
	return compareRows(c, other)
}

func (c *StoredColumn[T]) attach(df *DataFrame) error {
	if c.frame != nil {
		return ErrAlreadyAttached(c.name, c.frame.Name())
	}
	c.frame = df
	return nil
}
