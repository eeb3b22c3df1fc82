package dataframe

import (
	"ecframe-go/value"
)

// Column is a named, typed sequence of values owned by at most one DataFrame.
type Column interface {
	Name() string
	Type() value.Type
	IsStored() bool
	Size() int

	Value(row int) (value.Value, error)
	Object(row int) (any, error)
	IsNull(row int) (bool, error)

	// appends and writes only apply to stored columns
	AddValue(v value.Value) error
	AddObject(obj any) error
	AddEmptyValue() error
	SetValue(row int, v value.Value) error
	SetObject(row int, obj any) error

	DataFrame() *DataFrame
	// CloneSchemaAndAttachTo creates an empty column of the same kind in target. An empty
	// newName keeps the current name.
	CloneSchemaAndAttachTo(target *DataFrame, newName string) (Column, error)
	// MergeWithInto appends the values of c and then other into a new stored column of target.
	MergeWithInto(other Column, target *DataFrame) (Column, error)
	Comparator(other Column) RowComparator

	attach(df *DataFrame) error
}

// RowComparator orders row i of one column against row j of another. Nulls are equal to
// each other and sort before any value.
type RowComparator func(i, j int) (int, error)

func compareRows(c, other Column) RowComparator {
	return func(i, j int) (int, error) {
		a, err := c.Value(i)
		if err != nil {
			return 0, err
		}
		b, err := other.Value(j)
		if err != nil {
			return 0, err
		}
		switch {
		case a.IsVoid() && b.IsVoid():
			return 0, nil
		case a.IsVoid():
			return -1, nil
		case b.IsVoid():
			return 1, nil
		}
		return value.Compare(a, b)
	}
}

// conform adapts v to typ when the representation allows it without loss of meaning.
func conform(v value.Value, typ value.Type) (value.Value, bool) {
	if v.IsVoid() || v.Type() == typ {
		return v, true
	}
	switch {
	case typ == value.TypeDouble && v.Type() == value.TypeLong:
		return value.NewDouble(float64(v.Long())), true
	case typ == value.TypeDate && v.Type() == value.TypeDateTime:
		return value.NewDate(v.Time()), true
	case typ == value.TypeDateTime && v.Type() == value.TypeDate:
		return value.NewDateTime(v.Time()), true
	}
	return v, false
}

func mergeColumns(c, other Column, target *DataFrame) (Column, error) {
	if c.Type() != other.Type() {
		return nil, ErrIncompatibleColumns(c, other)
	}
	merged, err := NewStoredColumn(c.Type(), c.Name())
	if err != nil {
		return nil, err
	}
	for _, src := range []Column{c, other} {
		if err := copyValues(src, merged); err != nil {
			return nil, err
		}
	}
	if err := target.AddColumn(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func copyValues(src, dst Column) error {
	for row := 0; row < src.Size(); row++ {
		null, err := src.IsNull(row)
		if err != nil {
			return err
		}
		if null {
			if err := dst.AddEmptyValue(); err != nil {
				return err
			}
			continue
		}
		v, err := src.Value(row)
		if err != nil {
			return err
		}
		if err := dst.AddValue(v); err != nil {
			return err
		}
	}
	return nil
}
