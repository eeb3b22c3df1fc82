package dataframe

import (
	"fmt"
	"slices"

	"ecframe-go/Expr"
	"ecframe-go/value"
)

// CloneStructure returns an empty frame with the same columns, functions and parser and no
// storage shared with df.
func (df *DataFrame) CloneStructure(newName string) (*DataFrame, error) {
	clone := New(newName)
	clone.parser = df.parser
	for _, fn := range df.functions {
		clone.AddFunction(fn)
	}
	for _, col := range df.columns {
		if _, err := col.CloneSchemaAndAttachTo(clone, ""); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

// Merge concatenates the rows of df and other into a new frame. Stored columns are merged
// pairwise by position, computed columns are re-attached and evaluate over the merged rows.
func (df *DataFrame) Merge(other *DataFrame) (*DataFrame, error) {
	if len(df.columns) != len(other.columns) {
		return nil, ErrSchemaMismatch(df.name, other.name,
			fmt.Sprintf("%d columns vs %d", len(df.columns), len(other.columns)))
	}
	merged := New(df.name)
	merged.parser = df.parser
	for _, fn := range df.functions {
		merged.AddFunction(fn)
	}
	for i, col := range df.columns {
		otherCol := other.columns[i]
		if col.Name() != otherCol.Name() || col.IsStored() != otherCol.IsStored() {
			return nil, ErrSchemaMismatch(df.name, other.name,
				fmt.Sprintf("column %d is %s in one and %s in the other", i, col.Name(), otherCol.Name()))
		}
		var err error
		if col.IsStored() {
			_, err = col.MergeWithInto(otherCol, merged)
		} else {
			if col.Type() != otherCol.Type() {
				return nil, ErrIncompatibleColumns(col, otherCol)
			}
			_, err = col.CloneSchemaAndAttachTo(merged, "")
		}
		if err != nil {
			return nil, err
		}
	}
	if err := merged.Seal(); err != nil {
		return nil, err
	}
	return merged, nil
}

// copyRows appends the stored values of rows, in order, to target. target must share the
// stored schema of df.
func (df *DataFrame) copyRows(target *DataFrame, rows []int) error {
	stored := df.storedColumns()
	values := make([]value.Value, len(stored))
	for _, row := range rows {
		for i, col := range stored {
			v, err := col.Value(row)
			if err != nil {
				return err
			}
			values[i] = v
		}
		if err := target.AddRowValues(values...); err != nil {
			return err
		}
	}
	return nil
}

// SortBy returns a copy of df ordered by the given columns. The sort is stable and nulls
// come first.
func (df *DataFrame) SortBy(names ...string) (*DataFrame, error) {
	comparators := make([]RowComparator, len(names))
	for i, name := range names {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		comparators[i] = col.Comparator(col)
	}
	rows := make([]int, df.rowCount)
	for i := range rows {
		rows[i] = i
	}
	var sortErr error
	slices.SortStableFunc(rows, func(a, b int) int {
		for _, cmp := range comparators {
			c, err := cmp(a, b)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return 0
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return df.project(rows)
}

// Select keeps the rows where predicate is true. A Void result drops the row.
func (df *DataFrame) Select(predicate Expr.Expression) (*DataFrame, error) {
	rows := make([]int, 0, df.rowCount)
	for row := 0; row < df.rowCount; row++ {
		v, err := df.EvalAt(predicate, row)
		if err != nil {
			return nil, err
		}
		if !v.IsVoid() && v.Type() != value.TypeBoolean {
			return nil, ErrNonBooleanPredicate(predicate.String(), v)
		}
		if v.IsTrue() {
			rows = append(rows, row)
		}
	}
	return df.project(rows)
}

// Head returns a copy holding at most the first n rows.
func (df *DataFrame) Head(n int) (*DataFrame, error) {
	n = max(min(n, df.rowCount), 0)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return df.project(rows)
}

func (df *DataFrame) project(rows []int) (*DataFrame, error) {
	out, err := df.CloneStructure(df.name)
	if err != nil {
		return nil, err
	}
	if err := df.copyRows(out, rows); err != nil {
		return nil, err
	}
	return out, nil
}

// Equal compares column names, types and every cell. Frame names are ignored.
func (df *DataFrame) Equal(other *DataFrame) bool {
	if df.rowCount != other.rowCount || len(df.columns) != len(other.columns) {
		return false
	}
	for i, col := range df.columns {
		otherCol := other.columns[i]
		if col.Name() != otherCol.Name() || col.Type() != otherCol.Type() {
			return false
		}
		cmp := col.Comparator(otherCol)
		for row := 0; row < df.rowCount; row++ {
			c, err := cmp(row, row)
			if err != nil || c != 0 {
				return false
			}
		}
	}
	return true
}
