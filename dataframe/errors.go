package dataframe

import (
	"errors"
	"strings"

	"ecframe-go/errs"
	"ecframe-go/value"
)

var (
	ErrIncompatibleValue = func(col Column, v value.Value) error {
		return errs.New(errs.TypeMismatch, "Value ${value} of type ${valueType} does not fit column ${columnName} of type ${columnType}").
			With("value", v.StringLiteral()).
			With("valueType", v.Type()).
			With("columnName", col.Name()).
			With("columnType", col.Type())
	}
	ErrIncompatibleColumns = func(col, other Column) error {
		return errs.New(errs.SchemaViolation, "Cannot merge column ${columnName} of type ${columnType} with column ${otherColumnName} of type ${otherColumnType}").
			With("columnName", col.Name()).
			With("columnType", col.Type()).
			With("otherColumnName", other.Name()).
			With("otherColumnType", other.Type())
	}
	ErrDuplicateColumn = func(frame, name string) error {
		return errs.New(errs.SchemaViolation, "Column ${columnName} already exists in data frame ${frameName}").
			With("columnName", name).
			With("frameName", frame)
	}
	ErrAlreadyAttached = func(name, frame string) error {
		return errs.New(errs.SchemaViolation, "Column ${columnName} is already attached to data frame ${frameName}").
			With("columnName", name).
			With("frameName", frame)
	}
	ErrDetachedColumn = func(name string) error {
		return errs.New(errs.SchemaViolation, "Column ${columnName} is not attached to a data frame").
			With("columnName", name)
	}
	ErrRowWidth = func(frame string, expected, actual int) error {
		return errs.New(errs.SchemaViolation, "Data frame ${frameName} expects ${expected} stored values per row, got ${actual}").
			With("frameName", frame).
			With("expected", expected).
			With("actual", actual)
	}
	ErrRaggedColumn = func(name string, size, expected int) error {
		return errs.New(errs.SchemaViolation, "Column ${columnName} has ${size} rows, expected ${expected}").
			With("columnName", name).
			With("size", size).
			With("expected", expected)
	}
	ErrSchemaMismatch = func(frame, other string, info string) error {
		return errs.New(errs.SchemaViolation, "Data frames ${frameName} and ${otherFrameName} do not share a schema: ${info}").
			With("frameName", frame).
			With("otherFrameName", other).
			With("info", info)
	}
	ErrComputedAppend = func(name string) error {
		return errs.New(errs.SchemaViolation, "Cannot append values to computed column ${columnName}").
			With("columnName", name)
	}
	ErrComputedWrite = func(name string) error {
		return errs.New(errs.SchemaViolation, "Cannot overwrite values of computed column ${columnName}").
			With("columnName", name)
	}
	ErrCircularReference = func(path []string) error {
		return errs.New(errs.SchemaViolation, "Circular reference between computed columns: ${path}").
			With("columnName", path[0]).
			With("path", strings.Join(path, " -> "))
	}
	ErrUnknownColumn = func(frame, name string) error {
		return errs.New(errs.UnboundReference, "Unknown column ${columnName} in data frame ${frameName}").
			With("columnName", name).
			With("frameName", frame)
	}
	ErrNonBooleanPredicate = func(predicate string, v value.Value) error {
		return errs.New(errs.TypeMismatch, "Predicate ${predicate} evaluated to ${valueType}, expected BOOLEAN").
			With("predicate", predicate).
			With("valueType", v.Type())
	}
	ErrRowOutOfRange = func(name string, row, size int) error {
		return errs.New(errs.UnboundReference, "Row ${row} is out of range for column ${columnName} with ${size} rows").
			With("row", row).
			With("columnName", name).
			With("size", size)
	}
	ErrNoStoredType = func(name string, typ value.Type) error {
		return errs.New(errs.TypeMismatch, "Cannot store column ${columnName} of type ${columnType}").
			With("columnName", name).
			With("columnType", typ)
	}
	ErrNoParser = errors.New("no expression parser configured for this data frame")
)
