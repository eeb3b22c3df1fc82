package value

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"ecframe-go/errs"
)

// Type is the variant tag of a Value.
type Type int

const (
	TypeVoid Type = iota
	TypeLong
	TypeDouble
	TypeString
	TypeBoolean
	TypeDate
	TypeDateTime
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

var (
	ErrUnsupportedObject = func(obj any) error {
		return errs.New(errs.TypeMismatch, "${objectType} cannot be converted to a value").
			With("objectType", fmt.Sprintf("%T", obj))
	}
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "VOID"
	case TypeLong:
		return "LONG"
	case TypeDouble:
		return "DOUBLE"
	case TypeString:
		return "STRING"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeDateTime:
		return "DATE_TIME"
	default:
		return "UNKNOWN"
	}
}

func (t Type) IsNumeric() bool {
	return t == TypeLong || t == TypeDouble
}

// Value is an immutable tagged value. The zero Value is Void.
type Value struct {
	typ Type
	l   int64
	d   float64
	s   string
	b   bool
	t   time.Time
}

var (
	Void  = Value{}
	True  = Value{typ: TypeBoolean, b: true}
	False = Value{typ: TypeBoolean, b: false}
)

func NewLong(v int64) Value     { return Value{typ: TypeLong, l: v} }
func NewDouble(v float64) Value { return Value{typ: TypeDouble, d: v} }
func NewString(v string) Value  { return Value{typ: TypeString, s: v} }

func NewBoolean(v bool) Value {
	if v {
		return True
	}
	return False
}

// NewDate keeps only the calendar day of t.
func NewDate(t time.Time) Value {
	y, m, d := t.Date()
	return Value{typ: TypeDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewDateTime keeps t at second precision, wall clock preserved, location dropped.
func NewDateTime(t time.Time) Value {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return Value{typ: TypeDateTime, t: time.Date(y, mo, d, h, mi, s, 0, time.UTC)}
}

func (v Value) Type() Type      { return v.typ }
func (v Value) IsVoid() bool    { return v.typ == TypeVoid }
func (v Value) Long() int64     { return v.l }
func (v Value) Double() float64 { return v.d }
func (v Value) Text() string    { return v.s }
func (v Value) Bool() bool      { return v.b }
func (v Value) Time() time.Time { return v.t }

func (v Value) IsTrue() bool  { return v.typ == TypeBoolean && v.b }
func (v Value) IsFalse() bool { return v.typ == TypeBoolean && !v.b }

// AsDouble widens numeric values; ok is false for anything else.
func (v Value) AsDouble() (float64, bool) {
	switch v.typ {
	case TypeLong:
		return float64(v.l), true
	case TypeDouble:
		return v.d, true
	}
	return 0, false
}

// Object unwraps to the Go native representation, nil for Void.
func (v Value) Object() any {
	switch v.typ {
	case TypeLong:
		return v.l
	case TypeDouble:
		return v.d
	case TypeString:
		return v.s
	case TypeBoolean:
		return v.b
	case TypeDate, TypeDateTime:
		return v.t
	default:
		return nil
	}
}

// FromObject wraps a Go native. time.Time always becomes a DateTime; columns of
// type Date narrow it on append.
func FromObject(obj any) (Value, error) {
	switch o := obj.(type) {
	case nil:
		return Void, nil
	case Value:
		return o, nil
	case int:
		return NewLong(int64(o)), nil
	case int8:
		return NewLong(int64(o)), nil
	case int16:
		return NewLong(int64(o)), nil
	case int32:
		return NewLong(int64(o)), nil
	case int64:
		return NewLong(o), nil
	case uint8:
		return NewLong(int64(o)), nil
	case uint16:
		return NewLong(int64(o)), nil
	case uint32:
		return NewLong(int64(o)), nil
	case uint64:
		if o > math.MaxInt64 {
			return Void, ErrUnsupportedObject(obj)
		}
		return NewLong(int64(o)), nil
	case float32:
		return NewDouble(float64(o)), nil
	case float64:
		return NewDouble(o), nil
	case string:
		return NewString(o), nil
	case bool:
		return NewBoolean(o), nil
	case time.Time:
		return NewDateTime(o), nil
	case *time.Time:
		if o == nil {
			return Void, nil
		}
		return NewDateTime(*o), nil
	default:
		return Void, ErrUnsupportedObject(obj)
	}
}

// Format renders the payload without quoting; Void renders as the empty string.
func (v Value) Format() string {
	switch v.typ {
	case TypeLong:
		return strconv.FormatInt(v.l, 10)
	case TypeDouble:
		return FormatDouble(v.d)
	case TypeString:
		return v.s
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeDate:
		return v.t.Format(DateLayout)
	case TypeDateTime:
		return v.t.Format(DateTimeLayout)
	default:
		return ""
	}
}

// StringLiteral renders the value the way it would be written in an expression.
func (v Value) StringLiteral() string {
	switch v.typ {
	case TypeString:
		return "'" + v.s + "'"
	case TypeVoid:
		return "VOID"
	default:
		return v.Format()
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%s)", v.typ, v.StringLiteral())
}

// FormatDouble uses plain decimal notation and always keeps a fractional part,
// so 110000 renders as 110000.0.
func FormatDouble(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
