package value

import (
	"strings"

	"ecframe-go/errs"

	"github.com/JohnCGriffin/overflow"
)

var (
	ErrIncompatibleOperands = func(op string, left, right Value) error {
		return errs.New(errs.TypeMismatch, "Operation '${operation}' is not supported for ${leftType} and ${rightType}").
			With("operation", op).
			With("leftType", left.Type()).
			With("rightType", right.Type())
	}
	ErrUnsupportedUnary = func(op string, v Value) error {
		return errs.New(errs.TypeMismatch, "Operation '${operation}' is not supported for ${type}").
			With("operation", op).
			With("type", v.Type())
	}
	ErrVoidInComparison = func(op string, left, right Value) error {
		return errs.New(errs.NullInComparison, "Cannot apply '${operation}' to ${left} and ${right}: void values cannot be ordered").
			With("operation", op).
			With("left", left.StringLiteral()).
			With("right", right.StringLiteral())
	}
	ErrLongOverflow = func(op string, left, right Value) error {
		return errs.New(errs.Arithmetic, "Long overflow evaluating ${left} ${operation} ${right}").
			With("operation", op).
			With("left", left.StringLiteral()).
			With("right", right.StringLiteral())
	}
	ErrDivisionByZero = func(left Value) error {
		return errs.New(errs.Arithmetic, "Division by zero: ${left} / 0").
			With("left", left.StringLiteral())
	}
)

// =============================
// ARITHMETIC
// =============================

func Add(a, b Value) (Value, error) {
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	if a.typ == TypeString && b.typ == TypeString {
		return NewString(a.s + b.s), nil
	}
	return arithmetic("+", a, b, overflow.Add64, func(x, y float64) float64 { return x + y })
}

func Subtract(a, b Value) (Value, error) {
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	return arithmetic("-", a, b, overflow.Sub64, func(x, y float64) float64 { return x - y })
}

func Multiply(a, b Value) (Value, error) {
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	return arithmetic("*", a, b, overflow.Mul64, func(x, y float64) float64 { return x * y })
}

// Divide truncates toward zero when both operands are Long.
func Divide(a, b Value) (Value, error) {
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	if a.typ == TypeLong && b.typ == TypeLong && b.l == 0 {
		return Void, ErrDivisionByZero(a)
	}
	return arithmetic("/", a, b, overflow.Div64, func(x, y float64) float64 { return x / y })
}

func arithmetic(op string, a, b Value, longOp func(int64, int64) (int64, bool), doubleOp func(float64, float64) float64) (Value, error) {
	if !a.typ.IsNumeric() || !b.typ.IsNumeric() {
		return Void, ErrIncompatibleOperands(op, a, b)
	}
	if a.typ == TypeLong && b.typ == TypeLong {
		r, ok := longOp(a.l, b.l)
		if !ok {
			return Void, ErrLongOverflow(op, a, b)
		}
		return NewLong(r), nil
	}
	x, _ := a.AsDouble()
	y, _ := b.AsDouble()
	return NewDouble(doubleOp(x, y)), nil
}

func Negate(v Value) (Value, error) {
	switch v.typ {
	case TypeVoid:
		return Void, nil
	case TypeLong:
		r, ok := overflow.Sub64(0, v.l)
		if !ok {
			return Void, ErrLongOverflow("-", NewLong(0), v)
		}
		return NewLong(r), nil
	case TypeDouble:
		return NewDouble(-v.d), nil
	default:
		return Void, ErrUnsupportedUnary("-", v)
	}
}

// =============================
// LOGIC
// =============================

func Not(v Value) (Value, error) {
	switch v.typ {
	case TypeVoid:
		return Void, nil
	case TypeBoolean:
		return NewBoolean(!v.b), nil
	default:
		return Void, ErrUnsupportedUnary("not", v)
	}
}

// And assumes the caller already short-circuited on a false left operand.
func And(a, b Value) (Value, error) {
	if err := checkLogical("and", a, b); err != nil {
		return Void, err
	}
	if a.IsFalse() || (a.IsTrue() && b.IsFalse()) {
		return False, nil
	}
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	return True, nil
}

// Or assumes the caller already short-circuited on a true left operand.
func Or(a, b Value) (Value, error) {
	if err := checkLogical("or", a, b); err != nil {
		return Void, err
	}
	if a.IsTrue() || (a.IsFalse() && b.IsTrue()) {
		return True, nil
	}
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	return False, nil
}

func checkLogical(op string, a, b Value) error {
	okA := a.typ == TypeBoolean || a.IsVoid()
	okB := b.typ == TypeBoolean || b.IsVoid()
	if !okA || !okB {
		return ErrIncompatibleOperands(op, a, b)
	}
	return nil
}

// =============================
// COMPARISON
// =============================

// Compatible reports whether two non-void values can be compared or combined.
func Compatible(a, b Value) bool {
	if a.typ == b.typ {
		return true
	}
	return a.typ.IsNumeric() && b.typ.IsNumeric()
}

// Compare orders two values. A Void operand is an error: ordering with nulls is unsound.
func Compare(a, b Value) (int, error) {
	return compare("compare", a, b)
}

func compare(op string, a, b Value) (int, error) {
	if a.IsVoid() || b.IsVoid() {
		return 0, ErrVoidInComparison(op, a, b)
	}
	if !Compatible(a, b) {
		return 0, ErrIncompatibleOperands(op, a, b)
	}
	return compareNonVoid(a, b), nil
}

// compareNonVoid expects compatible, non-void operands.
func compareNonVoid(a, b Value) int {
	switch {
	case a.typ == TypeLong && b.typ == TypeLong:
		return cmp3(a.l < b.l, a.l > b.l)
	case a.typ.IsNumeric():
		x, _ := a.AsDouble()
		y, _ := b.AsDouble()
		return cmp3(x < y, x > y)
	case a.typ == TypeString:
		return strings.Compare(a.s, b.s)
	case a.typ == TypeBoolean:
		return cmp3(!a.b && b.b, a.b && !b.b)
	default:
		return a.t.Compare(b.t)
	}
}

func cmp3(less, greater bool) int {
	if less {
		return -1
	}
	if greater {
		return 1
	}
	return 0
}

func Less(a, b Value) (Value, error)           { return ordered("<", a, b, func(c int) bool { return c < 0 }) }
func LessOrEqual(a, b Value) (Value, error)    { return ordered("<=", a, b, func(c int) bool { return c <= 0 }) }
func Greater(a, b Value) (Value, error)        { return ordered(">", a, b, func(c int) bool { return c > 0 }) }
func GreaterOrEqual(a, b Value) (Value, error) { return ordered(">=", a, b, func(c int) bool { return c >= 0 }) }

func ordered(op string, a, b Value, test func(int) bool) (Value, error) {
	c, err := compare(op, a, b)
	if err != nil {
		return Void, err
	}
	return NewBoolean(test(c)), nil
}

func Equal(a, b Value) (Value, error) {
	if a.IsVoid() || b.IsVoid() {
		return Void, nil
	}
	if !Compatible(a, b) {
		return Void, ErrIncompatibleOperands("==", a, b)
	}
	return NewBoolean(compareNonVoid(a, b) == 0), nil
}

func NotEqual(a, b Value) (Value, error) {
	eq, err := Equal(a, b)
	if err != nil || eq.IsVoid() {
		return eq, err
	}
	return NewBoolean(!eq.b), nil
}

// Same is null-aware equality used for membership tests and group keys: Void is
// never the same as anything, and incompatible types are simply different.
func Same(a, b Value) bool {
	if a.IsVoid() || b.IsVoid() || !Compatible(a, b) {
		return false
	}
	return compareNonVoid(a, b) == 0
}
