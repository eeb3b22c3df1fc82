package Expr

import (
	"math"
	"strconv"
	"strings"
	"time"

	"ecframe-go/value"
)

// Builtin is a function implemented in Go. MaxArgs < 0 means variadic.
type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int
	// NullAware builtins receive Void arguments; all others short-circuit to Void.
	NullAware bool
	Fn        func(args []value.Value) (value.Value, error)
}

func (b *Builtin) FunctionName() string { return b.Name }

var builtins = map[string]*Builtin{}

func registerBuiltin(b *Builtin) {
	builtins[b.Name] = b
}

// LookupBuiltin is for contexts that do not chain to an EvalContext.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

func init() {
	registerBuiltin(&Builtin{Name: "upper", MinArgs: 1, MaxArgs: 1, Fn: stringFn("upper", strings.ToUpper)})
	registerBuiltin(&Builtin{Name: "lower", MinArgs: 1, MaxArgs: 1, Fn: stringFn("lower", strings.ToLower)})
	registerBuiltin(&Builtin{Name: "trim", MinArgs: 1, MaxArgs: 1, Fn: stringFn("trim", strings.TrimSpace)})
	registerBuiltin(&Builtin{Name: "length", MinArgs: 1, MaxArgs: 1, Fn: lengthImpl})
	registerBuiltin(&Builtin{Name: "substr", MinArgs: 2, MaxArgs: 3, Fn: substrImpl})
	registerBuiltin(&Builtin{Name: "contains", MinArgs: 2, MaxArgs: 2, Fn: stringPredicate("contains", strings.Contains)})
	registerBuiltin(&Builtin{Name: "startsWith", MinArgs: 2, MaxArgs: 2, Fn: stringPredicate("startsWith", strings.HasPrefix)})
	registerBuiltin(&Builtin{Name: "abs", MinArgs: 1, MaxArgs: 1, Fn: absImpl})
	registerBuiltin(&Builtin{Name: "round", MinArgs: 1, MaxArgs: 1, Fn: roundImpl})
	registerBuiltin(&Builtin{Name: "toString", MinArgs: 1, MaxArgs: 1, Fn: toStringImpl})
	registerBuiltin(&Builtin{Name: "toLong", MinArgs: 1, MaxArgs: 1, Fn: toLongImpl})
	registerBuiltin(&Builtin{Name: "toDouble", MinArgs: 1, MaxArgs: 1, Fn: toDoubleImpl})
	registerBuiltin(&Builtin{Name: "toDate", MinArgs: 1, MaxArgs: 1, Fn: toDateImpl})
	registerBuiltin(&Builtin{Name: "coalesce", MinArgs: 1, MaxArgs: -1, NullAware: true, Fn: coalesceImpl})
}

func argType(fn string, v value.Value, want value.Type) error {
	if v.Type() != want {
		return ErrFunctionArgument(fn, v, want)
	}
	return nil
}

func stringFn(name string, f func(string) string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if err := argType(name, args[0], value.TypeString); err != nil {
			return value.Void, err
		}
		return value.NewString(f(args[0].Text())), nil
	}
}

func stringPredicate(name string, f func(string, string) bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		for _, a := range args {
			if err := argType(name, a, value.TypeString); err != nil {
				return value.Void, err
			}
		}
		return value.NewBoolean(f(args[0].Text(), args[1].Text())), nil
	}
}

func lengthImpl(args []value.Value) (value.Value, error) {
	if err := argType("length", args[0], value.TypeString); err != nil {
		return value.Void, err
	}
	return value.NewLong(int64(len([]rune(args[0].Text())))), nil
}

// substr(s, begin[, end]) with zero based, end exclusive indexes clamped to the string
func substrImpl(args []value.Value) (value.Value, error) {
	if err := argType("substr", args[0], value.TypeString); err != nil {
		return value.Void, err
	}
	runes := []rune(args[0].Text())
	bounds := []int64{0, int64(len(runes))}
	for i, a := range args[1:] {
		if err := argType("substr", a, value.TypeLong); err != nil {
			return value.Void, err
		}
		bounds[i] = min(max(a.Long(), 0), int64(len(runes)))
	}
	if bounds[0] >= bounds[1] {
		return value.NewString(""), nil
	}
	return value.NewString(string(runes[bounds[0]:bounds[1]])), nil
}

func absImpl(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type() {
	case value.TypeLong:
		if v.Long() < 0 {
			return value.Negate(v)
		}
		return v, nil
	case value.TypeDouble:
		return value.NewDouble(math.Abs(v.Double())), nil
	}
	return value.Void, ErrFunctionArgument("abs", v, value.TypeDouble)
}

func roundImpl(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type() {
	case value.TypeLong:
		return v, nil
	case value.TypeDouble:
		return value.NewLong(int64(math.Round(v.Double()))), nil
	}
	return value.Void, ErrFunctionArgument("round", v, value.TypeDouble)
}

func toStringImpl(args []value.Value) (value.Value, error) {
	return value.NewString(args[0].Format()), nil
}

func toLongImpl(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type() {
	case value.TypeLong:
		return v, nil
	case value.TypeDouble:
		return value.NewLong(int64(v.Double())), nil
	case value.TypeString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
		if err != nil {
			return value.Void, ErrConversion("toLong", v, err)
		}
		return value.NewLong(n), nil
	}
	return value.Void, ErrFunctionArgument("toLong", v, value.TypeString)
}

func toDoubleImpl(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type() {
	case value.TypeLong, value.TypeDouble:
		f, _ := v.AsDouble()
		return value.NewDouble(f), nil
	case value.TypeString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
		if err != nil {
			return value.Void, ErrConversion("toDouble", v, err)
		}
		return value.NewDouble(f), nil
	}
	return value.Void, ErrFunctionArgument("toDouble", v, value.TypeString)
}

func toDateImpl(args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type() {
	case value.TypeDate:
		return v, nil
	case value.TypeDateTime:
		return value.NewDate(v.Time()), nil
	case value.TypeString:
		t, err := time.Parse(value.DateLayout, strings.TrimSpace(v.Text()))
		if err != nil {
			return value.Void, ErrConversion("toDate", v, err)
		}
		return value.NewDate(t), nil
	}
	return value.Void, ErrFunctionArgument("toDate", v, value.TypeString)
}

func coalesceImpl(args []value.Value) (value.Value, error) {
	for _, a := range args {
		if !a.IsVoid() {
			return a, nil
		}
	}
	return value.Void, nil
}
