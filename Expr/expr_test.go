package Expr

import (
	"errors"
	"testing"

	"ecframe-go/errs"
	"ecframe-go/value"
)

// a = 5, b = VOID, c = 2, s = 'abc'
func nullContext() *EvalContext {
	return NewEvalContext().
		SetVariable("a", value.NewLong(5)).
		SetVariable("b", value.Void).
		SetVariable("c", value.NewLong(2)).
		SetVariable("s", value.NewString("abc"))
}

// always fails when evaluated
func explode() Expression {
	return NewFunctionCall("noSuchFunction")
}

func mustEval(t *testing.T, e Expression, ctx Context) value.Value {
	t.Helper()
	v, err := EvalExpression(e, ctx)
	if err != nil {
		t.Fatalf("evaluating %s: unexpected error %v", e, err)
	}
	return v
}

func TestArithmeticWithVoid(t *testing.T) {
	ctx := nullContext()
	exprs := []Expression{
		// a + b
		NewBinaryExpr(Var("a"), Addition, Var("b")),
		// 2 + a + 1 - b * 7
		NewBinaryExpr(
			NewBinaryExpr(NewBinaryExpr(Long(2), Addition, Var("a")), Addition, Long(1)),
			Subtraction,
			NewBinaryExpr(Var("b"), Multiplication, Long(7)),
		),
		// a + (b - b) + 3
		NewBinaryExpr(NewBinaryExpr(Var("a"), Addition, NewBinaryExpr(Var("b"), Subtraction, Var("b"))), Addition, Long(3)),
		// s + b, b + 'X'
		NewBinaryExpr(Var("s"), Addition, Var("b")),
		NewBinaryExpr(Var("b"), Addition, String("X")),
		// -b
		NewUnaryExpr(Negate, Var("b")),
	}
	for _, e := range exprs {
		t.Run(e.String(), func(t *testing.T) {
			if v := mustEval(t, e, ctx); !v.IsVoid() {
				t.Fatalf("expected void, got %v", v)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	ctx := nullContext()
	// (a + c) * 3 - 1
	e := NewBinaryExpr(NewBinaryExpr(NewBinaryExpr(Var("a"), Addition, Var("c")), Multiplication, Long(3)), Subtraction, Long(1))
	if v := mustEval(t, e, ctx); v.Long() != 20 {
		t.Fatalf("expected 20, got %v", v)
	}
	e = NewBinaryExpr(Var("a"), Division, Double(2))
	if v := mustEval(t, e, ctx); v.Double() != 2.5 {
		t.Fatalf("expected 2.5, got %v", v)
	}
}

func TestOrderingComparisonWithVoidFails(t *testing.T) {
	_, err := EvalExpression(NewBinaryExpr(Var("a"), GreaterThan, Var("b")), nullContext())
	if !errors.Is(err, errs.ErrNullInComparison) {
		t.Fatalf("expected null-in-comparison error, got %v", err)
	}
	if errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("null comparison must be distinguishable from a type mismatch")
	}
}

func TestNullChecks(t *testing.T) {
	ctx := NewEvalContext().SetVariable("a", value.Void)
	in123 := NewInList(Var("a"), false, String("1"), String("2"), String("3"))

	// a is not null and a in ('1', '2', '3')
	e := NewBinaryExpr(NewUnaryExpr(IsNotNull, Var("a")), And, in123)
	if v := mustEval(t, e, ctx); !v.IsFalse() {
		t.Fatalf("expected false, got %v", v)
	}
	// a is null or a in ('1', '2', '3')
	e = NewBinaryExpr(NewUnaryExpr(IsNull, Var("a")), Or, in123)
	if v := mustEval(t, e, ctx); !v.IsTrue() {
		t.Fatalf("expected true, got %v", v)
	}
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	ctx := nullContext()
	if v := mustEval(t, NewBinaryExpr(Bool(false), And, explode()), ctx); !v.IsFalse() {
		t.Fatalf("false and x should be false, got %v", v)
	}
	if v := mustEval(t, NewBinaryExpr(Bool(true), Or, explode()), ctx); !v.IsTrue() {
		t.Fatalf("true or x should be true, got %v", v)
	}
	// void on the left cannot short-circuit
	v := mustEval(t, NewBinaryExpr(Void(), And, Bool(false)), ctx)
	if !v.IsVoid() {
		t.Fatalf("void and false should be void, got %v", v)
	}
}

func TestConditional(t *testing.T) {
	ctx := NewEvalContext().
		SetVariable("a", value.NewLong(5)).
		SetVariable("b", value.NewLong(2)).
		SetVariable("c", value.Void)
	aPlusB := NewBinaryExpr(Var("a"), Addition, Var("b"))

	cases := []struct {
		name string
		expr Expression
		want int64
	}{
		{"c is null ? a + b : a", NewConditional(NewUnaryExpr(IsNull, Var("c")), aPlusB, Var("a")), 7},
		{"c is not null ? a + b : a", NewConditional(NewUnaryExpr(IsNotNull, Var("c")), aPlusB, Var("a")), 5},
		{"a is not null ? a : a + b", NewConditional(NewUnaryExpr(IsNotNull, Var("a")), Var("a"), aPlusB), 5},
		{"untaken else never evaluated", NewConditional(Bool(true), Long(1), explode()), 1},
		{"untaken then never evaluated", NewConditional(Bool(false), explode(), Long(2)), 2},
		{"void condition takes else", NewConditional(Var("c"), explode(), Long(3)), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := mustEval(t, tc.expr, ctx)
			if v.Type() != value.TypeLong || v.Long() != tc.want {
				t.Fatalf("expected %d, got %v", tc.want, v)
			}
		})
	}

	_, err := EvalExpression(NewConditional(Long(1), Long(1), Long(2)), ctx)
	if !errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("non boolean condition should fail, got %v", err)
	}
}

func TestInListWithVoid(t *testing.T) {
	ctx := NewEvalContext().
		SetVariable("a", value.Void).
		SetVariable("b", value.Void)

	cases := []struct {
		name string
		expr Expression
		want bool
	}{
		{"void in list", NewInList(Var("b"), false, String("a"), String("b"), String("c")), false},
		{"void in list containing void", NewInList(Var("a"), false, String("a"), Var("b"), String("c")), false},
		{"void not in list containing void", NewInList(Var("a"), true, String("a"), Var("b"), String("c")), true},
		{"value in list with void", NewInList(String("foo"), false, String("a"), Var("b"), String("c")), false},
		{"value not in list with void", NewInList(String("foo"), true, String("a"), Var("b"), String("c")), true},
		{"value matches after void", NewInList(String("c"), false, String("a"), Var("b"), String("c")), true},
		{"value not in list matches", NewInList(String("c"), true, String("a"), Var("b"), String("c")), false},
		{"numeric promotion", NewInList(Long(2), false, Double(1.0), Double(2.0)), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := mustEval(t, tc.expr, ctx)
			if v.Type() != value.TypeBoolean || v.Bool() != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, v)
			}
		})
	}
}

func TestInListStopsOnFirstMatch(t *testing.T) {
	e := NewInList(Long(1), false, Long(1), explode())
	if v := mustEval(t, e, NewEvalContext()); !v.IsTrue() {
		t.Fatalf("expected true, got %v", v)
	}
	// not in has to look at every candidate
	_, err := EvalExpression(NewInList(Long(2), true, Long(1), explode()), NewEvalContext())
	if !errors.Is(err, errs.ErrUnboundReference) {
		t.Fatalf("expected the failing candidate to be evaluated, got %v", err)
	}
}

func TestUnboundReferences(t *testing.T) {
	_, err := EvalExpression(Var("missing"), NewEvalContext())
	if !errors.Is(err, errs.ErrUnboundReference) {
		t.Fatalf("expected unbound reference, got %v", err)
	}
	if name, _ := errs.ParamOf(err, "name"); name != "missing" {
		t.Fatalf("expected name param, got %v", name)
	}
	_, err = EvalExpression(explode(), NewEvalContext())
	if !errors.Is(err, errs.ErrUnboundReference) {
		t.Fatalf("expected unbound function, got %v", err)
	}
}

func TestFunctionScripts(t *testing.T) {
	// function area(x, y) { x * y + offset }
	area := NewFunctionScript("area", []string{"x", "y"},
		NewBinaryExpr(NewBinaryExpr(Var("x"), Multiplication, Var("y")), Addition, Var("offset")))

	ctx := NewEvalContext().
		AddFunction(area).
		SetVariable("x", value.NewLong(100)).
		SetVariable("offset", value.NewLong(1))

	t.Run("parameters shadow and parent is visible", func(t *testing.T) {
		v := mustEval(t, NewFunctionCall("area", Long(3), Long(4)), ctx)
		if v.Long() != 13 {
			t.Fatalf("expected 13, got %v", v)
		}
		// the caller's x is untouched
		if x, _ := ctx.Variable("x"); x.Long() != 100 {
			t.Fatalf("caller context was mutated: %v", x)
		}
	})
	t.Run("arguments are evaluated in the caller context", func(t *testing.T) {
		v := mustEval(t, NewFunctionCall("area", Var("x"), Long(2)), ctx)
		if v.Long() != 201 {
			t.Fatalf("expected 201, got %v", v)
		}
	})
	t.Run("arity", func(t *testing.T) {
		_, err := EvalExpression(NewFunctionCall("area", Long(3)), ctx)
		if !errors.Is(err, errs.ErrArityMismatch) {
			t.Fatalf("expected arity mismatch, got %v", err)
		}
		if actual, _ := errs.ParamOf(err, "actual"); actual != 1 {
			t.Fatalf("expected actual=1, got %v", actual)
		}
	})
	t.Run("definition evaluates to void", func(t *testing.T) {
		if v := mustEval(t, area, ctx); !v.IsVoid() {
			t.Fatalf("expected void, got %v", v)
		}
	})
	t.Run("user function shadows builtin", func(t *testing.T) {
		c := NewChildContext(ctx).AddFunction(NewFunctionScript("upper", []string{"v"}, String("mine")))
		if v := mustEval(t, NewFunctionCall("upper", String("x")), c); v.Text() != "mine" {
			t.Fatalf("expected user function to win, got %v", v)
		}
	})
}

func TestBuiltins(t *testing.T) {
	ctx := nullContext()
	cases := []struct {
		name string
		expr Expression
		want value.Value
	}{
		{"upper", NewFunctionCall("upper", Var("s")), value.NewString("ABC")},
		{"substr", NewFunctionCall("substr", String("abcdef"), Long(1), Long(3)), value.NewString("bc")},
		{"substr open end", NewFunctionCall("substr", String("abcdef"), Long(4)), value.NewString("ef")},
		{"substr void", NewFunctionCall("substr", Var("b"), Long(1), Long(10)), value.Void},
		{"length", NewFunctionCall("length", Var("s")), value.NewLong(3)},
		{"abs", NewFunctionCall("abs", Long(-4)), value.NewLong(4)},
		{"round", NewFunctionCall("round", Double(2.5)), value.NewLong(3)},
		{"toLong", NewFunctionCall("toLong", String(" 42 ")), value.NewLong(42)},
		{"toString", NewFunctionCall("toString", Double(10)), value.NewString("10.0")},
		{"coalesce", NewFunctionCall("coalesce", Var("b"), Var("a")), value.NewLong(5)},
		{"contains", NewFunctionCall("contains", Var("s"), String("bc")), value.True},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v := mustEval(t, tc.expr, ctx); v != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, v)
			}
		})
	}
	_, err := EvalExpression(NewFunctionCall("upper", Long(1)), ctx)
	if !errors.Is(err, errs.ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	_, err = EvalExpression(NewFunctionCall("upper"), ctx)
	if !errors.Is(err, errs.ErrArityMismatch) {
		t.Fatalf("expected arity mismatch, got %v", err)
	}
}

func TestLike(t *testing.T) {
	cases := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"Al%", "Alice", true},
		{"%ce", "Alice", true},
		{"A_ice", "Alice", true},
		{"A_ice", "Allice", false},
		{"a.c", "abc", false},
		{"%", "", true},
	}
	for _, tc := range cases {
		v := mustEval(t, NewBinaryExpr(String(tc.input), Like, String(tc.pattern)), NewEvalContext())
		if v.Bool() != tc.want {
			t.Errorf("%q like %q: expected %v, got %v", tc.input, tc.pattern, tc.want, v)
		}
	}
	if v := mustEval(t, NewBinaryExpr(Void(), Like, String("%")), NewEvalContext()); !v.IsVoid() {
		t.Errorf("void like pattern should be void, got %v", v)
	}
}

func TestString(t *testing.T) {
	e := NewConditional(
		NewInList(Var("x"), true, Long(1), String("a")),
		NewBinaryExpr(Var("x"), Multiplication, Long(2)),
		NewFunctionCall("abs", Var("x")),
	)
	want := "(x not in (1, 'a') ? (x * 2) : abs(x))"
	if e.String() != want {
		t.Fatalf("expected %q, got %q", want, e.String())
	}
}
