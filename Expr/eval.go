package Expr

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"ecframe-go/errs"
	"ecframe-go/value"
)

var (
	ErrUnsupportedExpression = func(info string) error {
		return fmt.Errorf("unsupported expression passed to EvalExpression: %s", info)
	}
	ErrUnboundVariable = func(name string) error {
		return errs.New(errs.UnboundReference, "Unknown variable: ${name}").With("name", name)
	}
	ErrUnboundFunction = func(name string) error {
		return errs.New(errs.UnboundReference, "Unknown function: ${name}").With("name", name)
	}
	ErrWrongArity = func(name string, expected string, actual int) error {
		return errs.New(errs.ArityMismatch, "Function ${name} expects ${expected} arguments, got ${actual}").
			With("name", name).
			With("expected", expected).
			With("actual", actual)
	}
	ErrFunctionArgument = func(name string, v value.Value, want value.Type) error {
		return errs.New(errs.TypeMismatch, "Function ${name} expects ${expectedType}, got ${valueType}: ${value}").
			With("name", name).
			With("expectedType", want).
			With("valueType", v.Type()).
			With("value", v.StringLiteral())
	}
	ErrConversion = func(name string, v value.Value, cause error) error {
		return errs.New(errs.TypeMismatch, "Function ${name} cannot convert ${value}: ${cause}").
			With("name", name).
			With("value", v.StringLiteral()).
			With("cause", cause)
	}
	ErrNonBooleanCondition = func(cond Expression, v value.Value) error {
		return errs.New(errs.TypeMismatch, "Condition ${condition} evaluated to ${valueType}, expected BOOLEAN").
			With("condition", cond.String()).
			With("valueType", v.Type())
	}
)

// EvalExpression walks the tree against ctx. Evaluation has no side effects.
func EvalExpression(expr Expression, ctx Context) (value.Value, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil
	case *VariableRef:
		return EvalVariable(e, ctx)
	case *UnaryExpr:
		return EvalUnary(e, ctx)
	case *BinaryExpr:
		return EvalBinary(e, ctx)
	case *Conditional:
		return EvalConditional(e, ctx)
	case *InList:
		return EvalInList(e, ctx)
	case *FunctionCall:
		return EvalFunctionCall(e, ctx)
	case *FunctionScript:
		return value.Void, nil
	default:
		return value.Void, ErrUnsupportedExpression(fmt.Sprintf("%v", expr))
	}
}

func EvalVariable(v *VariableRef, ctx Context) (value.Value, error) {
	val, ok := ctx.Variable(v.Name)
	if !ok {
		return value.Void, ErrUnboundVariable(v.Name)
	}
	return val, nil
}

func EvalUnary(u *UnaryExpr, ctx Context) (value.Value, error) {
	operand, err := EvalExpression(u.Operand, ctx)
	if err != nil {
		return value.Void, err
	}
	switch u.Op {
	case Negate:
		return value.Negate(operand)
	case Not:
		return value.Not(operand)
	case IsNull:
		return value.NewBoolean(operand.IsVoid()), nil
	case IsNotNull:
		return value.NewBoolean(!operand.IsVoid()), nil
	}
	return value.Void, fmt.Errorf("unary operator %d not supported", u.Op)
}

func EvalBinary(b *BinaryExpr, ctx Context) (value.Value, error) {
	left, err := EvalExpression(b.Left, ctx)
	if err != nil {
		return value.Void, err
	}
	// short-circuit before touching the right operand
	switch {
	case b.Op == And && left.IsFalse():
		return value.False, nil
	case b.Op == Or && left.IsTrue():
		return value.True, nil
	}
	right, err := EvalExpression(b.Right, ctx)
	if err != nil {
		return value.Void, err
	}
	switch b.Op {
	// arithmetic
	case Addition:
		return value.Add(left, right)
	case Subtraction:
		return value.Subtract(left, right)
	case Multiplication:
		return value.Multiply(left, right)
	case Division:
		return value.Divide(left, right)
	// comparisons
	case Equal:
		return value.Equal(left, right)
	case NotEqual:
		return value.NotEqual(left, right)
	case LessThan:
		return value.Less(left, right)
	case LessThanOrEqual:
		return value.LessOrEqual(left, right)
	case GreaterThan:
		return value.Greater(left, right)
	case GreaterThanOrEqual:
		return value.GreaterOrEqual(left, right)
	// logical
	case And:
		return value.And(left, right)
	case Or:
		return value.Or(left, right)
	case Like:
		return evalLike(left, right)
	}
	return value.Void, fmt.Errorf("binary operator %d not supported", b.Op)
}

// EvalConditional only evaluates the branch that is taken.
func EvalConditional(c *Conditional, ctx Context) (value.Value, error) {
	cond, err := EvalExpression(c.Cond, ctx)
	if err != nil {
		return value.Void, err
	}
	if !cond.IsVoid() && cond.Type() != value.TypeBoolean {
		return value.Void, ErrNonBooleanCondition(c.Cond, cond)
	}
	if cond.IsTrue() {
		return EvalExpression(c.Then, ctx)
	}
	return EvalExpression(c.Else, ctx)
}

// EvalInList never matches a void target or a void candidate.
func EvalInList(in *InList, ctx Context) (value.Value, error) {
	target, err := EvalExpression(in.Target, ctx)
	if err != nil {
		return value.Void, err
	}
	if target.IsVoid() {
		return value.NewBoolean(in.Negated), nil
	}
	for _, c := range in.Candidates {
		candidate, err := EvalExpression(c, ctx)
		if err != nil {
			return value.Void, err
		}
		if value.Same(target, candidate) {
			return value.NewBoolean(!in.Negated), nil
		}
	}
	return value.NewBoolean(in.Negated), nil
}

func EvalFunctionCall(call *FunctionCall, ctx Context) (value.Value, error) {
	fn, ok := ctx.Function(call.Name)
	if !ok {
		return value.Void, ErrUnboundFunction(call.Name)
	}
	switch f := fn.(type) {
	case *FunctionScript:
		if len(call.Args) != len(f.Params) {
			return value.Void, ErrWrongArity(f.Name, fmt.Sprint(len(f.Params)), len(call.Args))
		}
		args, err := evalArgs(call.Args, ctx)
		if err != nil {
			return value.Void, err
		}
		local := NewChildContext(ctx)
		for i, p := range f.Params {
			local.SetVariable(p, args[i])
		}
		return EvalExpression(f.Body, local)
	case *Builtin:
		if len(call.Args) < f.MinArgs || (f.MaxArgs >= 0 && len(call.Args) > f.MaxArgs) {
			return value.Void, ErrWrongArity(f.Name, arityString(f), len(call.Args))
		}
		args, err := evalArgs(call.Args, ctx)
		if err != nil {
			return value.Void, err
		}
		if !f.NullAware {
			for _, a := range args {
				if a.IsVoid() {
					return value.Void, nil
				}
			}
		}
		return f.Fn(args)
	}
	return value.Void, ErrUnboundFunction(call.Name)
}

func evalArgs(exprs []Expression, ctx Context) ([]value.Value, error) {
	args := make([]value.Value, len(exprs))
	for i, a := range exprs {
		v, err := EvalExpression(a, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func arityString(b *Builtin) string {
	switch {
	case b.MaxArgs < 0:
		return fmt.Sprintf("at least %d", b.MinArgs)
	case b.MinArgs == b.MaxArgs:
		return fmt.Sprint(b.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", b.MinArgs, b.MaxArgs)
	}
}

func evalLike(left, right value.Value) (value.Value, error) {
	if left.IsVoid() || right.IsVoid() {
		return value.Void, nil
	}
	if left.Type() != value.TypeString || right.Type() != value.TypeString {
		return value.Void, value.ErrIncompatibleOperands("like", left, right)
	}
	re, err := regexp.Compile(compileSqlRegEx(right.Text()))
	if err != nil {
		return value.Void, err
	}
	return value.NewBoolean(re.MatchString(left.Text())), nil
}

func compileSqlRegEx(s string) string {
	var buf bytes.Buffer

	// Track anchoring rules
	startsWithWildcard := len(s) > 0 && s[0] == '%'
	endsWithWildcard := len(s) > 0 && s[len(s)-1] == '%'

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '_':
			buf.WriteString(".")
		case '%':
			buf.WriteString(".*")
		default:
			// Escape regex meta chars
			if strings.ContainsRune(`.^$|()[]*+?{}\`, rune(s[i])) {
				buf.WriteByte('\\')
			}
			buf.WriteByte(s[i])
		}
	}

	regex := buf.String()
	if !startsWithWildcard {
		regex = "^" + regex
	}
	if !endsWithWildcard {
		regex = regex + "$"
	}
	return regex
}
