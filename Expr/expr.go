package Expr

import (
	"fmt"
	"strings"

	"ecframe-go/value"
)

type unaryOperator int

const (
	Negate unaryOperator = iota + 1
	Not
	IsNull
	IsNotNull
)

type binaryOperator int

const (
	// arithmetic
	Addition       binaryOperator = 1
	Subtraction    binaryOperator = 2
	Multiplication binaryOperator = 3
	Division       binaryOperator = 4
	// comparison
	Equal              binaryOperator = 6
	NotEqual           binaryOperator = 7
	LessThan           binaryOperator = 8
	LessThanOrEqual    binaryOperator = 9
	GreaterThan        binaryOperator = 10
	GreaterThanOrEqual binaryOperator = 11
	// logical
	And binaryOperator = 12
	Or  binaryOperator = 13
	// RegEx expressions
	Like binaryOperator = 14 // name like 'Al%'
)

var (
	_ = (Expression)(&Literal{})
	_ = (Expression)(&VariableRef{})
	_ = (Expression)(&UnaryExpr{})
	_ = (Expression)(&BinaryExpr{})
	_ = (Expression)(&Conditional{})
	_ = (Expression)(&InList{})
	_ = (Expression)(&FunctionCall{})
	_ = (Expression)(&FunctionScript{})
)

/*
Eval(expr, ctx):

	match expr:
	    Literal(x)            -> x
	    VariableRef(name)     -> ctx lookup, unbound is an error
	    UnaryExpr(op x)       -> eval x, apply op (is null / is not null never propagate void)
	    BinaryExpr(l op r)    -> and/or may short-circuit, otherwise eval both and apply op
	    Conditional(c ? t : e)-> eval c, then only the chosen branch
	    InList(x in (...))    -> eval x once, candidates in order, void never matches
	    FunctionCall(f(args)) -> arity check, eval args, body in a child context
*/
type Expression interface {
	// empty method, only for the sake of polymorphism
	ExprNode()
	fmt.Stringer
}

// Parser is implemented outside this module. It turns expression text into a tree of the
// nodes below with literals already typed.
type Parser interface {
	Parse(text string) (Expression, error)
}

// sql: 1, 'hello', 3.14
type Literal struct {
	Value value.Value
}

func NewLiteral(v value.Value) *Literal {
	return &Literal{Value: v}
}
func (l *Literal) ExprNode() {}
func (l *Literal) String() string {
	return l.Value.StringLiteral()
}

// resolves a name against the evaluation context
type VariableRef struct {
	Name string
}

func NewVariableRef(name string) *VariableRef {
	return &VariableRef{Name: name}
}
func (v *VariableRef) ExprNode() {}
func (v *VariableRef) String() string {
	return v.Name
}

type UnaryExpr struct {
	Op      unaryOperator
	Operand Expression
}

func NewUnaryExpr(op unaryOperator, operand Expression) *UnaryExpr {
	return &UnaryExpr{Op: op, Operand: operand}
}
func (u *UnaryExpr) ExprNode() {}
func (u *UnaryExpr) String() string {
	switch u.Op {
	case Negate:
		return fmt.Sprintf("-%s", u.Operand)
	case Not:
		return fmt.Sprintf("not %s", u.Operand)
	case IsNull:
		return fmt.Sprintf("%s is null", u.Operand)
	case IsNotNull:
		return fmt.Sprintf("%s is not null", u.Operand)
	}
	return fmt.Sprintf("unary(%d, %s)", u.Op, u.Operand)
}

type BinaryExpr struct {
	Left  Expression
	Op    binaryOperator
	Right Expression
}

func NewBinaryExpr(left Expression, op binaryOperator, right Expression) *BinaryExpr {
	return &BinaryExpr{
		Left:  left,
		Op:    op,
		Right: right,
	}
}
func (b *BinaryExpr) ExprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (op binaryOperator) String() string {
	switch op {
	case Addition:
		return "+"
	case Subtraction:
		return "-"
	case Multiplication:
		return "*"
	case Division:
		return "/"
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	case And:
		return "and"
	case Or:
		return "or"
	case Like:
		return "like"
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// cond ? then : else
type Conditional struct {
	Cond Expression
	Then Expression
	Else Expression
}

func NewConditional(cond, then, els Expression) *Conditional {
	return &Conditional{Cond: cond, Then: then, Else: els}
}
func (c *Conditional) ExprNode() {}
func (c *Conditional) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", c.Cond, c.Then, c.Else)
}

// x in (a, b, c) / x not in (a, b, c)
type InList struct {
	Target     Expression
	Candidates []Expression
	Negated    bool
}

func NewInList(target Expression, negated bool, candidates ...Expression) *InList {
	return &InList{Target: target, Candidates: candidates, Negated: negated}
}
func (in *InList) ExprNode() {}
func (in *InList) String() string {
	op := "in"
	if in.Negated {
		op = "not in"
	}
	return fmt.Sprintf("%s %s (%s)", in.Target, op, joinExpressions(in.Candidates))
}

type FunctionCall struct {
	Name string
	Args []Expression
}

func NewFunctionCall(name string, args ...Expression) *FunctionCall {
	return &FunctionCall{Name: name, Args: args}
}
func (f *FunctionCall) ExprNode() {}
func (f *FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", f.Name, joinExpressions(f.Args))
}

// FunctionScript is a user defined function. Register it with a context to make it callable;
// evaluating the definition itself yields Void.
type FunctionScript struct {
	Name   string
	Params []string
	Body   Expression
}

func NewFunctionScript(name string, params []string, body Expression) *FunctionScript {
	return &FunctionScript{Name: name, Params: params, Body: body}
}
func (f *FunctionScript) ExprNode() {}
func (f *FunctionScript) String() string {
	return fmt.Sprintf("function %s(%s) { %s }", f.Name, strings.Join(f.Params, ", "), f.Body)
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// helpers for building trees by hand, mostly in tests
func Long(v int64) *Literal        { return NewLiteral(value.NewLong(v)) }
func Double(v float64) *Literal    { return NewLiteral(value.NewDouble(v)) }
func String(v string) *Literal     { return NewLiteral(value.NewString(v)) }
func Bool(v bool) *Literal         { return NewLiteral(value.NewBoolean(v)) }
func Void() *Literal               { return NewLiteral(value.Void) }
func Var(name string) *VariableRef { return NewVariableRef(name) }
