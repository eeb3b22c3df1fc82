package Expr

import (
	"ecframe-go/value"
)

var (
	_ = (Context)(&EvalContext{})
)

// Context resolves names during evaluation.
type Context interface {
	Variable(name string) (value.Value, bool)
	Function(name string) (Function, bool)
}

// Function is either a *FunctionScript or a *Builtin.
type Function interface {
	FunctionName() string
}

func (f *FunctionScript) FunctionName() string { return f.Name }

// EvalContext is a map backed context layered over an optional parent. Lookups that miss
// locally fall through to the parent, and finally to the built-in functions.
type EvalContext struct {
	parent    Context
	variables map[string]value.Value
	functions map[string]*FunctionScript
}

func NewEvalContext() *EvalContext {
	return NewChildContext(nil)
}

func NewChildContext(parent Context) *EvalContext {
	return &EvalContext{
		parent:    parent,
		variables: make(map[string]value.Value),
		functions: make(map[string]*FunctionScript),
	}
}

func (c *EvalContext) SetVariable(name string, v value.Value) *EvalContext {
	c.variables[name] = v
	return c
}

func (c *EvalContext) AddFunction(f *FunctionScript) *EvalContext {
	c.functions[f.Name] = f
	return c
}

func (c *EvalContext) Variable(name string) (value.Value, bool) {
	if v, ok := c.variables[name]; ok {
		return v, true
	}
	if c.parent != nil {
		return c.parent.Variable(name)
	}
	return value.Void, false
}

func (c *EvalContext) Function(name string) (Function, bool) {
	if f, ok := c.functions[name]; ok {
		return f, true
	}
	if c.parent != nil {
		return c.parent.Function(name)
	}
	if b, ok := builtins[name]; ok {
		return b, true
	}
	return nil, false
}
