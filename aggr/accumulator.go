package aggr

import (
	"fmt"

	"ecframe-go/dataframe"
	"ecframe-go/errs"
	"ecframe-go/value"

	"github.com/JohnCGriffin/overflow"
)

var (
	ErrUnsupportedAggregation = func(fn AggrFunc, col dataframe.Column) error {
		return errs.New(errs.UnsupportedAggregation, "Cannot ${function} column ${columnName} of type ${columnType}").
			With("function", fn).
			With("columnName", col.Name()).
			With("columnType", col.Type())
	}
	ErrSumOverflow = func(column string) error {
		return errs.New(errs.Arithmetic, "Sum of column ${columnName} overflows a LONG").
			With("columnName", column)
	}
	ErrNotCombinable = func(fn AggrFunc) error {
		return errs.New(errs.UnsupportedAggregation, "Partial ${function} results cannot be combined").
			With("function", fn)
	}
)

// AggrFunc represents the type of aggregation function to be performed.
type AggrFunc int

const (
	FuncMin AggrFunc = iota
	FuncMax
	FuncCount
	FuncSum
	FuncAvg
)

func (f AggrFunc) String() string {
	switch f {
	case FuncMin:
		return "min"
	case FuncMax:
		return "max"
	case FuncCount:
		return "count"
	case FuncSum:
		return "sum"
	case FuncAvg:
		return "avg"
	}
	return fmt.Sprintf("aggr(%d)", int(f))
}

var (
	_ = (accumulator)(&minMaxAccumulator{})
	_ = (accumulator)(&countAccumulator{})
	_ = (accumulator)(&sumAccumulator{})
	_ = (accumulator)(&avgAccumulator{})
)

// accumulator only ever sees non-void values.
type accumulator interface {
	Update(v value.Value) error
	Finalize() value.Value
}

func newAccumulator(fn AggrFunc, column string, typ value.Type) accumulator {
	switch fn {
	case FuncMin:
		return &minMaxAccumulator{keep: func(c int) bool { return c < 0 }}
	case FuncMax:
		return &minMaxAccumulator{keep: func(c int) bool { return c > 0 }}
	case FuncCount:
		return &countAccumulator{}
	case FuncSum:
		return &sumAccumulator{column: column, typ: typ}
	default:
		return &avgAccumulator{sumAccumulator: sumAccumulator{column: column, typ: typ}}
	}
}

type minMaxAccumulator struct {
	keep func(cmp int) bool
	best value.Value
}

func (m *minMaxAccumulator) Update(v value.Value) error {
	if m.best.IsVoid() {
		m.best = v
		return nil
	}
	c, err := value.Compare(v, m.best)
	if err != nil {
		return err
	}
	if m.keep(c) {
		m.best = v
	}
	return nil
}

// Void when nothing was seen
func (m *minMaxAccumulator) Finalize() value.Value { return m.best }

type countAccumulator struct {
	count int64
}

func (c *countAccumulator) Update(_ value.Value) error {
	c.count++
	return nil
}
func (c *countAccumulator) Finalize() value.Value { return value.NewLong(c.count) }

// sumAccumulator keeps a Long total for Long columns and a Double total otherwise.
type sumAccumulator struct {
	column string
	typ    value.Type
	long   int64
	double float64
}

func (s *sumAccumulator) Update(v value.Value) error {
	if s.typ == value.TypeLong {
		total, ok := overflow.Add64(s.long, v.Long())
		if !ok {
			return ErrSumOverflow(s.column)
		}
		s.long = total
		return nil
	}
	f, _ := v.AsDouble()
	s.double += f
	return nil
}

// zero of the column type when nothing was seen
func (s *sumAccumulator) Finalize() value.Value {
	if s.typ == value.TypeLong {
		return value.NewLong(s.long)
	}
	return value.NewDouble(s.double)
}

type avgAccumulator struct {
	sumAccumulator
	count int64
}

func (a *avgAccumulator) Update(v value.Value) error {
	if err := a.sumAccumulator.Update(v); err != nil {
		return err
	}
	a.count++
	return nil
}

// Long columns use integer division, truncating toward zero.
func (a *avgAccumulator) Finalize() value.Value {
	if a.count == 0 {
		return value.Void
	}
	if a.typ == value.TypeLong {
		return value.NewLong(a.long / a.count)
	}
	return value.NewDouble(a.double / float64(a.count))
}
