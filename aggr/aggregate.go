package aggr

import (
	"fmt"
	"strings"

	"ecframe-go/config"
	"ecframe-go/dataframe"
	"ecframe-go/value"

	"golang.org/x/sync/errgroup"
)

// AggregateFunction applies AggrFunc to one column. The result column keeps the source
// column's name unless an earlier column of the result already took it, in which case it is
// named like max(Price), then max(Price)_2 and so on for further repeats.
type AggregateFunction struct {
	AggrFunc AggrFunc
	Column   string
}

func NewAggregateFunction(aggrFunc AggrFunc, column string) AggregateFunction {
	return AggregateFunction{AggrFunc: aggrFunc, Column: column}
}

func Sum(column string) AggregateFunction   { return NewAggregateFunction(FuncSum, column) }
func Min(column string) AggregateFunction   { return NewAggregateFunction(FuncMin, column) }
func Max(column string) AggregateFunction   { return NewAggregateFunction(FuncMax, column) }
func Avg(column string) AggregateFunction   { return NewAggregateFunction(FuncAvg, column) }
func Count(column string) AggregateFunction { return NewAggregateFunction(FuncCount, column) }

func (a AggregateFunction) String() string {
	return fmt.Sprintf("%s(%s)", a.AggrFunc, a.Column)
}

// resultType is the type of the output column for a source of type typ.
func (a AggregateFunction) resultType(typ value.Type) value.Type {
	if a.AggrFunc == FuncCount {
		return value.TypeLong
	}
	return typ
}

// Engine runs aggregations over a frame. With parallel set every aggregate function is
// accumulated on its own goroutine, at most maxWorkers at a time.
type Engine struct {
	parallel   bool
	maxWorkers int
}

func NewEngine(parallel bool, maxWorkers int) *Engine {
	return &Engine{parallel: parallel, maxWorkers: max(maxWorkers, 1)}
}

// DefaultEngine is configured from config.GetConfig().
func DefaultEngine() *Engine {
	cfg := config.GetConfig().Engine
	return NewEngine(cfg.ParallelAggregation, cfg.MaxWorkers)
}

func Aggregate(df *dataframe.DataFrame, fns []AggregateFunction) (*dataframe.DataFrame, error) {
	return DefaultEngine().Aggregate(df, fns)
}

func AggregateBy(df *dataframe.DataFrame, fns []AggregateFunction, groupBy []string) (*dataframe.DataFrame, error) {
	return DefaultEngine().AggregateBy(df, fns, groupBy)
}

// SumOf sums every named column.
func SumOf(df *dataframe.DataFrame, columns []string) (*dataframe.DataFrame, error) {
	return Aggregate(df, sums(columns))
}

func SumBy(df *dataframe.DataFrame, columns []string, groupBy []string) (*dataframe.DataFrame, error) {
	return AggregateBy(df, sums(columns), groupBy)
}

func sums(columns []string) []AggregateFunction {
	fns := make([]AggregateFunction, len(columns))
	for i, c := range columns {
		fns[i] = Sum(c)
	}
	return fns
}

// Aggregate reduces the whole frame to a single row, even when the frame is empty.
func (e *Engine) Aggregate(df *dataframe.DataFrame, fns []AggregateFunction) (*dataframe.DataFrame, error) {
	return e.AggregateBy(df, fns, nil)
}

// AggregateBy returns one row per distinct group key, in the order keys are first seen.
// Group columns come first, then one column per aggregate function.
func (e *Engine) AggregateBy(df *dataframe.DataFrame, fns []AggregateFunction, groupBy []string) (*dataframe.DataFrame, error) {
	sources, err := resolveSources(df, fns)
	if err != nil {
		return nil, err
	}
	groups, err := partition(df, groupBy)
	if err != nil {
		return nil, err
	}

	// results[i][g] is the accumulator of function i for group g
	results := make([][]accumulator, len(fns))
	run := func(i int) error {
		accs, err := accumulate(fns[i], sources[i], groups)
		if err != nil {
			return err
		}
		results[i] = accs
		return nil
	}
	if e.parallel && len(fns) > 1 {
		var g errgroup.Group
		g.SetLimit(e.maxWorkers)
		for i := range fns {
			i := i
			g.Go(func() error { return run(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range fns {
			if err := run(i); err != nil {
				return nil, err
			}
		}
	}
	return buildResult(df, fns, sources, groups, results)
}

func resolveSources(df *dataframe.DataFrame, fns []AggregateFunction) ([]dataframe.Column, error) {
	sources := make([]dataframe.Column, len(fns))
	for i, fn := range fns {
		col, err := df.Column(fn.Column)
		if err != nil {
			return nil, err
		}
		if fn.AggrFunc != FuncCount && !col.Type().IsNumeric() {
			return nil, ErrUnsupportedAggregation(fn.AggrFunc, col)
		}
		sources[i] = col
	}
	return sources, nil
}

// grouping assigns every row of a frame to a group.
type grouping struct {
	columns []dataframe.Column
	rowKeys []int           // row -> group index
	keys    [][]value.Value // group index -> key tuple, first-seen order
}

func (g *grouping) size() int { return len(g.keys) }

func partition(df *dataframe.DataFrame, groupBy []string) (*grouping, error) {
	g := &grouping{
		columns: make([]dataframe.Column, len(groupBy)),
		rowKeys: make([]int, df.RowCount()),
	}
	for i, name := range groupBy {
		col, err := df.Column(name)
		if err != nil {
			return nil, err
		}
		g.columns[i] = col
	}
	if len(groupBy) == 0 {
		// a single group, present even when there are no rows
		g.keys = [][]value.Value{{}}
		return g, nil
	}
	index := make(map[string]int)
	for row := 0; row < df.RowCount(); row++ {
		tuple := make([]value.Value, len(g.columns))
		for i, col := range g.columns {
			v, err := col.Value(row)
			if err != nil {
				return nil, err
			}
			tuple[i] = v
		}
		key := encodeKey(tuple)
		idx, ok := index[key]
		if !ok {
			idx = len(g.keys)
			index[key] = idx
			g.keys = append(g.keys, tuple)
		}
		g.rowKeys[row] = idx
	}
	return g, nil
}

// encodeKey renders a tuple as type tag, length and text per value so that distinct tuples
// never collide. Void gets its own tag and compares equal to other Voids.
func encodeKey(tuple []value.Value) string {
	var sb strings.Builder
	for _, v := range tuple {
		s := v.Format()
		fmt.Fprintf(&sb, "%d:%d:%s|", v.Type(), len(s), s)
	}
	return sb.String()
}

func accumulate(fn AggregateFunction, col dataframe.Column, groups *grouping) ([]accumulator, error) {
	accs := make([]accumulator, groups.size())
	for i := range accs {
		accs[i] = newAccumulator(fn.AggrFunc, col.Name(), col.Type())
	}
	for row, g := range groups.rowKeys {
		v, err := col.Value(row)
		if err != nil {
			return nil, err
		}
		if v.IsVoid() {
			continue
		}
		if err := accs[g].Update(v); err != nil {
			return nil, err
		}
	}
	return accs, nil
}

func buildResult(df *dataframe.DataFrame, fns []AggregateFunction, sources []dataframe.Column, groups *grouping, results [][]accumulator) (*dataframe.DataFrame, error) {
	out := dataframe.New(df.Name())
	for _, col := range groups.columns {
		if _, err := out.AddStoredColumn(col.Name(), col.Type()); err != nil {
			return nil, err
		}
	}
	for i, fn := range fns {
		name := sources[i].Name()
		if out.HasColumn(name) {
			// a second function over the same column
			name = fn.String()
		}
		for n := 2; out.HasColumn(name); n++ {
			name = fmt.Sprintf("%s_%d", fn.String(), n)
		}
		if _, err := out.AddStoredColumn(name, fn.resultType(sources[i].Type())); err != nil {
			return nil, err
		}
	}
	row := make([]value.Value, 0, len(groups.columns)+len(fns))
	for g, key := range groups.keys {
		row = append(row[:0], key...)
		for i := range fns {
			row = append(row, results[i][g].Finalize())
		}
		if err := out.AddRowValues(row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Combine merges partial results produced by AggregateBy with the same fns and groupBy,
// then rolls them up. Averages cannot be combined from partials.
func (e *Engine) Combine(fns []AggregateFunction, groupBy []string, partials ...*dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if len(partials) == 0 {
		return nil, fmt.Errorf("combine needs at least one partial result")
	}
	for _, fn := range fns {
		if fn.AggrFunc == FuncAvg {
			return nil, ErrNotCombinable(fn.AggrFunc)
		}
	}
	if want := len(groupBy) + len(fns); partials[0].ColumnCount() != want {
		return nil, fmt.Errorf("partial result has %d columns, expected %d", partials[0].ColumnCount(), want)
	}
	// partial columns are the group keys followed by one column per function
	rollup := make([]AggregateFunction, len(fns))
	for i, fn := range fns {
		column := partials[0].ColumnAt(len(groupBy) + i).Name()
		if fn.AggrFunc == FuncSum || fn.AggrFunc == FuncCount {
			rollup[i] = Sum(column)
			continue
		}
		rollup[i] = NewAggregateFunction(fn.AggrFunc, column)
	}
	merged := partials[0]
	for _, p := range partials[1:] {
		var err error
		if merged, err = merged.Merge(p); err != nil {
			return nil, err
		}
	}
	return e.AggregateBy(merged, rollup, groupBy)
}
