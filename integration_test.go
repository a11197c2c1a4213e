package integration

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/chosenoffset/reckon/pkg/reckon"
	"github.com/chosenoffset/reckon/pkg/reckon/config"
	"github.com/chosenoffset/reckon/pkg/reckon/functions"
	"github.com/chosenoffset/reckon/pkg/reckon/metrics"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

// TestIntegrationSuite exercises the compiler, the variable registry and the
// configuration layer together.
func TestIntegrationSuite(t *testing.T) {
	t.Run("BuilderRoundTrip", testBuilderRoundTrip)
	t.Run("ConfigToRegistry", testConfigToRegistry)
	t.Run("ConcurrentLazyFormula", testConcurrentLazyFormula)
	t.Run("ConcurrentCompilation", testConcurrentCompilation)
	t.Run("CircularReferences", testCircularReferences)
	t.Run("MetricCollection", testMetricCollection)
	t.Run("ErrorHandling", testErrorHandling)
}

// testBuilderRoundTrip queues one add per variant and checks every value
// after Build.
func testBuilderRoundTrip(t *testing.T) {
	compiler := reckon.NewCompiler()

	b := variables.NewRegistryBuilder().
		AddConstant("one", 1).
		AddMutable("two", 2).
		AddDelegateCompiled("three", mustCompile(t, compiler, "one + two")).
		AddLazyCompiled("six", mustCompile(t, compiler, "three * two"), false).
		AddAggregate("sum", "one", "two", "three", "six")
	require.Equal(t, 5, b.Len())

	r, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 5, r.Len())

	want := map[string]float64{"one": 1, "two": 2, "three": 3, "six": 6, "sum": 12}
	for name, v := range want {
		got, err := r.GetValue(name)
		require.NoError(t, err, name)
		assert.Equal(t, v, got, name)
	}

	require.NoError(t, r.SetValue("two", 5))
	v, err := r.GetValue("three")
	require.NoError(t, err)
	assert.Equal(t, 6.0, v, "delegates follow mutable inputs")

	v, err = r.GetValue("six")
	require.NoError(t, err)
	assert.Equal(t, 6.0, v, "lazy keeps its first value")

	err = r.SetValue("one", 10)
	assert.ErrorIs(t, err, variables.ErrImmutable)
}

func testConfigToRegistry(t *testing.T) {
	c, err := config.Parse([]byte(`
limits:
  max_formula_length: 128
variables:
  - name: price
    kind: mutable
    value: 250
  - name: quantity
    kind: mutable
    value: 4
  - name: tax
    kind: constant
    value: 0.2
  - name: subtotal
    kind: delegate
    formula: price * quantity
  - name: invoice
    kind: aggregate
    sum: [subtotal, vat]
  - name: vat
    kind: lazy
    formula: subtotal * tax
formulas:
  - name: discounted
    expression: if(invoice > 1000, invoice * 0.9, invoice)
`))
	require.NoError(t, err)

	compiler := c.NewCompiler()
	assert.Equal(t, 128, compiler.Limits().MaxFormulaLength)

	r, err := c.Registry(compiler)
	require.NoError(t, err)

	order, err := variables.EvaluationOrder(r)
	require.NoError(t, err)
	assert.Less(t, indexOf(order, "subtotal"), indexOf(order, "vat"))
	assert.Less(t, indexOf(order, "vat"), indexOf(order, "invoice"))

	formulas, err := c.CompileFormulas(compiler)
	require.NoError(t, err)
	require.Len(t, formulas, 1)

	v, err := formulas[0].Result.Resolve(r)
	require.NoError(t, err)
	assert.InDelta(t, 1080.0, v, 1e-9)

	dependents, err := variables.Dependents(r, "price", variables.ReferenceAll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"subtotal", "vat", "invoice"}, dependents)
}

// testConcurrentLazyFormula starts many first reads of a thread-safe lazy
// variable at once. The formula runs exactly once and every reader sees the
// same value.
func testConcurrentLazyFormula(t *testing.T) {
	var calls atomic.Int64
	compiler := reckon.NewCompiler()
	require.NoError(t, compiler.RegisterFunction(functions.Function{
		Name:    "slow",
		MinArgs: 1,
		MaxArgs: 1,
		Call: func(args []float64) (float64, error) {
			calls.Add(1)
			time.Sleep(20 * time.Millisecond)
			return args[0] * 3, nil
		},
	}))

	r, err := variables.NewRegistryBuilder().
		AddConstant("base", 14).
		AddLazyCompiled("expensive", mustCompile(t, compiler, "slow(base)"), true).
		Build()
	require.NoError(t, err)

	const readers = 32
	results := make([]float64, readers)
	var g errgroup.Group
	for i := 0; i < readers; i++ {
		g.Go(func() error {
			v, err := r.GetValue("expensive")
			results[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42.0, v)
	}
}

// testConcurrentCompilation shares one compiler between goroutines.
func testConcurrentCompilation(t *testing.T) {
	compiler := reckon.NewCompiler()

	var g errgroup.Group
	g.SetLimit(8)
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			r := variables.NewRegistry()
			x, err := variables.NewConstant("x", float64(i))
			if err != nil {
				return err
			}
			if err := r.AddVariable(x); err != nil {
				return err
			}
			v, err := compiler.Evaluate(fmt.Sprintf("x * 2 + %d", i), r)
			if err != nil {
				return err
			}
			if v != float64(3*i) {
				return fmt.Errorf("formula %d: got %v, want %v", i, v, 3*i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func testCircularReferences(t *testing.T) {
	compiler := reckon.NewCompiler()

	r, err := variables.NewRegistryBuilder().
		AddDelegateCompiled("a", mustCompile(t, compiler, "b + 1")).
		AddDelegateCompiled("b", mustCompile(t, compiler, "c * 2")).
		AddLazyCompiled("c", mustCompile(t, compiler, "a - 3"), true).
		AddConstant("d", 4).
		Build()
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b", "c"}}, variables.DetectCycles(r))

	_, err = variables.EvaluationOrder(r)
	assert.ErrorIs(t, err, variables.ErrCircularReference)

	done := make(chan error, 1)
	go func() {
		_, err := r.GetValue("b")
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, variables.ErrCircularReference)
		var verr *variables.VariableError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, []string{"b", "c", "a", "b"}, verr.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("circular resolution did not terminate")
	}

	v, err := r.GetValue("d")
	require.NoError(t, err)
	assert.Equal(t, 4.0, v, "unrelated variables still resolve")
}

func testMetricCollection(t *testing.T) {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	compiler := reckon.NewCompiler(reckon.WithMetrics(collector))

	res := mustCompile(t, compiler, "x / 2")
	_, err := compiler.Compile("1 +")
	require.Error(t, err)

	r := variables.NewRegistry()
	_, err = res.Resolve(r)
	require.Error(t, err)

	x, err := variables.NewMutable("x", 8)
	require.NoError(t, err)
	require.NoError(t, r.AddVariable(x))
	v, err := res.Resolve(r)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)

	stats := collector.Stats()
	assert.Equal(t, int64(1), stats.Compilations)
	assert.Equal(t, int64(1), stats.CompileErrors)
	assert.Equal(t, int64(2), stats.Evaluations)
	assert.Equal(t, int64(1), stats.EvaluationErrors)
}

func testErrorHandling(t *testing.T) {
	compiler := reckon.NewCompiler()

	tests := []struct {
		formula string
		want    error
	}{
		{"", reckon.ErrEmptyFormula},
		{"(1 + 2", reckon.ErrSyntax},
		{"nope(1)", reckon.ErrUnknownFunction},
		{"sqrt(1, 2)", reckon.ErrArgumentCount},
	}
	for _, tt := range tests {
		_, err := compiler.Compile(tt.formula)
		assert.ErrorIs(t, err, tt.want, tt.formula)

		var cerr *reckon.CompileError
		assert.True(t, errors.As(err, &cerr), tt.formula)
	}

	_, err := variables.NewRegistryBuilder().
		AddConstant("k", 1).
		AddMutable("k", 2).
		Build()
	assert.ErrorIs(t, err, variables.ErrAlreadyRegistered)

	_, err = compiler.Evaluate("ghost * 2", variables.NewRegistry())
	assert.ErrorIs(t, err, variables.ErrNotRegistered)
	assert.EqualError(t, err, "the variable 'ghost' is not registered")
}

func mustCompile(t *testing.T, c *reckon.Compiler, formula string) *reckon.Result {
	t.Helper()
	res, err := c.Compile(formula)
	require.NoError(t, err, formula)
	return res
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
