package reckon

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chosenoffset/reckon/pkg/reckon/functions"
	"github.com/chosenoffset/reckon/pkg/reckon/metrics"
	"github.com/chosenoffset/reckon/pkg/reckon/parser"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

// Compiler turns formula text into reusable resolvers. It is safe for
// concurrent use.
type Compiler struct {
	mu        sync.RWMutex
	limits    Limits
	functions *functions.Registry
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLimits replaces DefaultLimits.
func WithLimits(limits Limits) Option {
	return func(c *Compiler) { c.limits = limits }
}

// WithLogger sets the logger that reports compiled and rejected formulas.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records compile and evaluation outcomes on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Compiler) { c.metrics = collector }
}

// WithFunctions replaces the built-in function table. Registrations made on
// fns after the compiler is created are visible to later compilations.
func WithFunctions(fns *functions.Registry) Option {
	return func(c *Compiler) {
		if fns != nil {
			c.functions = fns
		}
	}
}

// NewCompiler creates a compiler with the built-in functions and DefaultLimits.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		limits:    DefaultLimits(),
		functions: functions.NewRegistry(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLimits replaces the limits used by later compilations.
func (c *Compiler) SetLimits(limits Limits) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limits = limits
}

// Limits returns the current limits.
func (c *Compiler) Limits() Limits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.limits
}

// Functions returns the function table consulted by Compile.
func (c *Compiler) Functions() *functions.Registry { return c.functions }

// RegisterFunction adds a custom function to the compiler's table.
func (c *Compiler) RegisterFunction(f functions.Function) error {
	return c.functions.Register(f)
}

// Compile parses formula and folds it into a Result. Variable names in the
// formula are placeholders until the Result is resolved against a registry,
// so no registry is needed here and cycles are not checked.
func (c *Compiler) Compile(formula string) (*Result, error) {
	start := time.Now()
	result, err := c.compile(formula)
	elapsed := time.Since(start)
	c.metrics.ObserveCompile(elapsed, err)

	if err != nil {
		c.logger.Debug("formula rejected",
			slog.String("formula", formula),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.Debug("formula compiled",
		slog.String("formula", formula),
		slog.Any("references", result.names),
		slog.Int("nodes", result.nodes),
		slog.Duration("elapsed", elapsed))
	return result, nil
}

// Evaluate compiles formula and resolves it against r in one step.
func (c *Compiler) Evaluate(formula string, r variables.Reader) (float64, error) {
	result, err := c.Compile(formula)
	if err != nil {
		return 0, err
	}
	return result.Resolve(r)
}

func (c *Compiler) compile(formula string) (*Result, error) {
	limits := c.Limits()

	if strings.TrimSpace(formula) == "" {
		return nil, &CompileError{Formula: formula, Err: ErrEmptyFormula}
	}
	if limits.MaxFormulaLength > 0 && len(formula) > limits.MaxFormulaLength {
		return nil, &CompileError{
			Formula:  formula,
			Position: limits.MaxFormulaLength,
			Message:  fmt.Sprintf("formula length %d exceeds limit (%d)", len(formula), limits.MaxFormulaLength),
			Err:      ErrLimitExceeded,
		}
	}

	p := parser.New(parser.NewLexer(formula))
	p.SetMaxDepth(limits.MaxNestingDepth)
	exp := p.ParseFormula()
	if errs := p.Errors(); len(errs) > 0 {
		first := errs[0]
		kind := ErrSyntax
		if first.Kind == parser.KindDepth {
			kind = ErrLimitExceeded
		}
		return nil, &CompileError{
			Formula:  formula,
			Position: first.Position,
			Literal:  first.Literal,
			Message:  first.Message,
			Err:      kind,
		}
	}

	nodes := parser.CountNodes(exp)
	if limits.MaxFormulaComplexity > 0 && nodes > limits.MaxFormulaComplexity {
		return nil, &CompileError{
			Formula:  formula,
			Message:  fmt.Sprintf("formula complexity %d exceeds limit (%d)", nodes, limits.MaxFormulaComplexity),
			Err:      ErrLimitExceeded,
		}
	}

	f := &folder{formula: formula, functions: c.functions, seen: make(map[string]struct{})}
	n, err := f.fold(exp)
	if err != nil {
		return nil, err
	}

	return &Result{
		formula:  formula,
		canon:    exp.String(),
		resolver: n.eval,
		names:    f.names,
		nodes:    nodes,
		metrics:  c.metrics,
	}, nil
}
