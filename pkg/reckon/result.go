package reckon

import (
	"github.com/chosenoffset/reckon/pkg/reckon/metrics"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

// Result is a compiled formula. It is immutable and safe to resolve from
// several goroutines, provided the registries it reads are.
type Result struct {
	formula  string
	canon    string
	resolver evalFn
	names    []string
	nodes    int
	metrics  *metrics.Collector
}

var _ variables.Compiled = (*Result)(nil)

// Formula returns the source text.
func (r *Result) Formula() string { return r.formula }

// String returns the fully parenthesised form of the formula.
func (r *Result) String() string { return r.canon }

// Complexity returns the number of AST nodes in the formula.
func (r *Result) Complexity() int { return r.nodes }

// ReferencedNames returns the distinct variable names the formula reads
// directly, in order of first appearance.
func (r *Result) ReferencedNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Resolve evaluates the formula. Variable references are read from reader;
// a formula without references may be resolved with a nil reader.
func (r *Result) Resolve(reader variables.Reader) (float64, error) {
	v, err := r.resolver(reader)
	r.metrics.ObserveEvaluation(err)
	return v, err
}

// Resolver returns Resolve as a registry-aware resolver, ready to back a
// Delegate or Lazy variable.
func (r *Result) Resolver() variables.ReaderFunc { return r.Resolve }
