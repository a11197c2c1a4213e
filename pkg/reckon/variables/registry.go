package variables

import (
	"iter"
	"log/slog"
)

// DefaultMaxDepth bounds how many variables one resolution chain may pass
// through before ErrResolutionDepth is returned.
const DefaultMaxDepth = 256

// Option configures a Registry.
type Option func(*Registry)

// WithMaxDepth sets the resolution depth limit. Values below one are ignored.
func WithMaxDepth(depth int) Option {
	return func(r *Registry) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithLogger sets the logger used to report circular references.
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry maps variable names to variables in insertion order. Names are
// case-sensitive. The registry owns its variables; each variable keeps a
// back-reference to the registry it was added to.
type Registry struct {
	variables map[string]Variable
	order     []string
	maxDepth  int
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		variables: make(map[string]Variable),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddVariable registers v and sets its registry back-reference.
//
// Errors:
//   - ErrNilVariable        if v is nil.
//   - ErrAlreadyRegistered  if a variable with the same name is present.
//   - ErrAlreadyAttached    if v belongs to another registry.
func (r *Registry) AddVariable(v Variable) error {
	if v == nil {
		return ErrNilVariable
	}

	name := v.Name()
	if _, exists := r.variables[name]; exists {
		return newVariableError(name, ErrAlreadyRegistered)
	}
	if err := v.attach(r); err != nil {
		return err
	}

	r.variables[name] = v
	r.order = append(r.order, name)
	return nil
}

// AddVariables registers each variable in order and stops at the first error.
// Variables added before the failure stay registered.
func (r *Registry) AddVariables(vs ...Variable) error {
	for _, v := range vs {
		if err := r.AddVariable(v); err != nil {
			return err
		}
	}
	return nil
}

// GetValue resolves the named variable.
func (r *Registry) GetValue(name string) (float64, error) {
	return newScope(r).GetValue(name)
}

// SetValue replaces the value of a Mutable variable.
func (r *Registry) SetValue(name string, value float64) error {
	v, err := r.GetVariable(name)
	if err != nil {
		return err
	}

	m, ok := v.(*Mutable)
	if !ok {
		return newVariableError(name, ErrImmutable)
	}
	m.SetValue(value)
	return nil
}

// TryGetVariable returns the named variable and whether it was found.
func (r *Registry) TryGetVariable(name string) (Variable, bool) {
	v, ok := r.variables[name]
	return v, ok
}

// GetVariable returns the named variable or a not-registered error.
func (r *Registry) GetVariable(name string) (Variable, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	v, ok := r.variables[name]
	if !ok {
		return nil, newVariableError(name, ErrNotRegistered)
	}
	return v, nil
}

// ContainsVariable reports whether name is registered.
func (r *Registry) ContainsVariable(name string) bool {
	_, ok := r.variables[name]
	return ok
}

// Len returns the number of registered variables.
func (r *Registry) Len() int { return len(r.order) }

// Clear removes every variable and detaches each from this registry, so
// they may be added to another one.
func (r *Registry) Clear() {
	for _, name := range r.order {
		r.variables[name].detach()
	}
	r.variables = make(map[string]Variable)
	r.order = nil
}

// All iterates (name, variable) pairs in insertion order.
func (r *Registry) All() iter.Seq2[string, Variable] {
	return func(yield func(string, Variable) bool) {
		for _, name := range r.order {
			if !yield(name, r.variables[name]) {
				return
			}
		}
	}
}

// Variables returns the registered variables in insertion order.
func (r *Registry) Variables() []Variable {
	out := make([]Variable, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.variables[name])
	}
	return out
}

// Names returns the registered names in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) depthLimit() int {
	if r == nil || r.maxDepth < 1 {
		return DefaultMaxDepth
	}
	return r.maxDepth
}

func (r *Registry) log() *slog.Logger {
	if r == nil || r.logger == nil {
		return discardLogger
	}
	return r.logger
}

var discardLogger = slog.New(slog.DiscardHandler)
