// Package variables holds named numeric values and the registry that
// resolves them.
//
// A Variable is one of four kinds:
//
//   - Constant: value fixed at construction.
//   - Mutable:  value replaced through SetValue.
//   - Delegate: value computed by a resolver on every read.
//   - Lazy:     value computed by a resolver once and cached until Reset.
//
// Resolvers that read other variables receive a Reader scoped to the
// variable's Registry. Every read through that Reader is tracked, so a
// resolver chain that comes back to a variable already being resolved
// fails with ErrCircularReference instead of recursing without bound.
// Resolvers that bypass the Reader and read the registry directly are caught
// too, once the cycle has gone round twice, and a thread-safe Lazy refuses to
// wait on a computation that is itself waiting on the caller.
//
// Registries and the non thread-safe variants are not safe for concurrent
// mutation. A Lazy created with threadSafe set computes its value exactly
// once even under concurrent first reads.
package variables

// Func produces a value without consulting other variables.
type Func func() (float64, error)

// ReaderFunc produces a value, possibly reading other variables through r.
type ReaderFunc func(r Reader) (float64, error)

// Reader is the read surface a resolver sees.
type Reader interface {
	GetValue(name string) (float64, error)
	ContainsVariable(name string) bool
}

// Compiled is a resolver together with the names it reads, as produced by
// formula compilation.
type Compiled interface {
	Resolve(r Reader) (float64, error)
	ReferencedNames() []string
}

// Variable is a named value. The set of implementations is closed: use
// NewConstant, NewMutable, NewDelegate or NewLazy.
type Variable interface {
	// Name is the identity key within a registry.
	Name() string

	// Value resolves the current value. Constant and Mutable never fail.
	Value() (float64, error)

	// ReferencedNames lists the names this variable reads directly.
	ReferencedNames() []string

	// Registry is the registry the variable was added to, or nil.
	Registry() *Registry

	// ReferencedVariables resolves ReferencedNames against Registry.
	ReferencedVariables() ([]Variable, error)

	resolve(s *scope) (float64, error)
	attach(r *Registry) error
	detach()
}

// base carries the state every variant shares.
type base struct {
	name       string
	references []string
	registry   *Registry

	// dynamic, when set, replaces references for variables whose inputs
	// are only known at read time.
	dynamic func() []string
}

func newBase(name string, references []string) (base, error) {
	if err := validateName(name); err != nil {
		return base{}, err
	}
	return base{name: name, references: distinct(references)}, nil
}

func (b *base) Name() string { return b.name }

func (b *base) refs() []string {
	if b.dynamic != nil {
		return b.dynamic()
	}
	return b.references
}

func (b *base) ReferencedNames() []string {
	refs := b.refs()
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	copy(out, refs)
	return out
}

func (b *base) Registry() *Registry { return b.registry }

func (b *base) ReferencedVariables() ([]Variable, error) {
	if b.registry == nil {
		return nil, newVariableError(b.name, ErrNilRegistry)
	}

	refs := b.refs()
	out := make([]Variable, 0, len(refs))
	for _, name := range refs {
		v, ok := b.registry.TryGetVariable(name)
		if !ok {
			return nil, newVariableError(name, ErrNotRegistered)
		}
		out = append(out, v)
	}
	return out, nil
}

func (b *base) attach(r *Registry) error {
	if b.registry != nil && b.registry != r {
		return newVariableError(b.name, ErrAlreadyAttached)
	}
	b.registry = r
	return nil
}

func (b *base) detach() { b.registry = nil }

// valueOf opens a resolution scope on the variable's own registry.
func valueOf(v Variable) (float64, error) {
	return newScope(v.Registry()).resolve(v)
}

func distinct(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func funcResolver(fn Func) ReaderFunc {
	return func(Reader) (float64, error) { return fn() }
}
