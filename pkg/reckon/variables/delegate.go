package variables

// Delegate computes its value by invoking a resolver on every read.
type Delegate struct {
	base
	resolver ReaderFunc
	guard    reentry
}

// NewDelegate creates a delegate variable whose resolver reads other
// variables through the Reader it is given. refs declares the names the
// resolver reads; it feeds ReferencedNames and dependency analysis only.
func NewDelegate(name string, fn ReaderFunc, refs ...string) (*Delegate, error) {
	if fn == nil {
		return nil, ErrNilResolver
	}
	b, err := newBase(name, refs)
	if err != nil {
		return nil, err
	}
	return &Delegate{base: b, resolver: fn}, nil
}

// NewDelegateFunc creates a delegate variable from a resolver that does not
// read other variables.
func NewDelegateFunc(name string, fn Func) (*Delegate, error) {
	if fn == nil {
		return nil, ErrNilResolver
	}
	return NewDelegate(name, funcResolver(fn))
}

// NewDelegateCompiled creates a delegate variable from a compiled formula.
func NewDelegateCompiled(name string, c Compiled) (*Delegate, error) {
	if c == nil {
		return nil, ErrNilResolver
	}
	return NewDelegate(name, c.Resolve, c.ReferencedNames()...)
}

func (d *Delegate) Value() (float64, error) { return valueOf(d) }

func (d *Delegate) resolve(s *scope) (float64, error) {
	id, ok := d.guard.enter()
	if !ok {
		return 0, s.circular(d.name, []string{d.name, d.name})
	}
	defer d.guard.leave(id)
	return d.resolver(s)
}
