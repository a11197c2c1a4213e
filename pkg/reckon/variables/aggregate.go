package variables

// NewAggregate creates a delegate variable whose value is the sum of every
// resolver, evaluated in argument order on each read.
func NewAggregate(name string, resolvers ...Func) (*Delegate, error) {
	for _, fn := range resolvers {
		if fn == nil {
			return nil, ErrNilResolver
		}
	}

	fns := make([]Func, len(resolvers))
	copy(fns, resolvers)

	return NewDelegate(name, func(Reader) (float64, error) {
		var sum float64
		for _, fn := range fns {
			v, err := fn()
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum, nil
	})
}

// NewRegistryAggregate creates a delegate variable summing the named
// variables of r. Without names it sums every variable in r at read time,
// skipping the aggregate itself, so variables added later are included;
// ReferencedNames then reports the registry's other names at query time.
func NewRegistryAggregate(name string, r *Registry, names ...string) (*Delegate, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	for _, n := range names {
		if err := validateName(n); err != nil {
			return nil, err
		}
	}

	fixed := make([]string, len(names))
	copy(fixed, names)

	others := func() []string {
		out := make([]string, 0, r.Len())
		for _, n := range r.order {
			if n != name {
				out = append(out, n)
			}
		}
		return out
	}

	resolver := func(reader Reader) (float64, error) {
		// Read through the caller's chain when it belongs to r so cycles
		// that pass through the aggregate are still detected.
		src := Reader(r)
		if s, ok := reader.(*scope); ok && s.registry == r {
			src = s
		}

		targets := fixed
		if len(targets) == 0 {
			targets = others()
		}

		var sum float64
		for _, n := range targets {
			v, err := src.GetValue(n)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum, nil
	}

	d, err := NewDelegate(name, resolver, fixed...)
	if err != nil {
		return nil, err
	}
	if len(fixed) == 0 {
		d.dynamic = others
	}
	return d, nil
}
