package variables

import "fmt"

// Factory constructs a variable for the registry being built. The registry
// is the one the variable will be added to, so factories may capture it to
// reach siblings declared later. Resolvers should still prefer the Reader
// they are handed: reads through the captured registry start a new chain,
// and a cycle along them is only caught when it comes round a second time.
type Factory func(r *Registry) (Variable, error)

// RegistryBuilder queues variable declarations and materialises them into a
// fresh Registry on Build.
//
// Names and resolvers are validated when each Add method is called. The
// first failure is recorded at that call, reported by Err, and causes every
// later Add and every Build to be a no-op returning that error.
type RegistryBuilder struct {
	steps []Factory
	opts  []Option
	err   error
}

// NewRegistryBuilder creates an empty builder. opts are applied to every
// registry it builds.
func NewRegistryBuilder(opts ...Option) *RegistryBuilder {
	return &RegistryBuilder{opts: opts}
}

// Err returns the first validation failure, if any.
func (b *RegistryBuilder) Err() error { return b.err }

// Len returns the number of queued declarations.
func (b *RegistryBuilder) Len() int { return len(b.steps) }

func (b *RegistryBuilder) queue(name string, nilResolver bool, f Factory) *RegistryBuilder {
	if b.err != nil {
		return b
	}
	if err := validateName(name); err != nil {
		b.err = fmt.Errorf("builder: declaration %d: %w", len(b.steps)+1, err)
		return b
	}
	if nilResolver {
		b.err = fmt.Errorf("builder: variable '%s': %w", name, ErrNilResolver)
		return b
	}
	b.steps = append(b.steps, f)
	return b
}

// AddConstant queues a Constant.
func (b *RegistryBuilder) AddConstant(name string, value float64) *RegistryBuilder {
	return b.queue(name, false, func(*Registry) (Variable, error) {
		return NewConstant(name, value)
	})
}

// AddMutable queues a Mutable with an initial value.
func (b *RegistryBuilder) AddMutable(name string, value float64) *RegistryBuilder {
	return b.queue(name, false, func(*Registry) (Variable, error) {
		return NewMutable(name, value)
	})
}

// AddDelegate queues a registry-aware Delegate.
func (b *RegistryBuilder) AddDelegate(name string, fn ReaderFunc, refs ...string) *RegistryBuilder {
	return b.queue(name, fn == nil, func(*Registry) (Variable, error) {
		return NewDelegate(name, fn, refs...)
	})
}

// AddDelegateFunc queues a Delegate that reads no other variables.
func (b *RegistryBuilder) AddDelegateFunc(name string, fn Func) *RegistryBuilder {
	return b.queue(name, fn == nil, func(*Registry) (Variable, error) {
		return NewDelegateFunc(name, fn)
	})
}

// AddDelegateCompiled queues a Delegate backed by a compiled formula.
func (b *RegistryBuilder) AddDelegateCompiled(name string, c Compiled) *RegistryBuilder {
	return b.queue(name, c == nil, func(*Registry) (Variable, error) {
		return NewDelegateCompiled(name, c)
	})
}

// AddLazy queues a registry-aware Lazy.
func (b *RegistryBuilder) AddLazy(name string, fn ReaderFunc, threadSafe bool, refs ...string) *RegistryBuilder {
	return b.queue(name, fn == nil, func(*Registry) (Variable, error) {
		return NewLazy(name, fn, threadSafe, refs...)
	})
}

// AddLazyFunc queues a Lazy that reads no other variables.
func (b *RegistryBuilder) AddLazyFunc(name string, fn Func, threadSafe bool) *RegistryBuilder {
	return b.queue(name, fn == nil, func(*Registry) (Variable, error) {
		return NewLazyFunc(name, fn, threadSafe)
	})
}

// AddLazyCompiled queues a Lazy backed by a compiled formula.
func (b *RegistryBuilder) AddLazyCompiled(name string, c Compiled, threadSafe bool) *RegistryBuilder {
	return b.queue(name, c == nil, func(*Registry) (Variable, error) {
		return NewLazyCompiled(name, c, threadSafe)
	})
}

// AddAggregate queues an aggregate over the registry being built. Without
// names it sums every other variable in that registry.
func (b *RegistryBuilder) AddAggregate(name string, names ...string) *RegistryBuilder {
	for _, n := range names {
		if err := validateName(n); err != nil && b.err == nil {
			b.err = fmt.Errorf("builder: aggregate '%s': %w", name, err)
		}
	}
	return b.queue(name, false, func(r *Registry) (Variable, error) {
		return NewRegistryAggregate(name, r, names...)
	})
}

// Add queues an arbitrary factory. name is validated now and must match the
// name of the variable the factory returns.
func (b *RegistryBuilder) Add(name string, f Factory) *RegistryBuilder {
	return b.queue(name, f == nil, func(r *Registry) (Variable, error) {
		v, err := f(r)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, ErrNilVariable
		}
		if v.Name() != name {
			return nil, fmt.Errorf("builder: factory for '%s' returned variable '%s'", name, v.Name())
		}
		return v, nil
	})
}

// Build creates a new Registry and applies the queued declarations in the
// order they were added. Each call yields an independent registry with its
// own variable instances.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}

	r := NewRegistry(b.opts...)
	for _, step := range b.steps {
		v, err := step(r)
		if err != nil {
			return nil, err
		}
		if err := r.AddVariable(v); err != nil {
			return nil, err
		}
	}
	return r, nil
}
