package variables

import (
	"sync"
	"sync/atomic"
)

// Lazy computes its value on first read and caches it until Reset.
//
// When created thread-safe, concurrent first reads are serialised with a
// double-checked lock: the resolver runs once and every caller observes the
// same value. A resolver error is returned to the caller and not cached, so
// the next read tries again.
type Lazy struct {
	base
	resolver   ReaderFunc
	threadSafe bool

	mu     sync.Mutex
	owner  uint64 // goroutine holding mu for a computation; guarded by waits
	cached atomic.Bool
	value  float64
	guard  reentry
}

// NewLazy creates a lazy variable whose resolver reads other variables
// through the Reader it is given.
func NewLazy(name string, fn ReaderFunc, threadSafe bool, refs ...string) (*Lazy, error) {
	if fn == nil {
		return nil, ErrNilResolver
	}
	b, err := newBase(name, refs)
	if err != nil {
		return nil, err
	}
	return &Lazy{base: b, resolver: fn, threadSafe: threadSafe}, nil
}

// NewLazyFunc creates a lazy variable from a resolver that does not read
// other variables.
func NewLazyFunc(name string, fn Func, threadSafe bool) (*Lazy, error) {
	if fn == nil {
		return nil, ErrNilResolver
	}
	return NewLazy(name, funcResolver(fn), threadSafe)
}

// NewLazyCompiled creates a lazy variable from a compiled formula.
func NewLazyCompiled(name string, c Compiled, threadSafe bool) (*Lazy, error) {
	if c == nil {
		return nil, ErrNilResolver
	}
	return NewLazy(name, c.Resolve, threadSafe, c.ReferencedNames()...)
}

// ThreadSafe reports whether first computation is serialised.
func (l *Lazy) ThreadSafe() bool { return l.threadSafe }

// IsCached reports whether a value has been computed since the last Reset.
func (l *Lazy) IsCached() bool { return l.cached.Load() }

func (l *Lazy) Value() (float64, error) { return valueOf(l) }

// Reset drops the cached value; the next read invokes the resolver again.
func (l *Lazy) Reset() {
	if l.threadSafe {
		l.mu.Lock()
		defer l.mu.Unlock()
	}
	l.cached.Store(false)
}

func (l *Lazy) resolve(s *scope) (float64, error) {
	if l.cached.Load() {
		return l.value, nil
	}

	if !l.threadSafe {
		id, ok := l.guard.enter()
		if !ok {
			return 0, s.circular(l.name, []string{l.name, l.name})
		}
		defer l.guard.leave(id)
		return l.compute(s)
	}

	// A goroutine that already holds mu, directly or through a chain of
	// lazies other goroutines are computing, must not wait for it.
	ok, path := l.acquire(goid())
	if !ok {
		return 0, s.circular(l.name, path)
	}
	defer l.release()

	if l.cached.Load() {
		return l.value, nil
	}
	return l.compute(s)
}

func (l *Lazy) compute(s *scope) (float64, error) {
	v, err := l.resolver(s)
	if err != nil {
		return 0, err
	}
	l.value = v
	l.cached.Store(true)
	return v, nil
}
