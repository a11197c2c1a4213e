package variables

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustConstant(t *testing.T, name string, value float64) *Constant {
	t.Helper()
	v, err := NewConstant(name, value)
	require.NoError(t, err)
	return v
}

func mustMutable(t *testing.T, name string, value float64) *Mutable {
	t.Helper()
	v, err := NewMutable(name, value)
	require.NoError(t, err)
	return v
}

func mustDelegate(t *testing.T, name string, fn ReaderFunc, refs ...string) *Delegate {
	t.Helper()
	v, err := NewDelegate(name, fn, refs...)
	require.NoError(t, err)
	return v
}

// reads returns a resolver that sums the named variables through the reader.
func reads(names ...string) ReaderFunc {
	return func(r Reader) (float64, error) {
		var sum float64
		for _, n := range names {
			v, err := r.GetValue(n)
			if err != nil {
				return 0, err
			}
			sum += v
		}
		return sum, nil
	}
}

// stubCompiled satisfies Compiled without the formula compiler.
type stubCompiled struct {
	fn    ReaderFunc
	names []string
}

func (s stubCompiled) Resolve(r Reader) (float64, error) { return s.fn(r) }
func (s stubCompiled) ReferencedNames() []string         { return s.names }

// within runs fn on another goroutine and fails the test if it has not
// returned after a few seconds.
func within(t *testing.T, fn func() error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("resolution did not return")
		return nil
	}
}

// valueWithin is within for a value read.
func valueWithin(t *testing.T, fn func() (float64, error)) (float64, error) {
	t.Helper()
	var v float64
	err := within(t, func() error {
		var err error
		v, err = fn()
		return err
	})
	return v, err
}
