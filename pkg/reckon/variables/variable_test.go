package variables

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameValidation(t *testing.T) {
	for _, name := range []string{"", " ", "\t\n"} {
		_, err := NewConstant(name, 1)
		assert.ErrorIs(t, err, ErrInvalidName)

		_, err = NewMutable(name, 1)
		assert.ErrorIs(t, err, ErrInvalidName)

		_, err = NewDelegate(name, reads())
		assert.ErrorIs(t, err, ErrInvalidName)

		_, err = NewLazyFunc(name, func() (float64, error) { return 1, nil }, false)
		assert.ErrorIs(t, err, ErrInvalidName)
	}
}

func TestNilResolvers(t *testing.T) {
	_, err := NewDelegate("a", nil)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewDelegateFunc("a", nil)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewDelegateCompiled("a", nil)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewLazy("a", nil, true)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewLazyFunc("a", nil, false)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewLazyCompiled("a", nil, false)
	assert.ErrorIs(t, err, ErrNilResolver)
}

func TestConstantIsInvariant(t *testing.T) {
	c := mustConstant(t, "pi", 3.14159)
	for i := 0; i < 100; i++ {
		v, err := c.Value()
		require.NoError(t, err)
		require.Equal(t, 3.14159, v)
	}
	assert.Nil(t, c.ReferencedNames())
}

func TestMutableSetValue(t *testing.T) {
	m := mustMutable(t, "x", 1)
	for _, want := range []float64{0, -2.5, 1e300, 42} {
		m.SetValue(want)
		v, err := m.Value()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestDelegateInvokedOnEveryRead(t *testing.T) {
	calls := 0
	d, err := NewDelegateFunc("d", func() (float64, error) {
		calls++
		return float64(calls), nil
	})
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		v, err := d.Value()
		require.NoError(t, err)
		assert.Equal(t, float64(i), v)
	}
	assert.Equal(t, 3, calls)
}

func TestDelegateErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	d, err := NewDelegateFunc("d", func() (float64, error) { return 0, boom })
	require.NoError(t, err)

	_, err = d.Value()
	assert.ErrorIs(t, err, boom)
}

func TestDelegateWithoutRegistry(t *testing.T) {
	d := mustDelegate(t, "d", reads("x"), "x")

	_, err := d.Value()
	require.ErrorIs(t, err, ErrNilRegistry)
	assert.Contains(t, err.Error(), "'x'")
}

func TestReferencedNamesAreDistinctCopies(t *testing.T) {
	d := mustDelegate(t, "d", reads("a", "b"), "a", "b", "a")

	names := d.ReferencedNames()
	assert.Equal(t, []string{"a", "b"}, names)

	names[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, d.ReferencedNames())
}

func TestReferencedVariables(t *testing.T) {
	d := mustDelegate(t, "d", reads("a", "b"), "a", "b")

	_, err := d.ReferencedVariables()
	require.ErrorIs(t, err, ErrNilRegistry)

	r := NewRegistry()
	a := mustConstant(t, "a", 1)
	require.NoError(t, r.AddVariables(a, d))

	_, err = d.ReferencedVariables()
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.EqualError(t, err, "the variable 'b' is not registered")

	b := mustConstant(t, "b", 2)
	require.NoError(t, r.AddVariable(b))

	refs, err := d.ReferencedVariables()
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Same(t, a, refs[0])
	assert.Same(t, b, refs[1])
}

func TestDelegateCompiled(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddVariable(mustConstant(t, "x", 4)))

	c := stubCompiled{fn: func(rd Reader) (float64, error) {
		x, err := rd.GetValue("x")
		return x * 5, err
	}, names: []string{"x"}}

	d, err := NewDelegateCompiled("d", c)
	require.NoError(t, err)
	require.NoError(t, r.AddVariable(d))

	v, err := r.GetValue("d")
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)
	assert.Equal(t, []string{"x"}, d.ReferencedNames())
}
