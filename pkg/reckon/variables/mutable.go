package variables

// Mutable holds a value that may be replaced at any time.
type Mutable struct {
	base
	value float64
}

// NewMutable creates a mutable variable with an initial value.
func NewMutable(name string, value float64) (*Mutable, error) {
	b, err := newBase(name, nil)
	if err != nil {
		return nil, err
	}
	return &Mutable{base: b, value: value}, nil
}

func (m *Mutable) Value() (float64, error) { return m.value, nil }

// SetValue replaces the current value.
func (m *Mutable) SetValue(value float64) { m.value = value }

func (m *Mutable) resolve(*scope) (float64, error) { return m.value, nil }
