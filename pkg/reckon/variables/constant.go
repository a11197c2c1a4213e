package variables

// Constant holds a value fixed at construction.
type Constant struct {
	base
	value float64
}

// NewConstant creates a constant variable.
func NewConstant(name string, value float64) (*Constant, error) {
	b, err := newBase(name, nil)
	if err != nil {
		return nil, err
	}
	return &Constant{base: b, value: value}, nil
}

func (c *Constant) Value() (float64, error) { return c.value, nil }

func (c *Constant) resolve(*scope) (float64, error) { return c.value, nil }
