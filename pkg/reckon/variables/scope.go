package variables

import "log/slog"

// scope tracks one resolution chain. It is created per top-level read and
// handed to resolvers as their Reader, so each goroutine reading a registry
// has its own chain.
type scope struct {
	registry *Registry
	stack    []string
}

func newScope(r *Registry) *scope {
	return &scope{registry: r}
}

func (s *scope) GetValue(name string) (float64, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	if s.registry == nil {
		return 0, newVariableError(name, ErrNilRegistry)
	}

	v, ok := s.registry.variables[name]
	if !ok {
		return 0, newVariableError(name, ErrNotRegistered)
	}
	return s.resolve(v)
}

func (s *scope) ContainsVariable(name string) bool {
	if s.registry == nil {
		return false
	}
	return s.registry.ContainsVariable(name)
}

// resolve pushes v onto the chain and resolves it. The cycle check runs
// before the variant resolves, so a thread-safe Lazy never re-enters its
// own lock on the same chain.
func (s *scope) resolve(v Variable) (float64, error) {
	name := v.Name()

	for i, n := range s.stack {
		if n == name {
			path := make([]string, 0, len(s.stack)-i+1)
			path = append(path, s.stack[i:]...)
			path = append(path, name)
			return 0, s.circular(name, path)
		}
	}

	if limit := s.registry.depthLimit(); len(s.stack) >= limit {
		path := append(append([]string(nil), s.stack...), name)
		return 0, &VariableError{Name: name, Path: path, Err: ErrResolutionDepth}
	}

	s.stack = append(s.stack, name)
	defer func() { s.stack = s.stack[:len(s.stack)-1] }()

	return v.resolve(s)
}

func (s *scope) circular(name string, path []string) error {
	s.registry.log().Warn("circular variable reference",
		slog.String("variable", name),
		slog.Any("path", path))
	return &VariableError{Name: name, Path: path, Err: ErrCircularReference}
}
