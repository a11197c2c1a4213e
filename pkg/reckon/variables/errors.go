package variables

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidName is returned when a variable name is empty or only whitespace.
	ErrInvalidName = errors.New("variables: name cannot be empty or whitespace")

	// ErrNilVariable is returned when a nil Variable is added to a registry.
	ErrNilVariable = errors.New("variables: variable is nil")

	// ErrNilResolver is returned when a variable is constructed without a resolver.
	ErrNilResolver = errors.New("variables: resolver is nil")

	// ErrNilRegistry is returned when an operation needs a registry and none is available.
	ErrNilRegistry = errors.New("variables: registry is nil")

	// ErrAlreadyRegistered indicates a name clash on AddVariable.
	ErrAlreadyRegistered = errors.New("variables: variable already registered")

	// ErrNotRegistered indicates a lookup of a name the registry does not hold.
	ErrNotRegistered = errors.New("variables: variable not registered")

	// ErrImmutable indicates SetValue on a variable that is not a *Mutable.
	ErrImmutable = errors.New("variables: variable is not mutable")

	// ErrAlreadyAttached indicates a variable already belongs to another registry.
	ErrAlreadyAttached = errors.New("variables: variable already attached to a registry")

	// ErrCircularReference indicates that resolving a variable required its own value.
	ErrCircularReference = errors.New("variables: circular reference")

	// ErrResolutionDepth indicates that the resolution chain exceeded the registry depth limit.
	ErrResolutionDepth = errors.New("variables: resolution depth exceeded")
)

// VariableError ties one of the sentinel errors above to the variable it
// concerns. Path is set for circular references and lists the resolution
// chain, starting and ending with the same name.
type VariableError struct {
	Name string
	Path []string
	Err  error
}

func (e *VariableError) Error() string {
	switch {
	case errors.Is(e.Err, ErrAlreadyRegistered):
		return fmt.Sprintf("the variable '%s' is already registered", e.Name)
	case errors.Is(e.Err, ErrNotRegistered):
		return fmt.Sprintf("the variable '%s' is not registered", e.Name)
	case errors.Is(e.Err, ErrImmutable):
		return fmt.Sprintf("the variable '%s' is not mutable", e.Name)
	case errors.Is(e.Err, ErrAlreadyAttached):
		return fmt.Sprintf("the variable '%s' is already attached to a registry", e.Name)
	case errors.Is(e.Err, ErrNilRegistry):
		return fmt.Sprintf("the variable '%s' cannot be resolved without a registry", e.Name)
	case errors.Is(e.Err, ErrCircularReference):
		return fmt.Sprintf("circular reference detected resolving '%s': %s", e.Name, strings.Join(e.Path, " -> "))
	case errors.Is(e.Err, ErrResolutionDepth):
		return fmt.Sprintf("resolving '%s' exceeded the maximum depth (%d)", e.Name, len(e.Path))
	default:
		return fmt.Sprintf("variable '%s': %v", e.Name, e.Err)
	}
}

func (e *VariableError) Unwrap() error { return e.Err }

func newVariableError(name string, err error) *VariableError {
	return &VariableError{Name: name, Err: err}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}
