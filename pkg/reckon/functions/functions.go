// Package functions holds the table of named functions a formula may call.
//
// Names are case-insensitive. A Registry starts with the built-in math
// functions and accepts further registrations at runtime.
package functions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Variadic marks a function with no upper bound on its argument count.
const Variadic = -1

var (
	// ErrUnknownFunction is returned by Lookup-style callers when a name is not registered.
	ErrUnknownFunction = errors.New("functions: unknown function")

	// ErrDuplicateFunction is returned when a name is registered twice.
	ErrDuplicateFunction = errors.New("functions: function already registered")

	// ErrArgumentCount is returned when a call does not match a function's arity.
	ErrArgumentCount = errors.New("functions: wrong number of arguments")

	// ErrInvalidFunction is returned when a registration is malformed.
	ErrInvalidFunction = errors.New("functions: invalid function")
)

// Function is a named numeric function.
type Function struct {
	Name    string
	MinArgs int
	MaxArgs int // Variadic for no upper bound
	Call    func(args []float64) (float64, error)
}

// CheckArity reports whether n arguments are acceptable.
func (f Function) CheckArity(n int) error {
	if n < f.MinArgs || (f.MaxArgs != Variadic && n > f.MaxArgs) {
		return fmt.Errorf("%w for %s: got=%d, want=%s", ErrArgumentCount, f.Name, n, f.arity())
	}
	return nil
}

func (f Function) arity() string {
	switch {
	case f.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", f.MinArgs)
	case f.MinArgs == f.MaxArgs:
		return fmt.Sprintf("%d", f.MinArgs)
	default:
		return fmt.Sprintf("%d to %d", f.MinArgs, f.MaxArgs)
	}
}

// Registry is a concurrency-safe function table.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewRegistry creates a registry holding the built-in functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Function, len(builtins))}
	for _, f := range builtins {
		r.funcs[f.Name] = f
	}
	return r
}

// Register adds f. The name must be an identifier and not already taken,
// built-ins included.
func (r *Registry) Register(f Function) error {
	key := strings.ToLower(f.Name)
	if !isIdentifier(key) {
		return fmt.Errorf("%w: name %q", ErrInvalidFunction, f.Name)
	}
	if f.Call == nil {
		return fmt.Errorf("%w: %s has no implementation", ErrInvalidFunction, f.Name)
	}
	if f.MinArgs < 0 || (f.MaxArgs != Variadic && f.MaxArgs < f.MinArgs) {
		return fmt.Errorf("%w: %s has arity %d..%d", ErrInvalidFunction, f.Name, f.MinArgs, f.MaxArgs)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFunction, f.Name)
	}
	f.Name = key
	r.funcs[key] = f
	return nil
}

// Lookup finds a function by name, ignoring case.
func (r *Registry) Lookup(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[strings.ToLower(name)]
	return f, ok
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || ('a' <= c && c <= 'z'):
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}
