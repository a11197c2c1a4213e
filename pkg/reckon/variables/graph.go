package variables

import (
	"sort"
	"strings"
)

// ReferenceType selects direct or transitive references in dependency queries.
type ReferenceType int

const (
	// ReferenceExplicit limits a query to direct references.
	ReferenceExplicit ReferenceType = iota
	// ReferenceAll follows references transitively.
	ReferenceAll
)

// visitation states for the depth-first walks below.
const (
	white = iota // not visited
	gray         // on the current path
	black        // fully explored
)

// Dependencies returns the names the named variable reads, as declared by
// ReferencedNames. With ReferenceAll the walk continues through every
// registered dependency; names that are not registered are reported but not
// expanded. Order is depth-first discovery order and the start name is
// never included.
func Dependencies(r *Registry, name string, kind ReferenceType) ([]string, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	v, err := r.GetVariable(name)
	if err != nil {
		return nil, err
	}
	if kind == ReferenceExplicit {
		return v.ReferencedNames(), nil
	}

	seen := map[string]bool{name: true}
	var out []string
	var walk func(v Variable)
	walk = func(v Variable) {
		for _, ref := range v.ReferencedNames() {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			out = append(out, ref)
			if next, ok := r.TryGetVariable(ref); ok {
				walk(next)
			}
		}
	}
	walk(v)
	return out, nil
}

// Dependents returns the registered variables that read the named variable.
// With ReferenceAll the reverse walk is transitive. Order follows discovery,
// scanning the registry in insertion order at each step.
func Dependents(r *Registry, name string, kind ReferenceType) ([]string, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if _, err := r.GetVariable(name); err != nil {
		return nil, err
	}

	readers := make(map[string][]string, r.Len())
	for _, n := range r.order {
		for _, ref := range r.variables[n].ReferencedNames() {
			readers[ref] = append(readers[ref], n)
		}
	}

	if kind == ReferenceExplicit {
		return readers[name], nil
	}

	seen := map[string]bool{name: true}
	var out []string
	queue := []string{name}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range readers[cur] {
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out, nil
}

// DetectCycles finds every distinct cycle among the declared references of
// the registry. Each cycle lists its members once, rotated so the smallest
// name comes first; a->b->a is reported as [a b]. Cycles are sorted for
// deterministic output. Unregistered references are ignored.
func DetectCycles(r *Registry) [][]string {
	if r == nil {
		return nil
	}

	state := make(map[string]int, r.Len())
	path := make([]string, 0, r.Len())
	seen := make(map[string]struct{})
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		state[name] = gray
		path = append(path, name)

		for _, ref := range r.variables[name].ReferencedNames() {
			if _, ok := r.variables[ref]; !ok {
				continue
			}
			switch state[ref] {
			case white:
				visit(ref)
			case gray:
				idx := indexOf(path, ref)
				cycle := canonical(path[idx:])
				sig := strings.Join(cycle, ",")
				if _, dup := seen[sig]; !dup {
					seen[sig] = struct{}{}
					cycles = append(cycles, cycle)
				}
			}
		}

		path = path[:len(path)-1]
		state[name] = black
	}

	for _, name := range r.order {
		if state[name] == white {
			visit(name)
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], ",") < strings.Join(cycles[j], ",")
	})
	return cycles
}

// EvaluationOrder returns registered names ordered so that every variable
// follows the variables it declares as references. Roots are taken in
// registry order. A declared cycle yields a *VariableError wrapping
// ErrCircularReference with the offending path.
func EvaluationOrder(r *Registry) ([]string, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}

	state := make(map[string]int, r.Len())
	path := make([]string, 0, r.Len())
	order := make([]string, 0, r.Len())

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = gray
		path = append(path, name)

		for _, ref := range r.variables[name].ReferencedNames() {
			if _, ok := r.variables[ref]; !ok {
				continue
			}
			switch state[ref] {
			case white:
				if err := visit(ref); err != nil {
					return err
				}
			case gray:
				cycle := append(append([]string(nil), path[indexOf(path, ref):]...), ref)
				return &VariableError{Name: ref, Path: cycle, Err: ErrCircularReference}
			}
		}

		path = path[:len(path)-1]
		state[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range r.order {
		if state[name] == white {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func indexOf(path []string, name string) int {
	for i, n := range path {
		if n == name {
			return i
		}
	}
	return -1
}

// canonical rotates cycle so its smallest name comes first.
func canonical(cycle []string) []string {
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	out = append(out, cycle[:minIdx]...)
	return out
}
