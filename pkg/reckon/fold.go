package reckon

import (
	"fmt"
	"math"

	"github.com/chosenoffset/reckon/pkg/reckon/functions"
	"github.com/chosenoffset/reckon/pkg/reckon/parser"
	"github.com/chosenoffset/reckon/pkg/reckon/variables"
)

type evalFn func(r variables.Reader) (float64, error)

// node is a folded sub-tree. constant is set when the sub-tree reads no
// variables and calls no functions, so it was evaluated at compile time.
type node struct {
	eval     evalFn
	constant bool
}

var prefixOps = map[string]func(float64) float64{
	"-": func(x float64) float64 { return -x },
	"+": func(x float64) float64 { return x },
	"!": func(x float64) float64 { return truth(x == 0) },
}

var infixOps = map[string]func(a, b float64) float64{
	"+":  func(a, b float64) float64 { return a + b },
	"-":  func(a, b float64) float64 { return a - b },
	"*":  func(a, b float64) float64 { return a * b },
	"/":  func(a, b float64) float64 { return a / b },
	"%":  math.Mod,
	"^":  math.Pow,
	"==": func(a, b float64) float64 { return truth(a == b) },
	"!=": func(a, b float64) float64 { return truth(a != b) },
	"<":  func(a, b float64) float64 { return truth(a < b) },
	">":  func(a, b float64) float64 { return truth(a > b) },
	"<=": func(a, b float64) float64 { return truth(a <= b) },
	">=": func(a, b float64) float64 { return truth(a >= b) },
}

// folder turns a parsed formula into a single resolver, collecting the
// variable names it reads along the way.
type folder struct {
	formula   string
	functions *functions.Registry
	names     []string
	seen      map[string]struct{}
}

func (f *folder) fold(exp parser.Expression) (node, error) {
	switch n := exp.(type) {
	case *parser.NumberLiteral:
		return constant(n.Value), nil

	case *parser.Identifier:
		return f.identifier(n.Value), nil

	case *parser.PrefixExpression:
		op, ok := prefixOps[n.Operator]
		if !ok {
			return node{}, f.errorAt(n.Token, fmt.Sprintf("unknown operator %q", n.Operator), ErrSyntax)
		}
		right, err := f.fold(n.Right)
		if err != nil {
			return node{}, err
		}
		return reduce(func(r variables.Reader) (float64, error) {
			v, err := right.eval(r)
			if err != nil {
				return 0, err
			}
			return op(v), nil
		}, right.constant), nil

	case *parser.InfixExpression:
		return f.infix(n)

	case *parser.CallExpression:
		return f.call(n)

	default:
		return node{}, &CompileError{
			Formula: f.formula,
			Message: fmt.Sprintf("unsupported expression %T", exp),
			Err:     ErrSyntax,
		}
	}
}

func (f *folder) identifier(name string) node {
	if _, ok := f.seen[name]; !ok {
		f.seen[name] = struct{}{}
		f.names = append(f.names, name)
	}

	return node{eval: func(r variables.Reader) (float64, error) {
		if r == nil {
			return 0, &variables.VariableError{Name: name, Err: variables.ErrNilRegistry}
		}
		return r.GetValue(name)
	}}
}

func (f *folder) infix(n *parser.InfixExpression) (node, error) {
	left, err := f.fold(n.Left)
	if err != nil {
		return node{}, err
	}
	right, err := f.fold(n.Right)
	if err != nil {
		return node{}, err
	}
	bothConstant := left.constant && right.constant

	switch n.Operator {
	case "&&":
		return reduce(func(r variables.Reader) (float64, error) {
			a, err := left.eval(r)
			if err != nil || a == 0 {
				return 0, err
			}
			b, err := right.eval(r)
			if err != nil {
				return 0, err
			}
			return truth(b != 0), nil
		}, bothConstant), nil

	case "||":
		return reduce(func(r variables.Reader) (float64, error) {
			a, err := left.eval(r)
			if err != nil {
				return 0, err
			}
			if a != 0 {
				return 1, nil
			}
			b, err := right.eval(r)
			if err != nil {
				return 0, err
			}
			return truth(b != 0), nil
		}, bothConstant), nil
	}

	op, ok := infixOps[n.Operator]
	if !ok {
		return node{}, f.errorAt(n.Token, fmt.Sprintf("unknown operator %q", n.Operator), ErrSyntax)
	}
	return reduce(func(r variables.Reader) (float64, error) {
		a, err := left.eval(r)
		if err != nil {
			return 0, err
		}
		b, err := right.eval(r)
		if err != nil {
			return 0, err
		}
		return op(a, b), nil
	}, bothConstant), nil
}

func (f *folder) call(n *parser.CallExpression) (node, error) {
	name := n.Function.Value
	fn, ok := f.functions.Lookup(name)
	if !ok {
		return node{}, f.errorAt(n.Function.Token, fmt.Sprintf("unknown function %q", name), ErrUnknownFunction)
	}
	if err := fn.CheckArity(len(n.Arguments)); err != nil {
		return node{}, f.errorAt(n.Function.Token, "", err)
	}

	args := make([]evalFn, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		arg, err := f.fold(a)
		if err != nil {
			return node{}, err
		}
		args = append(args, arg.eval)
	}

	if fn.Name == functions.If {
		cond, then, otherwise := args[0], args[1], args[2]
		return node{eval: func(r variables.Reader) (float64, error) {
			c, err := cond(r)
			if err != nil {
				return 0, err
			}
			if c != 0 {
				return then(r)
			}
			return otherwise(r)
		}}, nil
	}

	call := fn.Call
	return node{eval: func(r variables.Reader) (float64, error) {
		values := make([]float64, len(args))
		for i, arg := range args {
			v, err := arg(r)
			if err != nil {
				return 0, err
			}
			values[i] = v
		}
		return call(values)
	}}, nil
}

func (f *folder) errorAt(tok parser.Token, msg string, err error) *CompileError {
	return &CompileError{
		Formula:  f.formula,
		Position: tok.Position,
		Literal:  tok.Literal,
		Message:  msg,
		Err:      err,
	}
}

func constant(v float64) node {
	return node{
		eval:     func(variables.Reader) (float64, error) { return v, nil },
		constant: true,
	}
}

// reduce evaluates fn now when its inputs are all constants.
func reduce(fn evalFn, isConstant bool) node {
	if isConstant {
		if v, err := fn(nil); err == nil {
			return constant(v)
		}
	}
	return node{eval: fn}
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
