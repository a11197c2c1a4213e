// Package reckon compiles infix formulas into resolvers that read named
// variables from a registry.
//
// # Overview
//
// A formula such as "(principal * rate) / 12" is compiled once into a
// Result. The Result knows which variables it reads and can be resolved
// any number of times against a variables.Registry, or used as the resolver
// of a Delegate or Lazy variable so that formulas build on each other.
//
// # Quick Start
//
//	package main
//
//	import (
//		"fmt"
//
//		"github.com/chosenoffset/reckon/pkg/reckon"
//		"github.com/chosenoffset/reckon/pkg/reckon/variables"
//	)
//
//	func main() {
//		compiler := reckon.NewCompiler()
//		monthly, _ := compiler.Compile("principal * rate / 12")
//
//		registry, _ := variables.NewRegistryBuilder().
//			AddMutable("principal", 1000).
//			AddConstant("rate", 0.06).
//			AddDelegateCompiled("interest", monthly).
//			Build()
//
//		v, _ := registry.GetValue("interest")
//		fmt.Println(v)
//	}
//
// # Grammar
//
// Formulas combine numbers (1, 2.5, .5, 1e-3), variable names
// ([A-Za-z_][A-Za-z0-9_.]*), parentheses and function calls with these
// operators, loosest first:
//
//	||
//	&&
//	== !=
//	< > <= >=
//	+ -
//	* / %
//	unary - + !
//	^            (right associative)
//
// Comparisons and logical operators yield 1 or 0; any non-zero value is
// true. Whitespace between tokens is ignored.
//
// # Functions
//
// Function names are case-insensitive. The built-ins are abs, acos, asin,
// atan, atan2, avg, cbrt, ceil, clamp, cos, cosh, exp, floor, if, ln, log,
// log10, log2, max, min, perc, pow, round, sign, sin, sinh, sqrt, sum, tan
// and tanh. if(cond, a, b) evaluates only the selected branch. Further
// functions are added with Compiler.RegisterFunction.
//
// # Cycles
//
// Compilation never looks at a registry, so a formula may name variables
// that do not exist yet. Circular references surface when a value is read:
// the registry tracks every resolution chain and fails with
// variables.ErrCircularReference instead of recursing without bound.
// variables.DetectCycles reports declared cycles ahead of time.
//
// # Resource Management
//
// Limits caps formula length, nesting depth and node count so untrusted
// formulas cannot exhaust the stack or memory during compilation.
package reckon
