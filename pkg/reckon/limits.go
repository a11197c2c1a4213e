package reckon

import "github.com/chosenoffset/reckon/pkg/reckon/parser"

// Limits bounds the formulas a Compiler accepts.
type Limits struct {
	MaxFormulaLength     int // Maximum formula size in bytes, zero for no limit
	MaxNestingDepth      int // Maximum expression nesting, zero for the parser default
	MaxFormulaComplexity int // Maximum AST nodes per formula, zero for no limit
}

// DefaultLimits returns reasonable default limits
func DefaultLimits() Limits {
	return Limits{
		MaxFormulaLength:     4096,
		MaxNestingDepth:      parser.DefaultMaxDepth,
		MaxFormulaComplexity: 1000,
	}
}
