package reckon

import (
	"errors"
	"fmt"

	"github.com/chosenoffset/reckon/pkg/reckon/functions"
)

var (
	// ErrEmptyFormula is returned for formulas that are empty or only whitespace.
	ErrEmptyFormula = errors.New("reckon: formula is empty")

	// ErrSyntax is returned for malformed formulas: unknown tokens,
	// unbalanced parentheses, misplaced operators.
	ErrSyntax = errors.New("reckon: syntax error")

	// ErrLimitExceeded is returned when a formula is longer, deeper or larger
	// than the compiler's Limits allow.
	ErrLimitExceeded = errors.New("reckon: formula exceeds limits")

	// ErrUnknownFunction is returned for calls to names the function table lacks.
	ErrUnknownFunction = functions.ErrUnknownFunction

	// ErrArgumentCount is returned for calls with the wrong number of arguments.
	ErrArgumentCount = functions.ErrArgumentCount
)

// CompileError describes why a formula was rejected. Position is the byte
// offset of the offending token and Literal its text.
type CompileError struct {
	Formula  string
	Position int
	Literal  string
	Message  string
	Err      error
}

func (e *CompileError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("compile %q: %s at position %d", e.Formula, msg, e.Position)
}

func (e *CompileError) Unwrap() error { return e.Err }
