package payload

import "errors"

var (
	// ErrNotArithmetic is returned when a payload's inner expression is not
	// of the form "<int> <op> <int>".
	ErrNotArithmetic = errors.New("not a simple arithmetic expression")

	// ErrDivisionByZero is returned for "<int> / 0".
	ErrDivisionByZero = errors.New("division by zero")

	// ErrOverflow is returned when an operand or the result does not fit in int64.
	ErrOverflow = errors.New("integer overflow")

	// ErrZeroResult is returned when an expression evaluates to zero. A bare
	// "0" matches almost any response, so it is not usable as evidence.
	ErrZeroResult = errors.New("expression evaluates to zero")
)
