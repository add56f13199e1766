package payload

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Evaluate computes "<int> <op> <int>" where op is one of + - * /.
// Operands are decimal integers with an optional leading minus sign; spaces
// and tabs may surround the operator. Division yields an integer when exact
// and the shortest decimal otherwise ("7/2" is "3.5").
func Evaluate(expr string) (string, error) {
	s := strings.TrimSpace(expr)

	left, rest, ok := readInt(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotArithmetic, expr)
	}

	rest = strings.TrimLeft(rest, " \t")
	if rest == "" {
		return "", fmt.Errorf("%w: %q", ErrNotArithmetic, expr)
	}
	op := rest[0]
	if !strings.ContainsRune("+-*/", rune(op)) {
		return "", fmt.Errorf("%w: %q", ErrNotArithmetic, expr)
	}

	right, tail, ok := readInt(strings.TrimLeft(rest[1:], " \t"))
	if !ok || tail != "" {
		return "", fmt.Errorf("%w: %q", ErrNotArithmetic, expr)
	}

	a, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrOverflow, left)
	}
	b, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrOverflow, right)
	}

	return apply(a, op, b)
}

// readInt consumes an optionally signed run of ASCII digits from the start of s.
func readInt(s string) (digits, rest string, ok bool) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return "", s, false
	}
	return s[:i], s[i:], true
}

// apply performs a single checked int64 operation.
func apply(a int64, op byte, b int64) (string, error) {
	switch op {
	case '+':
		if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
			return "", ErrOverflow
		}
		return strconv.FormatInt(a+b, 10), nil
	case '-':
		if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
			return "", ErrOverflow
		}
		return strconv.FormatInt(a-b, 10), nil
	case '*':
		if a == 0 || b == 0 {
			return "0", nil
		}
		p := a * b
		if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return "", ErrOverflow
		}
		return strconv.FormatInt(p, 10), nil
	case '/':
		if b == 0 {
			return "", ErrDivisionByZero
		}
		if a == math.MinInt64 && b == -1 {
			return "", ErrOverflow
		}
		if a%b == 0 {
			return strconv.FormatInt(a/b, 10), nil
		}
		return strconv.FormatFloat(float64(a)/float64(b), 'f', -1, 64), nil
	default:
		return "", ErrNotArithmetic
	}
}
