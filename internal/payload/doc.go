// Package payload holds the built-in SSTI payload corpus and computes the value
// each payload should render to when a template engine evaluates it.
//
// Expected values come from a deliberately tiny interpreter that understands
// exactly one shape of expression, "<int> <op> <int>" with op one of + - * /.
// Anything else (method calls, attribute access, function calls) is reported as
// ErrNotArithmetic and the caller falls back to a reflection check. The scanner
// never evaluates payload text in any other way.
package payload
