package rules

import (
	"fmt"
	"strings"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Operator is a condition's comparison (spec.md §4.6 "Condition").
type Operator int

const (
	Eq Operator = iota
	Neq
	Gt
	Lt
	Gte
	Lte
	Contains
	IsEmpty
	IsNotEmpty
)

// Condition is `path OP value?`. Value is empty and unused for IsEmpty /
// IsNotEmpty. A value beginning with '$' is a variable reference rather
// than a literal.
type Condition struct {
	Path  Path
	Op    Operator
	Value string
}

// parseCondition parses one condition's textual form, e.g.
// `task.$t.status == ready` or `agent.$a.notes is not empty`
// (spec.md §4.6).
func parseCondition(text string) (Condition, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return Condition{}, fmt.Errorf("%w: malformed condition %q", coreerr.ErrInvalidInput, text)
	}
	path := ParsePath(fields[0])
	rest := fields[1:]

	if len(rest) >= 3 && strings.EqualFold(rest[0], "is") && strings.EqualFold(rest[1], "not") && strings.EqualFold(rest[2], "empty") {
		return Condition{Path: path, Op: IsNotEmpty}, nil
	}
	if len(rest) >= 2 && strings.EqualFold(rest[0], "is") && strings.EqualFold(rest[1], "empty") {
		return Condition{Path: path, Op: IsEmpty}, nil
	}
	if len(rest) >= 2 && strings.EqualFold(rest[0], "contains") {
		return Condition{Path: path, Op: Contains, Value: strings.Join(rest[1:], " ")}, nil
	}

	opTok := rest[0]
	var op Operator
	switch opTok {
	case "==":
		op = Eq
	case "!=":
		op = Neq
	case ">=":
		op = Gte
	case "<=":
		op = Lte
	case ">":
		op = Gt
	case "<":
		op = Lt
	default:
		return Condition{}, fmt.Errorf("%w: unknown operator %q in condition %q", coreerr.ErrInvalidInput, opTok, text)
	}
	if len(rest) < 2 {
		return Condition{}, fmt.Errorf("%w: condition %q is missing a value", coreerr.ErrInvalidInput, text)
	}
	return Condition{Path: path, Op: op, Value: strings.Join(rest[1:], " ")}, nil
}
