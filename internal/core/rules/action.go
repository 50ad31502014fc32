package rules

import (
	"fmt"
	"strings"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// ActionOp distinguishes a set assignment from an append (spec.md §4.6).
type ActionOp int

const (
	Set ActionOp = iota
	Append
)

// Action is `path = value` or `path += value`.
type Action struct {
	Path  Path
	Op    ActionOp
	Value string
}

// parseAction parses one action's textual form. It scans for the
// assignment operator character-by-character rather than splitting on
// whitespace so it can tell a bare `=` apart from `==`, `!=`, `<=`, `>=`
// and `+=` even when they appear glued with no surrounding space
// (spec.md §4.6 "the action parser must distinguish `=` from
// `==`/`!=`/`<=`/`>=`").
func parseAction(text string) (Action, error) {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "+="); idx >= 0 {
		return Action{Path: ParsePath(strings.TrimSpace(text[:idx])), Op: Append, Value: strings.TrimSpace(text[idx+2:])}, nil
	}
	for i := 0; i < len(text); i++ {
		if text[i] != '=' {
			continue
		}
		if i > 0 {
			prev := text[i-1]
			if prev == '!' || prev == '<' || prev == '>' || prev == '=' {
				continue
			}
		}
		if i+1 < len(text) && text[i+1] == '=' {
			continue
		}
		return Action{Path: ParsePath(strings.TrimSpace(text[:i])), Op: Set, Value: strings.TrimSpace(text[i+1:])}, nil
	}
	return Action{}, fmt.Errorf("%w: malformed action %q", coreerr.ErrInvalidInput, text)
}

// ParseActionList parses a `;`-separated list of actions (spec.md §4.6
// "actions separated by `;`").
func ParseActionList(text string) ([]Action, error) {
	var out []Action
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		a, err := parseAction(part)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
