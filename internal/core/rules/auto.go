package rules

import (
	"fmt"
	"strings"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// ParseRulesAuto detects the surface syntax of text and dispatches to the
// matching parser: a When/Then header with pipes selects the table
// format, `-->` selects arrow, a bare `when:` line selects block
// (spec.md §4.6 "parse_rules_auto").
func ParseRulesAuto(text string) ([]Rule, error) {
	hasTableHeader := false
	hasBlockWhen := false
	for _, l := range strings.Split(text, "\n") {
		if strings.Contains(l, "|") {
			lower := strings.ToLower(l)
			if strings.Contains(lower, "when") && strings.Contains(lower, "then") {
				hasTableHeader = true
			}
		}
		if isWhenLine(l) {
			hasBlockWhen = true
		}
	}
	switch {
	case hasTableHeader:
		return ParseTable(text)
	case strings.Contains(text, "-->"):
		return ParseArrow(text)
	case hasBlockWhen:
		return ParseBlock(text)
	default:
		return nil, fmt.Errorf("%w: could not detect a rule surface syntax", coreerr.ErrInvalidInput)
	}
}
