package rules

import (
	"fmt"
	"regexp"
)

// DecoratorRule is one `@when(pattern)` + `def name(bound_vars…)` pair
// compiled to a rule (spec.md §4.6 "Python-bridge decorator").
type DecoratorRule struct {
	Index    int
	Pattern  string
	FuncName string
	Rule     Rule
}

var decoratorRe = regexp.MustCompile(`(?m)^\s*@when\(\s*["']([^"']*)["']\s*\)\s*\n\s*def\s+(\w+)\s*\(`)

// ParseDecorators finds every `@when("pattern")` / `def name(...)` pair
// and compiles each into a rule whose single action is the sentinel
// `flow.decorator.<index>.fire = true` (spec.md §4.6).
func ParseDecorators(text string) ([]DecoratorRule, error) {
	matches := decoratorRe.FindAllStringSubmatch(text, -1)
	var out []DecoratorRule
	for i, m := range matches {
		pattern, funcName := m[1], m[2]
		cond, err := ParseExpression(pattern)
		if err != nil {
			return nil, err
		}
		sentinel := fmt.Sprintf("flow.decorator.%d.fire", i)
		rule := Rule{Conditions: cond, Actions: []Action{{Path: ParsePath(sentinel), Op: Set, Value: "true"}}}
		out = append(out, DecoratorRule{Index: i, Pattern: pattern, FuncName: funcName, Rule: rule})
	}
	return out, nil
}

// decoratorSpanRe matches a full @when/def block so markdown extraction
// can exclude it when looking for bare rule text.
var decoratorSpanRe = regexp.MustCompile(`(?m)^\s*@when\([^\n]*\)\s*\n\s*def\s+\w+\([^\n]*\n?`)
