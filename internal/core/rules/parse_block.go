package rules

import "strings"

func isWhenLine(s string) bool { return strings.EqualFold(strings.TrimSpace(s), "when:") }
func isThenLine(s string) bool { return strings.EqualFold(strings.TrimSpace(s), "then:") }

// ParseBlock parses the block surface syntax: `when:` followed by one
// indented condition per line (implicitly AND-ed), then `then:` with one
// indented action per line; rules are separated by a blank line or
// another `when:` (spec.md §4.6 "Block").
func ParseBlock(text string) ([]Rule, error) {
	lines := strings.Split(text, "\n")
	var rules []Rule
	i := 0
	for i < len(lines) {
		if !isWhenLine(lines[i]) {
			i++
			continue
		}
		i++
		var condLines []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" && !isThenLine(lines[i]) {
			condLines = append(condLines, strings.TrimSpace(lines[i]))
			i++
		}
		if i >= len(lines) || !isThenLine(lines[i]) {
			continue
		}
		i++
		var actionLines []string
		for i < len(lines) {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" || isWhenLine(lines[i]) {
				break
			}
			actionLines = append(actionLines, trimmed)
			i++
		}

		var condExprs []*Expression
		for _, c := range condLines {
			expr, err := ParseExpression(c)
			if err != nil {
				return nil, err
			}
			condExprs = append(condExprs, expr)
		}
		var actions []Action
		for _, a := range actionLines {
			act, err := parseAction(a)
			if err != nil {
				return nil, err
			}
			actions = append(actions, act)
		}
		combined := andAll(condExprs)
		rules = append(rules, Rule{Conditions: combined, Actions: actions})
	}
	return rules, nil
}
