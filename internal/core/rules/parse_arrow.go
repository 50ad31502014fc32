package rules

import "strings"

// ParseArrow parses the arrow surface syntax: one rule per logical line
// containing `-->`, possibly spanning several physical lines while
// parentheses are unbalanced; actions are `;`-separated (spec.md §4.6
// "Arrow").
func ParseArrow(text string) ([]Rule, error) {
	var rules []Rule
	var buf []string
	depth := 0

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		joined := strings.Join(buf, " ")
		buf = nil
		if !strings.Contains(joined, "-->") {
			return nil
		}
		parts := strings.SplitN(joined, "-->", 2)
		cond, err := ParseExpression(strings.TrimSpace(parts[0]))
		if err != nil {
			return err
		}
		actions, err := ParseActionList(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}
		rules = append(rules, Rule{Conditions: cond, Actions: actions})
		return nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			depth = 0
			continue
		}
		buf = append(buf, trimmed)
		depth += strings.Count(trimmed, "(") - strings.Count(trimmed, ")")
		if depth <= 0 && strings.Contains(strings.Join(buf, " "), "-->") {
			if err := flush(); err != nil {
				return nil, err
			}
			depth = 0
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return rules, nil
}
