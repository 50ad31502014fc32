package rules

import (
	"fmt"
	"strings"

	"github.com/kandev/kandev/internal/core/coreerr"
)

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		c = strings.Trim(c, " ")
		if c == "" {
			continue
		}
		for _, r := range c {
			if r != '-' && r != ':' {
				return false
			}
		}
	}
	return true
}

// ParseTable parses the markdown-table surface syntax: a header row
// containing (case-insensitively) both "When" and "Then", a skipped
// separator row, then one rule per body row (spec.md §4.6 "Table").
func ParseTable(text string) ([]Rule, error) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}

	headerIdx := -1
	var whenCol, thenCol int
	for i, l := range lines {
		if !strings.Contains(l, "|") {
			continue
		}
		cells := splitRow(l)
		w, th := -1, -1
		for ci, c := range cells {
			switch {
			case strings.EqualFold(c, "when"):
				w = ci
			case strings.EqualFold(c, "then"):
				th = ci
			}
		}
		if w >= 0 && th >= 0 {
			headerIdx, whenCol, thenCol = i, w, th
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: no When/Then table header found", coreerr.ErrInvalidInput)
	}

	var rules []Rule
	for _, l := range lines[headerIdx+1:] {
		if !strings.Contains(l, "|") {
			continue
		}
		cells := splitRow(l)
		if isSeparatorRow(cells) {
			continue
		}
		if whenCol >= len(cells) || thenCol >= len(cells) {
			continue
		}
		cond, err := ParseExpression(cells[whenCol])
		if err != nil {
			return nil, err
		}
		actions, err := ParseActionList(cells[thenCol])
		if err != nil {
			return nil, err
		}
		rules = append(rules, Rule{Conditions: cond, Actions: actions})
	}
	return rules, nil
}
