package rules

import (
	"regexp"
	"strings"
)

// atxHeading parses an ATX heading line ("## Title") and reports its
// level and title, or ok=false if line is not a heading.
func atxHeading(line string) (level int, title string, ok bool) {
	trimmed := strings.TrimLeft(line, " ")
	n := 0
	for n < len(trimmed) && trimmed[n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return 0, "", false
	}
	if n < len(trimmed) && trimmed[n] != ' ' {
		return 0, "", false
	}
	return n, strings.TrimSpace(trimmed[n:]), true
}

// ExtractRulesSections finds every `## Rules` ATX section (any heading
// level, case-insensitive title match) and returns its body text, one
// string per section. A nested heading of equal or higher level
// terminates the section; HTML comments are skipped entirely
// (spec.md §4.6, §6).
func ExtractRulesSections(markdown string) []string {
	lines := strings.Split(markdown, "\n")
	var sections []string
	i := 0
	for i < len(lines) {
		level, title, ok := atxHeading(lines[i])
		if !ok || !strings.EqualFold(strings.TrimSpace(title), "Rules") {
			i++
			continue
		}
		startLevel := level
		i++
		var buf []string
		inComment := false
		for i < len(lines) {
			l := lines[i]
			if inComment {
				if strings.Contains(l, "-->") {
					inComment = false
				}
				i++
				continue
			}
			if strings.Contains(l, "<!--") && !strings.Contains(l, "-->") {
				inComment = true
				i++
				continue
			}
			if strings.Contains(l, "<!--") && strings.Contains(l, "-->") {
				i++
				continue
			}
			if lvl2, _, ok2 := atxHeading(l); ok2 && lvl2 <= startLevel {
				break
			}
			buf = append(buf, l)
			i++
		}
		sections = append(sections, strings.Join(buf, "\n"))
	}
	return sections
}

// extractTripleQuoted finds rules("""...""") / rules('''...''') call
// bodies, in order of appearance.
func extractTripleQuoted(section string) []string {
	re := regexp.MustCompile(`(?s)rules\(\s*(?:"""(.*?)"""|'''(.*?)''')\s*\)`)
	matches := re.FindAllStringSubmatch(section, -1)
	var out []string
	for _, m := range matches {
		if m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, m[2])
		}
	}
	return out
}

// ParseMarkdownRulesSections extracts every `## Rules` section and
// compiles its decorator pairs, rules(...) call bodies, and remaining
// bare rule text, in that order (spec.md §4.6 "markdown extractor").
func ParseMarkdownRulesSections(markdown string) ([]Rule, []DecoratorRule, error) {
	var allRules []Rule
	var allDecorators []DecoratorRule

	for _, section := range ExtractRulesSections(markdown) {
		decorators, err := ParseDecorators(section)
		if err != nil {
			return nil, nil, err
		}
		allDecorators = append(allDecorators, decorators...)
		for _, d := range decorators {
			allRules = append(allRules, d.Rule)
		}

		remaining := decoratorSpanRe.ReplaceAllString(section, "")
		for _, body := range extractTripleQuoted(remaining) {
			rules, err := ParseRulesAuto(body)
			if err != nil {
				return nil, nil, err
			}
			allRules = append(allRules, rules...)
		}
		bare := regexp.MustCompile(`(?s)rules\(\s*(?:""".*?"""|'''.*?''')\s*\)`).ReplaceAllString(remaining, "")
		if strings.TrimSpace(bare) != "" {
			if rules, err := ParseRulesAuto(bare); err == nil {
				allRules = append(allRules, rules...)
			}
		}
	}
	return allRules, allDecorators, nil
}
