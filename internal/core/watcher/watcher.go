// Package watcher pattern-matches captured pane text into a status and an
// optional progress fraction (spec.md §4.4). Matching is plain substring,
// case-sensitive, with "last match wins" across lines then patterns
// (spec.md §9): an implementation may upgrade to regex only if it
// preserves that ordering.
package watcher

import (
	"strconv"
	"strings"
)

// StatusKind tags the watcher's status union.
type StatusKind int

const (
	Unresponsive StatusKind = iota
	Active
	Matched
)

// Status is the outcome of analyzing one capture.
type Status struct {
	Kind     StatusKind
	Name     string // set when Kind == Matched, the OutputPattern.Name
	Activity string // set when Kind == Active
}

// OutputPattern is one named substring rule. Patterns are checked in
// order on every line; "last match wins" means the final matching
// line/pattern pair in iteration order governs the result.
type OutputPattern struct {
	Name           string
	Pattern        string
	ExtractsStatus bool
}

// ProgressPattern recognizes a case-insensitive prefix preceding a
// percentage or raw fraction.
type ProgressPattern struct {
	Prefix       string
	IsPercentage bool
}

// Result is the watcher's per-agent analysis output, also the last stored
// result consulted by AgentsNeedingWatch.
type Result struct {
	Agent       string
	TimestampMs int64
	Status      Status
	OutputLines []string
	Progress    *float64
}

// Watcher holds the ordered pattern lists and per-agent last results.
type Watcher struct {
	patterns         []OutputPattern
	progressPatterns []ProgressPattern
	intervalMs       int64
	last             map[string]*Result
}

// New creates a Watcher with the given ordered patterns and watch interval.
func New(patterns []OutputPattern, progress []ProgressPattern, intervalMs int64) *Watcher {
	return &Watcher{
		patterns:         patterns,
		progressPatterns: progress,
		intervalMs:       intervalMs,
		last:             make(map[string]*Result),
	}
}

// AnalyzeOutput implements spec.md §4.4 steps 1-5.
func (w *Watcher) AnalyzeOutput(agent, text string, now int64) Result {
	lines := splitLines(text)

	status := Status{Kind: Unresponsive}
	matchedAny := false
	for _, line := range lines {
		for _, p := range w.patterns {
			if strings.Contains(line, p.Pattern) {
				status = Status{Kind: Matched, Name: p.Name}
				matchedAny = true
			}
		}
	}
	if !matchedAny {
		if text == "" {
			status = Status{Kind: Unresponsive}
		} else {
			status = Status{Kind: Active, Activity: "output detected"}
		}
	}

	var progress *float64
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, pp := range w.progressPatterns {
			idx := strings.Index(lower, strings.ToLower(pp.Prefix))
			if idx < 0 {
				continue
			}
			rest := line[idx+len(pp.Prefix):]
			if v, ok := parseLeadingNumber(rest); ok {
				if pp.IsPercentage {
					v = v / 100
				}
				v = clamp01(v)
				progress = &v
			}
		}
	}

	r := Result{
		Agent:       agent,
		TimestampMs: now,
		Status:      status,
		OutputLines: lines,
		Progress:    progress,
	}
	w.last[agent] = &r
	return r
}

// AgentsNeedingWatch returns the agents whose last analysis is older than
// the configured watch interval (or who have never been analyzed).
func (w *Watcher) AgentsNeedingWatch(now int64, agents []string) []string {
	var out []string
	for _, a := range agents {
		last, ok := w.last[a]
		if !ok || now-last.TimestampMs >= w.intervalMs {
			out = append(out, a)
		}
	}
	return out
}

// LastResult returns the most recent analysis stored for agent, if any.
func (w *Watcher) LastResult(agent string) (Result, bool) {
	r, ok := w.last[agent]
	if !ok {
		return Result{}, false
	}
	return *r, true
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseLeadingNumber parses the first decimal or integer token at the
// start of s, skipping leading whitespace/colons.
func parseLeadingNumber(s string) (float64, bool) {
	s = strings.TrimLeft(s, " :\t")
	end := 0
	seenDigit := false
	seenDot := false
	for end < len(s) {
		c := s[end]
		if c >= '0' && c <= '9' {
			seenDigit = true
			end++
			continue
		}
		if c == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		if c == '-' && end == 0 {
			end++
			continue
		}
		break
	}
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
