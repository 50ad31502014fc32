// Package rules compiles the three declarative rule surface syntaxes and
// the @when decorator bridge into one shared AST (spec.md §4.6).
package rules

import "strings"

// SegmentKind tags one dotted path segment.
type SegmentKind int

const (
	Literal SegmentKind = iota
	Variable
	Wildcard
)

// Segment is one element of a Path.
type Segment struct {
	Kind SegmentKind
	Name string // literal text, or the variable name without its leading $
}

// Path is a dotted sequence of segments, e.g. task.$t.status.
type Path []Segment

// ParsePath splits a dotted path string into its segment union
// (spec.md §4.6 "Path pattern").
func ParsePath(s string) Path {
	parts := strings.Split(s, ".")
	path := make(Path, len(parts))
	for i, p := range parts {
		switch {
		case p == "*":
			path[i] = Segment{Kind: Wildcard}
		case strings.HasPrefix(p, "$"):
			path[i] = Segment{Kind: Variable, Name: strings.TrimPrefix(p, "$")}
		default:
			path[i] = Segment{Kind: Literal, Name: p}
		}
	}
	return path
}

// String renders the path back to its dotted textual form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		switch s.Kind {
		case Wildcard:
			parts[i] = "*"
		case Variable:
			parts[i] = "$" + s.Name
		default:
			parts[i] = s.Name
		}
	}
	return strings.Join(parts, ".")
}
