package rules

import (
	"fmt"
	"strconv"
	"strings"

	m "docmig.dev/pkg/docmig/internal/model"
)

type segmentKind int

const (
	segmentKey segmentKind = iota
	segmentIndex
	segmentKeyed
	segmentAnyElement
	segmentAny
	segmentDeep
)

type patternSegment struct {
	kind  segmentKind
	key   string
	index int
}

// PathPattern matches node paths. Segments are separated by dots; '*' matches
// any single segment, '**' any number of segments and '[*]' any array element.
type PathPattern struct {
	source   string
	segments []patternSegment
}

// ParsePathPattern compiles a path pattern. The empty pattern matches every path.
func ParsePathPattern(pattern string) (PathPattern, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return PathPattern{source: pattern, segments: []patternSegment{{kind: segmentDeep}}}, nil
	}

	var segments []patternSegment

	for _, part := range splitPattern(pattern) {
		if part == "" {
			return PathPattern{}, fmt.Errorf("empty segment in path pattern %q", pattern)
		}

		name, brackets, _ := strings.Cut(part, "[")

		switch name {
		case "":
		case "**":
			segments = append(segments, patternSegment{kind: segmentDeep})
		case "*":
			segments = append(segments, patternSegment{kind: segmentAny})
		default:
			segments = append(segments, patternSegment{kind: segmentKey, key: name})
		}

		if brackets == "" {
			continue
		}

		for _, inner := range strings.Split("["+brackets, "[")[1:] {
			seg, err := parseBracketPattern(strings.TrimSuffix(inner, "]"))
			if err != nil {
				return PathPattern{}, fmt.Errorf("path pattern %q: %w", pattern, err)
			}

			segments = append(segments, seg)
		}
	}

	return PathPattern{source: pattern, segments: segments}, nil
}

// splitPattern splits on dots that are not inside brackets.
func splitPattern(pattern string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i, r := range pattern {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case '.':
			if depth == 0 {
				parts = append(parts, pattern[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, pattern[start:])
}

func parseBracketPattern(inner string) (patternSegment, error) {
	inner = strings.TrimSpace(inner)

	if inner == "*" {
		return patternSegment{kind: segmentAnyElement}, nil
	}

	if rest, ok := strings.CutPrefix(inner, "_key=="); ok {
		key, err := strconv.Unquote(strings.TrimSpace(rest))
		if err != nil {
			return patternSegment{}, fmt.Errorf("invalid keyed segment %q", inner)
		}

		return patternSegment{kind: segmentKeyed, key: key}, nil
	}

	n, err := strconv.Atoi(inner)
	if err != nil {
		return patternSegment{}, fmt.Errorf("invalid index segment %q", inner)
	}

	return patternSegment{kind: segmentIndex, index: n}, nil
}

// String returns the source pattern.
func (p PathPattern) String() string {
	return p.source
}

// Match reports whether path matches the pattern.
func (p PathPattern) Match(path m.Path) bool {
	return matchSegments(p.segments, path)
}

func matchSegments(segments []patternSegment, path m.Path) bool {
	if len(segments) == 0 {
		return len(path) == 0
	}

	head := segments[0]
	if head.kind == segmentDeep {
		for i := 0; i <= len(path); i++ {
			if matchSegments(segments[1:], path[i:]) {
				return true
			}
		}

		return false
	}

	if len(path) == 0 || !head.matches(path[0]) {
		return false
	}

	return matchSegments(segments[1:], path[1:])
}

func (s patternSegment) matches(seg m.PathSegment) bool {
	switch s.kind {
	case segmentAny:
		return true
	case segmentKey:
		key, ok := seg.(m.Key)
		return ok && string(key) == s.key
	case segmentIndex:
		index, ok := seg.(m.Index)
		return ok && int(index) == s.index
	case segmentKeyed:
		keyed, ok := seg.(m.KeyedSegment)
		return ok && keyed.Key == s.key
	case segmentAnyElement:
		switch seg.(type) {
		case m.Index, m.KeyedSegment:
			return true
		}

		return false
	default:
		return false
	}
}
