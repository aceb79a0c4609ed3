package conditions

import (
	"strings"
)

// GlobMatch reports whether a slash-separated path matches a glob pattern.
// Supported wildcards:
//
//	*   matches any run of characters within one path segment
//	?   matches exactly one character within a segment
//	**  matches zero or more whole segments
//
// Patterns without wildcards compare exactly.
func GlobMatch(pattern, path string) bool {
	if !strings.ContainsAny(pattern, "*?") {
		return pattern == path
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

// matchSegments matches pattern segments against path segments, handling **
// by trying every possible consumption length.
func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}

	if pattern[0] == "**" {
		// ** may swallow zero or more leading path segments.
		for skip := 0; skip <= len(path); skip++ {
			if matchSegments(pattern[1:], path[skip:]) {
				return true
			}
		}
		return false
	}

	if len(path) == 0 {
		return false
	}

	if !matchSegment(pattern[0], path[0]) {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}

// matchSegment matches one pattern segment (with * and ?) against one path
// segment.
func matchSegment(pattern, segment string) bool {
	// Iterative wildcard match with single-star backtracking.
	var pi, si int
	starP, starS := -1, -1

	for si < len(segment) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == segment[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			starP = pi
			starS = si
			pi++
		case starP >= 0:
			starS++
			si = starS
			pi = starP + 1
		default:
			return false
		}
	}

	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// matchAnyGlob reports whether value matches any of the patterns. An empty
// pattern list matches everything (absent filter means match-all).
func matchAnyGlob(patterns []string, value string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if GlobMatch(p, value) {
			return true
		}
	}
	return false
}
