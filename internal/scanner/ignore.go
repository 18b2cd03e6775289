package scanner

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnorePattern is a single gitignore-style pattern compiled to a
// doublestar glob.
type IgnorePattern struct {
	pattern  string // Original pattern
	glob     string // Anchored glob matched against root-relative paths
	negation bool   // Pattern starts with !
	dirOnly  bool   // Pattern ends with /
}

// ParseIgnorePattern parses a pattern read from the ignore file of the
// directory base (relative to the scan root, "" for the root itself).
// Patterns containing a slash are anchored at base; others match at any
// depth below it.
func ParseIgnorePattern(pattern, base string) (IgnorePattern, error) {
	p := IgnorePattern{pattern: pattern}
	if strings.HasPrefix(pattern, "!") {
		p.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if !anchored {
		pattern = "**/" + pattern
	}
	if base != "" {
		pattern = path.Join(base, pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return IgnorePattern{}, fmt.Errorf("invalid ignore pattern %q", p.pattern)
	}
	p.glob = pattern
	return p, nil
}

// Match reports whether the pattern matches a root-relative path. Directory
// paths end with a slash.
func (p IgnorePattern) Match(rel string) bool {
	isDir := strings.HasSuffix(rel, "/")
	if p.dirOnly && !isDir {
		return false
	}
	ok, _ := doublestar.Match(p.glob, strings.TrimSuffix(rel, "/"))
	return ok
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.negation
}

// IgnoreList applies patterns in order; the last matching pattern wins.
type IgnoreList []IgnorePattern

// Match reports whether rel is ignored.
func (l IgnoreList) Match(rel string) bool {
	ignored := false
	for _, p := range l {
		if p.Match(rel) {
			ignored = !p.negation
		}
	}
	return ignored
}
