package state

import (
	"sort"
	"strings"

	"github.com/slopwatch/slopwatch/internal/types"
)

// globMatch reports whether s matches pattern, where '*' matches any run of
// characters including path separators (fnmatch semantics, which identity
// patterns like "dupes::src/*" rely on) and '?' matches one character.
func globMatch(pattern, s string) bool {
	p, i := 0, 0
	starP, starI := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == s[i] || pattern[p] == '?'):
			p++
			i++
		case p < len(pattern) && pattern[p] == '*':
			starP, starI = p, i
			p++
		case starP >= 0:
			starI++
			p, i = starP+1, starI
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchesPattern checks a finding against one resolution pattern. Patterns
// may be an exact identity, a glob over the identity, an identity prefix
// (detector::file), a bare detector name, an exact file, or a directory
// prefix.
func matchesPattern(id string, f *types.FindingState, pattern string) bool {
	if id == pattern {
		return true
	}
	if strings.Contains(pattern, "*") {
		target := f.File
		if strings.Contains(pattern, "::") {
			target = id
		}
		return globMatch(pattern, target)
	}
	if strings.Contains(pattern, "::") {
		return strings.HasPrefix(id, pattern)
	}
	return f.Detector == pattern ||
		f.File == pattern ||
		strings.HasPrefix(f.File, strings.TrimSuffix(pattern, "/")+"/")
}

// matchesAnyIgnore checks a finding identity/file against configured ignore
// patterns: globs match the identity when they contain "::", the file
// otherwise; "::" patterns without globs are identity prefixes; anything
// else is an exact file path.
func matchesAnyIgnore(id, file string, patterns []string) bool {
	for _, pattern := range patterns {
		switch {
		case strings.Contains(pattern, "*"):
			target := file
			if strings.Contains(pattern, "::") {
				target = id
			}
			if globMatch(pattern, target) {
				return true
			}
		case strings.Contains(pattern, "::"):
			if strings.HasPrefix(id, pattern) {
				return true
			}
		default:
			if file == pattern {
				return true
			}
		}
	}
	return false
}

// MatchFindings returns findings matching the pattern, filtered by status
// ("" or "all" disables the filter). Results are ordered by identity for
// stable output.
func MatchFindings(st *ProjectState, pattern string, statusFilter string) []*types.FindingState {
	var matched []*types.FindingState
	for id, f := range st.Findings {
		if statusFilter != "" && statusFilter != "all" && string(f.Status) != statusFilter {
			continue
		}
		if matchesPattern(id, f, pattern) {
			matched = append(matched, f)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

// RemoveIgnored deletes findings matching an ignore pattern from state.
// Returns the number removed. This is the one sanctioned hard-delete: the
// user has declared these findings noise, not debt.
func RemoveIgnored(st *ProjectState, pattern string) int {
	var doomed []string
	for id, f := range st.Findings {
		if matchesAnyIgnore(id, f.File, []string{pattern}) {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		delete(st.Findings, id)
	}
	return len(doomed)
}

// AddIgnorePattern records a persistent ignore pattern on state and purges
// the findings it matches. Returns the number purged and whether the pattern
// was newly added.
func AddIgnorePattern(st *ProjectState, pattern string) (removed int, added bool) {
	for _, p := range st.IgnorePatterns {
		if p == pattern {
			return RemoveIgnored(st, pattern), false
		}
	}
	st.IgnorePatterns = append(st.IgnorePatterns, pattern)
	sort.Strings(st.IgnorePatterns)
	return RemoveIgnored(st, pattern), true
}

// RemoveIgnorePattern drops a persistent ignore pattern. Findings it was
// suppressing reappear as new on the next scan.
func RemoveIgnorePattern(st *ProjectState, pattern string) bool {
	for i, p := range st.IgnorePatterns {
		if p == pattern {
			st.IgnorePatterns = append(st.IgnorePatterns[:i], st.IgnorePatterns[i+1:]...)
			return true
		}
	}
	return false
}
