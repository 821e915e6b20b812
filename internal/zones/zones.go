// Package zones classifies files into intent zones (production, test, config,
// generated, script, vendor) from path patterns. Zone metadata flows through
// findings and scoring: findings in excluded zones stay visible but do not
// count toward the health score.
package zones

import (
	"path"
	"strings"

	"github.com/slopwatch/slopwatch/internal/types"
)

// Rule is one classification rule: a zone plus path patterns.
// Patterns are matched against relative file paths; first matching rule wins.
// Pattern types are auto-detected from shape:
//
//	"/dir/"   directory marker, substring match on the padded path
//	".ext"    substring match on the basename (".d.ts", ".test.")
//	"name_"   basename prefix
//	"_name"   basename suffix ("_test.go", "_pb2.py")
//	"name.go" exact basename when the pattern has a short extension
//	fallback  substring on the full path
type Rule struct {
	Zone     types.Zone
	Patterns []string
}

// CommonRules apply to every language.
var CommonRules = []Rule{
	{types.ZoneVendor, []string{"/vendor/", "/third_party/", "/node_modules/"}},
	{types.ZoneGenerated, []string{"/generated/", "/__generated__/", ".pb.go", "_pb2"}},
	{types.ZoneTest, []string{"/tests/", "/test/", "/fixtures/", "/testdata/", "_test.go", ".test.", ".spec."}},
	{types.ZoneScript, []string{"/scripts/", "/bin/"}},
	{types.ZoneConfig, []string{".config.", "/config/"}},
}

func matchPattern(relPath, pattern string) bool {
	base := path.Base(relPath)

	if strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		return strings.Contains("/"+relPath+"/", pattern)
	}
	if strings.HasPrefix(pattern, ".") {
		return strings.Contains(base, pattern)
	}
	if strings.HasSuffix(pattern, "_") {
		return strings.HasPrefix(base, pattern)
	}
	if strings.HasPrefix(pattern, "_") {
		return strings.HasSuffix(base, pattern)
	}
	if !strings.Contains(pattern, "/") && strings.Contains(pattern, ".") {
		if ext := pattern[strings.LastIndex(pattern, ".")+1:]; len(ext) >= 1 && len(ext) <= 5 {
			return base == pattern
		}
	}
	return strings.Contains(relPath, pattern)
}

// Classify returns the zone for a relative file path. Overrides take
// priority over rules; unmatched files are production.
func Classify(relPath string, rules []Rule, overrides map[string]types.Zone) types.Zone {
	if z, ok := overrides[relPath]; ok && z.IsValid() {
		return z
	}
	for _, rule := range rules {
		for _, pattern := range rule.Patterns {
			if matchPattern(relPath, pattern) {
				return rule.Zone
			}
		}
	}
	return types.ZoneProduction
}

// Map caches zone classification for a scanned file set. Built once per scan.
type Map struct {
	zones map[string]types.Zone
}

// NewMap classifies every file up front. Language rules run before the
// common rules so a language can claim a path the common set would misfile.
func NewMap(files []string, langRules []Rule, overrides map[string]types.Zone) *Map {
	rules := append(append([]Rule{}, langRules...), CommonRules...)
	m := &Map{zones: make(map[string]types.Zone, len(files))}
	for _, f := range files {
		m.zones[f] = Classify(f, rules, overrides)
	}
	return m
}

// Zone returns the zone for a file. Files outside the scanned set (including
// the holistic "." pseudo-file) are treated as production.
func (m *Map) Zone(relPath string) types.Zone {
	if z, ok := m.zones[relPath]; ok {
		return z
	}
	return types.ZoneProduction
}
