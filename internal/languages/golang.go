package languages

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/slopwatch/slopwatch/internal/detectors"
	"github.com/slopwatch/slopwatch/internal/registry"
	"github.com/slopwatch/slopwatch/internal/types"
	"github.com/slopwatch/slopwatch/internal/zones"
)

var goDebugPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bfmt\.Print(ln|f)?\(`),
	regexp.MustCompile(`\bprintln\(`),
	regexp.MustCompile(`\bspew\.Dump\(`),
}

var (
	goImportBlockRe  = regexp.MustCompile(`(?s)\bimport\s*\((.*?)\)`)
	goImportSingleRe = regexp.MustCompile(`(?m)^import\s+(?:\w+\s+)?"([^"]+)"`)
	goImportLineRe   = regexp.MustCompile(`"([^"]+)"`)
)

// Go returns the built-in Go plugin.
func Go() *registry.LanguagePlugin {
	return &registry.LanguagePlugin{
		Name:       "go",
		Extensions: []string{".go"},
		ZoneRules: []zones.Rule{
			{Zone: types.ZoneGenerated, Patterns: []string{".gen.go", "_gen.go", "zz_generated"}},
			{Zone: types.ZoneConfig, Patterns: []string{"go.mod", "go.sum"}},
		},
		Phases: []registry.Phase{
			phase("oversized files", "structural", detectors.Structural(detectors.StructuralConfig{
				HardLimit: 1500,
			})),
			phase("leftover debris", "debris", detectors.Debris(detectors.DebrisConfig{
				DebugPatterns: goDebugPatterns,
				LineComment:   "//",
			})),
		},
		BuildDepGraph: goDepGraph,
	}
}

// goDepGraph extracts import paths per file. It reads the import block
// textually rather than via go/parser: the scanned tree is not required to
// be well-formed Go, and broken files should not break the graph.
func goDepGraph(ctx context.Context, pc registry.PhaseContext) (map[string][]string, error) {
	graph := make(map[string][]string, len(pc.Files))
	for _, f := range pc.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(pc.Root, f))
		if err != nil {
			continue
		}
		graph[f] = goImports(string(data))
	}
	return graph, nil
}

func goImports(src string) []string {
	var imports []string
	seen := make(map[string]bool)
	add := func(path string) {
		if path != "" && !seen[path] {
			seen[path] = true
			imports = append(imports, path)
		}
	}

	if m := goImportBlockRe.FindStringSubmatch(src); m != nil {
		for _, line := range strings.Split(m[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") {
				continue
			}
			if q := goImportLineRe.FindStringSubmatch(line); q != nil {
				add(q[1])
			}
		}
	}
	for _, m := range goImportSingleRe.FindAllStringSubmatch(src, -1) {
		add(m[1])
	}
	return imports
}
