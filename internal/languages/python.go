package languages

import (
	"bufio"
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

var pyDebugPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*print\(`),
	regexp.MustCompile(`\bbreakpoint\(\)`),
	regexp.MustCompile(`\bpdb\.set_trace\(`),
}

var pyImportRe = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import|import\s+([\w.]+))`)

// Python returns the built-in Python plugin.
func Python() *registry.LanguagePlugin {
	return &registry.LanguagePlugin{
		Name:       "python",
		Extensions: []string{".py"},
		ZoneRules: []zones.Rule{
			{Zone: types.ZoneTest, Patterns: []string{"test_", "conftest.py"}},
			{Zone: types.ZoneConfig, Patterns: []string{"setup.py", "setup.cfg"}},
			{Zone: types.ZoneGenerated, Patterns: []string{"_pb2.py", "_pb2_grpc.py"}},
		},
		Phases: []registry.Phase{
			phase("oversized files", "structural", detectors.Structural(detectors.StructuralConfig{
				HardLimit: 1200,
			})),
			phase("leftover debris", "debris", detectors.Debris(detectors.DebrisConfig{
				DebugPatterns: pyDebugPatterns,
				LineComment:   "#",
			})),
		},
		BuildDepGraph: pyDepGraph,
	}
}

func pyDepGraph(ctx context.Context, pc registry.PhaseContext) (map[string][]string, error) {
	graph := make(map[string][]string, len(pc.Files))
	for _, f := range pc.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		imports, err := pyImports(filepath.Join(pc.Root, f))
		if err != nil {
			continue
		}
		graph[f] = imports
	}
	return graph, nil
}

func pyImports(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var imports []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := pyImportRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		mod := m[1]
		if mod == "" {
			mod = m[2]
		}
		// "import a.b.c" names module a; submodule paths resolve to the root
		mod = strings.SplitN(mod, ".", 2)[0]
		if mod != "" && !seen[mod] {
			seen[mod] = true
			imports = append(imports, mod)
		}
	}
	return imports, sc.Err()
}
