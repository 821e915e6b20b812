package languages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopwatch/slopwatch/internal/registry"
	"github.com/slopwatch/slopwatch/internal/types"
	"github.com/slopwatch/slopwatch/internal/zones"
)

func TestRegisterBuiltin(t *testing.T) {
	r := registry.New()
	require.NoError(t, RegisterBuiltin(r))
	assert.Equal(t, []string{"go", "python"}, r.Names())

	goLang, ok := r.Get("go")
	require.True(t, ok)
	assert.Equal(t, []string{"structural", "debris"}, goLang.Detectors())
	assert.NotNil(t, goLang.BuildDepGraph)
}

func TestGoImports(t *testing.T) {
	src := `package main

import (
	"fmt"
	_ "embed"
	hclog "github.com/hashicorp/go-hclog"
	// "commented/out"
)

import "os"
`
	imports := goImports(src)
	assert.Equal(t, []string{"fmt", "embed", "github.com/hashicorp/go-hclog", "os"}, imports)
}

func TestGoDepGraph_SkipsUnreadable(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\nimport \"fmt\"\n"), 0o644))

	graph, err := goDepGraph(context.Background(), registry.PhaseContext{
		Root:  root,
		Files: []string{"a.go", "missing.go"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"a.go": {"fmt"}}, graph)
}

func TestPyImports(t *testing.T) {
	root := t.TempDir()
	src := "import os\nimport os.path\nfrom collections import defaultdict\nx = 1\n  import json\n"
	path := filepath.Join(root, "m.py")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	imports, err := pyImports(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"os", "collections", "json"}, imports)
}

func TestGoZoneRules(t *testing.T) {
	files := []string{"api/types.gen.go", "internal/state/merge_test.go", "internal/state/merge.go"}
	zm := zones.NewMap(files, Go().ZoneRules, nil)
	assert.Equal(t, types.ZoneGenerated, zm.Zone("api/types.gen.go"))
	assert.Equal(t, types.ZoneTest, zm.Zone("internal/state/merge_test.go"))
	assert.Equal(t, types.ZoneProduction, zm.Zone("internal/state/merge.go"))
}

func TestPythonZoneRules(t *testing.T) {
	files := []string{"pkg/test_merge.py", "proto/api_pb2.py", "pkg/merge.py"}
	zm := zones.NewMap(files, Python().ZoneRules, nil)
	assert.Equal(t, types.ZoneTest, zm.Zone("pkg/test_merge.py"))
	assert.Equal(t, types.ZoneGenerated, zm.Zone("proto/api_pb2.py"))
	assert.Equal(t, types.ZoneProduction, zm.Zone("pkg/merge.py"))
}
