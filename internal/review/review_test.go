package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopwatch/slopwatch/internal/state"
)

func writeReview(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeReview(t, `
assessments:
  naming:
    score: 72
    note: inconsistent receiver names
  architecture:
    score: 85
`)
	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "architecture", entries[0].Dimension)
	assert.Equal(t, 85.0, entries[0].Score)
	assert.Equal(t, "naming", entries[1].Dimension)
	assert.Equal(t, "inconsistent receiver names", entries[1].Note)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "assessments: {}\n"},
		{"score too high", "assessments:\n  naming:\n    score: 120\n"},
		{"score negative", "assessments:\n  naming:\n    score: -5\n"},
		{"malformed", "assessments: [not a map\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeReview(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	st := state.NewProjectState("go")
	Apply(st, []Entry{
		{Dimension: "naming", Score: 72, Note: "n"},
		{Dimension: "architecture", Score: 85},
	})

	require.Len(t, st.Assessments, 2)
	assert.Equal(t, 72.0, st.Assessments["naming"].Score)
	assert.Equal(t, 85.0, st.Assessments["architecture"].Score)
}
