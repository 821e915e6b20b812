// Package review imports subjective assessment results. Assessments are
// human or external-tool judgments on dimensions mechanical detectors cannot
// measure (naming quality, architectural coherence), written as a small YAML
// document and blended into the overall score.
package review

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/slopwatch/slopwatch/internal/state"
)

// Entry is one dimension's assessment.
type Entry struct {
	Dimension string  `yaml:"-"`
	Score     float64 `yaml:"score"`
	Note      string  `yaml:"note"`
}

type reviewFile struct {
	Assessments map[string]Entry `yaml:"assessments"`
}

// Load parses an assessment file. Dimensions are returned sorted so import
// order is stable.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading assessment file: %w", err)
	}

	var file reviewFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing assessment file %s: %w", path, err)
	}
	if len(file.Assessments) == 0 {
		return nil, fmt.Errorf("assessment file %s has no assessments", path)
	}

	entries := make([]Entry, 0, len(file.Assessments))
	for dim, e := range file.Assessments {
		if dim == "" {
			return nil, fmt.Errorf("assessment file %s has an unnamed dimension", path)
		}
		if e.Score < 0 || e.Score > 100 {
			return nil, fmt.Errorf("assessment %q score %.1f out of range [0, 100]", dim, e.Score)
		}
		e.Dimension = dim
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Dimension < entries[j].Dimension })
	return entries, nil
}

// Apply records the entries on project state.
func Apply(st *state.ProjectState, entries []Entry) {
	for _, e := range entries {
		st.SetAssessment(e.Dimension, e.Score, e.Note)
	}
}
