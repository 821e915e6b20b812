// Package state owns the persisted finding-lifecycle state: one JSON file per
// (project, language) under .slopwatch/. All reads and writes go through the
// Store; no other component touches the files directly.
package state

import (
	"time"

	"github.com/slopwatch/slopwatch/internal/types"
)

// CurrentVersion is the state schema version. Additions are backward
// compatible: unknown fields in older binaries are ignored on load.
const CurrentVersion = 1

// maxScanRecords bounds the retained scan metadata window.
const maxScanRecords = 50

// maxHistoryEntries bounds the trajectory history window.
const maxHistoryEntries = 20

// ProjectState is the root aggregate for one language's findings in one
// project. State files are independent across languages, so a Python scan
// cannot mutate TypeScript state.
type ProjectState struct {
	Version      int                            `json:"version"`
	Lang         string                         `json:"lang"`
	Created      time.Time                      `json:"created"`
	LastScan     *time.Time                     `json:"last_scan,omitempty"`
	ScanCount    int                            `json:"scan_count"`
	Findings     map[string]*types.FindingState `json:"findings"`
	Scans        []types.ScanRecord             `json:"scans,omitempty"`
	Assessments  map[string]Assessment          `json:"subjective_assessments,omitempty"`
	History      []HistoryEntry                 `json:"scan_history,omitempty"`
	TargetStrict float64                        `json:"target_strict,omitempty"`

	// IgnorePatterns suppress matching findings at merge time, in addition
	// to any patterns supplied per invocation.
	IgnorePatterns []string `json:"ignore_patterns,omitempty"`
}

// Assessment is one imported subjective dimension rating (0-100).
type Assessment struct {
	Score      float64   `json:"score"`
	ImportedAt time.Time `json:"imported_at"`
	Note       string    `json:"note,omitempty"`
}

// HistoryEntry is one scan's summary for trajectory reporting.
type HistoryEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	ScanID       int       `json:"scan_id"`
	ScanPath     string    `json:"scan_path,omitempty"`
	New          int       `json:"new"`
	AutoResolved int       `json:"auto_resolved"`
	Reopened     int       `json:"reopened"`
	SuspectHeld  int       `json:"suspect_held,omitempty"`
	Open         int       `json:"open"`
	Lenient      float64   `json:"lenient"`
	Strict       float64   `json:"strict"`
}

// NewProjectState returns an empty state for a language.
func NewProjectState(lang string) *ProjectState {
	return &ProjectState{
		Version:  CurrentVersion,
		Lang:     lang,
		Created:  time.Now().UTC(),
		Findings: make(map[string]*types.FindingState),
	}
}

// ensureDefaults repairs nil maps after a load of an older or sparse file.
func (st *ProjectState) ensureDefaults(lang string) {
	if st.Version == 0 {
		st.Version = CurrentVersion
	}
	if st.Lang == "" {
		st.Lang = lang
	}
	if st.Findings == nil {
		st.Findings = make(map[string]*types.FindingState)
	}
}

// OpenCountByDetector tallies currently-open findings per detector.
// The merge engine compares this against a fresh scan to spot detectors
// that went silent.
func (st *ProjectState) OpenCountByDetector() map[string]int {
	counts := make(map[string]int)
	for _, f := range st.Findings {
		if f.Status == types.StatusOpen {
			counts[f.Detector]++
		}
	}
	return counts
}

// CountByStatus tallies findings per lifecycle status.
func (st *ProjectState) CountByStatus() map[types.Status]int {
	counts := make(map[types.Status]int)
	for _, f := range st.Findings {
		counts[f.Status]++
	}
	return counts
}

// AppendScan records scan metadata, keeping a bounded window.
func (st *ProjectState) AppendScan(scan types.ScanRecord) {
	st.Scans = append(st.Scans, scan)
	if len(st.Scans) > maxScanRecords {
		st.Scans = st.Scans[len(st.Scans)-maxScanRecords:]
	}
}

// AppendHistory records a scan summary, keeping a bounded window.
func (st *ProjectState) AppendHistory(entry HistoryEntry) {
	st.History = append(st.History, entry)
	if len(st.History) > maxHistoryEntries {
		st.History = st.History[len(st.History)-maxHistoryEntries:]
	}
}

// SetAssessment imports or replaces one subjective dimension rating,
// clamped to the 0-100 range.
func (st *ProjectState) SetAssessment(dimension string, score float64, note string) {
	if st.Assessments == nil {
		st.Assessments = make(map[string]Assessment)
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	st.Assessments[dimension] = Assessment{Score: score, ImportedAt: time.Now().UTC(), Note: note}
}
