package types

import (
	"fmt"
	"strings"
	"time"
)

// Finding represents one detector-reported issue instance in a single scan.
// Its identity is stable across scans for the same logical issue.
type Finding struct {
	ID       string   `json:"id"`
	Detector string   `json:"detector"`
	File     string   `json:"file"`
	Name     string   `json:"name"`
	Line     int      `json:"line,omitempty"`
	Tier     Tier     `json:"tier"`
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Lang     string   `json:"lang,omitempty"`
	ScanPath string   `json:"scan_path,omitempty"`
	Zone     Zone     `json:"zone,omitempty"`
}

// FindingID computes the stable composite identity for a finding.
// The same (detector, file, name) triple always yields the same ID, so a
// finding keeps its lifecycle record across repeated scans. If a detector
// renames its output, continuity is lost -- a known, accepted limitation.
func FindingID(detector, file, name string) string {
	if name == "" {
		return detector + "::" + file
	}
	return detector + "::" + file + "::" + name
}

// Validate checks that the finding carries everything the merge engine needs.
func (f *Finding) Validate() error {
	if f.Detector == "" {
		return fmt.Errorf("detector is required")
	}
	if f.File == "" {
		return fmt.Errorf("file is required")
	}
	if f.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !f.Tier.IsValid() {
		return fmt.Errorf("invalid tier: %d", f.Tier)
	}
	if !f.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", f.Category)
	}
	return nil
}

// Tier is the severity/effort weight class for a finding.
// T1 is a trivial fix; T4 is a major refactor.
type Tier int

const (
	TierAutoFix       Tier = 1
	TierQuickFix      Tier = 2
	TierJudgment      Tier = 3
	TierMajorRefactor Tier = 4
)

// IsValid checks if the tier value is valid
func (t Tier) IsValid() bool {
	return t >= TierAutoFix && t <= TierMajorRefactor
}

// Weight returns the debt weight contributed by one open finding of this tier.
func (t Tier) Weight() int {
	if !t.IsValid() {
		return int(TierJudgment)
	}
	return int(t)
}

// Category splits findings into deterministic detector output versus
// human/LLM-judged assessments.
type Category string

const (
	CategoryMechanical Category = "mechanical"
	CategorySubjective Category = "subjective"
)

// IsValid checks if the category value is valid
func (c Category) IsValid() bool {
	return c == CategoryMechanical || c == CategorySubjective
}

// Status represents the lifecycle state of a persisted finding.
type Status string

const (
	StatusOpen          Status = "open"
	StatusFixed         Status = "fixed"
	StatusWontfix       Status = "wontfix"
	StatusFalsePositive Status = "false_positive"
	StatusIgnored       Status = "ignored"
	StatusSuspectHeld   Status = "suspect_held"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusFixed, StatusWontfix, StatusFalsePositive,
		StatusIgnored, StatusSuspectHeld:
		return true
	}
	return false
}

// IsTerminal reports whether the status represents a resolved finding.
// Suspect-held findings are neither open nor resolved: they are quarantined
// until a scan confirms the detector is healthy or --force-resolve overrides.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFixed, StatusWontfix, StatusFalsePositive, StatusIgnored:
		return true
	}
	return false
}

// ResolvableStatuses are the statuses a user may resolve a finding to.
var ResolvableStatuses = []Status{StatusFixed, StatusWontfix, StatusFalsePositive, StatusIgnored}

// NeedsJustification reports whether resolving to this status requires a note.
func (s Status) NeedsJustification() bool {
	return s == StatusWontfix || s == StatusIgnored
}

// Zone classifies a file's role in the project. Findings in excluded zones
// stay visible but do not count toward the health score.
type Zone string

const (
	ZoneProduction Zone = "production"
	ZoneScript     Zone = "script"
	ZoneTest       Zone = "test"
	ZoneConfig     Zone = "config"
	ZoneGenerated  Zone = "generated"
	ZoneVendor     Zone = "vendor"
)

// IsValid checks if the zone value is valid
func (z Zone) IsValid() bool {
	switch z {
	case ZoneProduction, ZoneScript, ZoneTest, ZoneConfig, ZoneGenerated, ZoneVendor:
		return true
	}
	return false
}

// CountsTowardScore reports whether findings in this zone affect the score.
// Script code counts; tests, config, generated, and vendored code do not.
func (z Zone) CountsTowardScore() bool {
	switch z {
	case ZoneTest, ZoneConfig, ZoneGenerated, ZoneVendor:
		return false
	}
	return true
}

// FindingState is the persisted lifecycle wrapper around a finding identity.
// It is created on first observation and never hard-deleted: resolved findings
// are retained for audit and regression detection.
type FindingState struct {
	Finding
	Status        Status     `json:"status"`
	FirstSeenScan int        `json:"first_seen_scan"`
	LastSeenScan  int        `json:"last_seen_scan"`
	FirstSeen     time.Time  `json:"first_seen"`
	LastSeen      time.Time  `json:"last_seen"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	Note          string     `json:"note,omitempty"`
	Attestation   string     `json:"attestation,omitempty"`
	ReopenCount   int        `json:"reopen_count,omitempty"`
}

// ScanRecord captures one scan invocation's metadata.
type ScanRecord struct {
	ScanID       int       `json:"scan_id"`
	Lang         string    `json:"lang"`
	ScanPath     string    `json:"scan_path"`
	DetectorsRun []string  `json:"detectors_run"`
	Timestamp    time.Time `json:"timestamp"`
}

// Ran reports whether the named detector actually executed during this scan.
// A detector that did not run produces no evidence either way, so its absent
// findings must never be auto-resolved.
func (r *ScanRecord) Ran(detector string) bool {
	for _, d := range r.DetectorsRun {
		if d == detector {
			return true
		}
	}
	return false
}

// CoversFile reports whether a file path falls inside the scan's path scope.
// Holistic findings (file ".") are always in scope.
func (r *ScanRecord) CoversFile(file string) bool {
	if r.ScanPath == "" || r.ScanPath == "." {
		return true
	}
	if file == "." || file == r.ScanPath {
		return true
	}
	return strings.HasPrefix(file, strings.TrimSuffix(r.ScanPath, "/")+"/")
}
