package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/slopwatch/slopwatch/internal/types"
)

// suspectThreshold is the minimum prior open-finding count that makes a
// detector's sudden drop to zero suspicious. A detector crashing silently
// must not be indistinguishable from genuine mass-fixing.
const suspectThreshold = 5

// MergeOptions tunes one merge_scan invocation.
type MergeOptions struct {
	// ForceResolve bypasses the suspect guard: a detector that went from
	// many open findings to zero gets its findings auto-resolved anyway.
	ForceResolve bool

	// Ignore patterns drop matching raw findings before they enter state.
	Ignore []string

	Logger hclog.Logger
}

// MergeSummary is the delta produced by merging one scan into state.
type MergeSummary struct {
	ScanID           int
	New              int
	Reopened         int
	AutoResolved     int
	SuspectHeld      int
	Released         int // suspect-held findings force-resolved this scan
	TotalCurrent     int
	SkippedMalformed int
	SkippedIgnored   int
	SuspectDetectors []string
	ChronicReopeners []string
}

// Merge reconciles a fresh scan's findings against persisted state.
//
// New identities open; seen identities refresh; resolved identities that
// reappear regress to open; open identities that vanish from a scan covering
// their scope auto-resolve to fixed -- unless the suspect guard holds them.
// Findings outside the scan's scope (language, path, or detector set) are
// left untouched: out-of-scope absence is not evidence of fixing.
//
// Merge assigns the scan its monotonic ID and records its metadata. It never
// fails on a malformed record; those are skipped and counted. Idempotent:
// re-merging identical findings under identical scope changes nothing but
// timestamps and counters.
func Merge(st *ProjectState, fresh []types.Finding, scan types.ScanRecord, opts MergeOptions) (MergeSummary, error) {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	now := time.Now().UTC()
	st.ScanCount++
	scan.ScanID = st.ScanCount
	if scan.Timestamp.IsZero() {
		scan.Timestamp = now
	}
	st.LastScan = &scan.Timestamp

	summary := MergeSummary{ScanID: scan.ScanID}

	// Open counts per detector before this scan, for the suspect guard.
	prevOpen := st.OpenCountByDetector()

	ignore := append(append([]string{}, st.IgnorePatterns...), opts.Ignore...)
	current := upsert(st, fresh, scan, now, ignore, &summary, log)

	suspects := suspectDetectors(prevOpen, current.byDetector, scan, opts.ForceResolve)
	if err := reconcileAbsent(st, current.ids, suspects, scan, now, opts.ForceResolve, &summary); err != nil {
		return summary, err
	}

	summary.SuspectDetectors = sortedKeys(suspects)
	for id, f := range st.Findings {
		if f.ReopenCount >= 2 && f.Status == types.StatusOpen {
			summary.ChronicReopeners = append(summary.ChronicReopeners, id)
		}
	}
	sort.Strings(summary.ChronicReopeners)

	st.AppendScan(scan)
	return summary, nil
}

type currentScan struct {
	ids        map[string]bool
	byDetector map[string]int
}

// upsert inserts new findings and refreshes or reopens existing ones.
func upsert(st *ProjectState, fresh []types.Finding, scan types.ScanRecord, now time.Time, ignore []string, summary *MergeSummary, log hclog.Logger) currentScan {
	current := currentScan{ids: make(map[string]bool), byDetector: make(map[string]int)}

	for i := range fresh {
		f := fresh[i]
		if err := f.Validate(); err != nil {
			summary.SkippedMalformed++
			log.Warn("skipping malformed finding", "detector", f.Detector, "error", err)
			continue
		}
		if matchesAnyIgnore(f.ID, f.File, ignore) {
			summary.SkippedIgnored++
			continue
		}
		if current.ids[f.ID] {
			// Duplicate identity within one scan is a detector bug, not a
			// merge concern. First record wins.
			log.Warn("duplicate finding identity in scan", "id", f.ID)
			continue
		}
		current.ids[f.ID] = true
		current.byDetector[f.Detector]++

		old, exists := st.Findings[f.ID]
		if !exists {
			st.Findings[f.ID] = &types.FindingState{
				Finding:       f,
				Status:        types.StatusOpen,
				FirstSeenScan: scan.ScanID,
				LastSeenScan:  scan.ScanID,
				FirstSeen:     now,
				LastSeen:      now,
			}
			summary.New++
			continue
		}

		// Refresh detector-owned fields; lifecycle fields stay.
		old.Tier = f.Tier
		old.Category = f.Category
		old.Message = f.Message
		old.Line = f.Line
		old.LastSeenScan = scan.ScanID
		old.LastSeen = now
		if f.Zone != "" {
			old.Zone = f.Zone
		}
		if old.Lang == "" {
			old.Lang = f.Lang
		}

		switch {
		case old.Status.IsTerminal():
			// Regression: the issue came back, so the resolution no longer
			// stands. FirstSeenScan resets to date the regression, not the
			// original sighting; FirstSeen keeps the full history.
			old.ReopenCount++
			old.Status = types.StatusOpen
			old.FirstSeenScan = scan.ScanID
			old.ResolvedAt = nil
			old.Note = "reopened: reappeared in scan"
			summary.Reopened++
		case old.Status == types.StatusSuspectHeld:
			// The detector is producing findings again; the hold is moot.
			old.Status = types.StatusOpen
		}
	}
	summary.TotalCurrent = len(current.ids)
	return current
}

// suspectDetectors returns detectors whose open-finding count dropped from at
// least suspectThreshold to zero in one step. Detectors outside the scan's
// detector set are out of scope, not suspect.
func suspectDetectors(prevOpen, current map[string]int, scan types.ScanRecord, forceResolve bool) map[string]bool {
	if forceResolve {
		return nil
	}
	suspects := make(map[string]bool)
	for detector, n := range prevOpen {
		if n >= suspectThreshold && current[detector] == 0 && scan.Ran(detector) {
			suspects[detector] = true
		}
	}
	return suspects
}

// reconcileAbsent handles open findings missing from the fresh scan: in-scope
// ones auto-resolve to fixed, suspect detectors' candidates are held, and
// previously held findings are released when --force-resolve confirms them.
func reconcileAbsent(st *ProjectState, currentIDs map[string]bool, suspects map[string]bool, scan types.ScanRecord, now time.Time, forceResolve bool, summary *MergeSummary) error {
	for id, old := range st.Findings {
		if currentIDs[id] {
			continue
		}
		inScope := old.Lang == scan.Lang && scan.Ran(old.Detector) && scan.CoversFile(old.File)

		switch old.Status {
		case types.StatusOpen:
			if !inScope {
				continue
			}
			if suspects[old.Detector] {
				old.Status = types.StatusSuspectHeld
				old.Note = fmt.Sprintf("held: detector %s dropped from %d+ open findings to zero; rerun with --force-resolve to confirm", old.Detector, suspectThreshold)
				summary.SuspectHeld++
				continue
			}
			if err := autoResolve(old, scan, now); err != nil {
				return err
			}
			summary.AutoResolved++

		case types.StatusSuspectHeld:
			if !inScope || !forceResolve {
				continue
			}
			if err := autoResolve(old, scan, now); err != nil {
				return err
			}
			summary.Released++
			summary.AutoResolved++
		}
	}
	return nil
}

// autoResolve flips an absent finding to fixed. The scope check is an
// invariant re-assertion: callers only pass in-scope findings, and a
// violation here is a merge-engine defect surfaced loudly.
func autoResolve(f *types.FindingState, scan types.ScanRecord, now time.Time) error {
	if f.Lang != scan.Lang || !scan.Ran(f.Detector) || !scan.CoversFile(f.File) {
		return &types.ScopeViolationError{FindingID: f.ID, ScanPath: scan.ScanPath}
	}
	f.Status = types.StatusFixed
	resolvedAt := now
	f.ResolvedAt = &resolvedAt
	f.Note = "disappeared from scan"
	return nil
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
