package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopwatch/slopwatch/internal/types"
)

func mkFinding(detector, file, name string, tier types.Tier) types.Finding {
	return types.Finding{
		ID:       types.FindingID(detector, file, name),
		Detector: detector,
		File:     file,
		Name:     name,
		Tier:     tier,
		Category: types.CategoryMechanical,
		Message:  detector + " finding",
		Lang:     "go",
	}
}

func mkScan(path string, detectors ...string) types.ScanRecord {
	return types.ScanRecord{Lang: "go", ScanPath: path, DetectorsRun: detectors}
}

func TestMerge_OpensNewFindings(t *testing.T) {
	st := NewProjectState("go")
	fresh := []types.Finding{
		mkFinding("dupes", "src/a.go", "A", types.TierQuickFix),
		mkFinding("gods", "src/b.go", "B", types.TierMajorRefactor),
	}

	summary, err := Merge(st, fresh, mkScan("src", "dupes", "gods"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.New)
	assert.Equal(t, 1, summary.ScanID)
	require.Len(t, st.Findings, 2)
	f := st.Findings["dupes::src/a.go::A"]
	require.NotNil(t, f)
	assert.Equal(t, types.StatusOpen, f.Status)
	assert.Equal(t, 1, f.FirstSeenScan)
	assert.Equal(t, 1, f.LastSeenScan)
}

func TestMerge_Idempotent(t *testing.T) {
	st := NewProjectState("go")
	fresh := []types.Finding{
		mkFinding("dupes", "src/a.go", "A", types.TierQuickFix),
		mkFinding("gods", "src/b.go", "B", types.TierMajorRefactor),
	}

	_, err := Merge(st, fresh, mkScan("src", "dupes", "gods"), MergeOptions{})
	require.NoError(t, err)
	summary, err := Merge(st, fresh, mkScan("src", "dupes", "gods"), MergeOptions{})
	require.NoError(t, err)

	// No duplicate creation, no spurious status flips
	assert.Equal(t, 0, summary.New)
	assert.Equal(t, 0, summary.AutoResolved)
	assert.Equal(t, 0, summary.Reopened)
	require.Len(t, st.Findings, 2)
	for _, f := range st.Findings {
		assert.Equal(t, types.StatusOpen, f.Status)
		assert.Equal(t, 1, f.FirstSeenScan)
		assert.Equal(t, 2, f.LastSeenScan)
	}
}

func TestMerge_AutoResolvesDisappeared(t *testing.T) {
	st := NewProjectState("go")
	fresh := []types.Finding{
		mkFinding("dupes", "src/a.go", "A", types.TierQuickFix),
		mkFinding("dupes", "src/b.go", "B", types.TierQuickFix),
	}
	_, err := Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	summary, err := Merge(st, fresh[1:], mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AutoResolved)
	assert.Equal(t, types.StatusFixed, st.Findings["dupes::src/a.go::A"].Status)
	assert.NotNil(t, st.Findings["dupes::src/a.go::A"].ResolvedAt)
	assert.Equal(t, types.StatusOpen, st.Findings["dupes::src/b.go::B"].Status)
}

func TestMerge_ScopeContainment_Path(t *testing.T) {
	st := NewProjectState("go")
	inScope := mkFinding("dupes", "src/a.go", "A", types.TierQuickFix)
	outside := mkFinding("dupes", "other/file.go", "X", types.TierQuickFix)
	_, err := Merge(st, []types.Finding{inScope, outside}, mkScan(".", "dupes"), MergeOptions{})
	require.NoError(t, err)
	before := *st.Findings["dupes::other/file.go::X"]

	// Scan only /src: the finding under /other must be left untouched even
	// though it is absent from the fresh results.
	summary, err := Merge(st, nil, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AutoResolved)
	after := st.Findings["dupes::other/file.go::X"]
	assert.Equal(t, types.StatusOpen, after.Status)
	assert.Equal(t, before.LastSeenScan, after.LastSeenScan)
	assert.Equal(t, before.FirstSeenScan, after.FirstSeenScan)
}

func TestMerge_ScopeContainment_Detector(t *testing.T) {
	st := NewProjectState("go")
	_, err := Merge(st, []types.Finding{
		mkFinding("dupes", "src/a.go", "A", types.TierQuickFix),
		mkFinding("gods", "src/b.go", "B", types.TierMajorRefactor),
	}, mkScan("src", "dupes", "gods"), MergeOptions{})
	require.NoError(t, err)

	// Second scan only ran dupes: the gods finding's absence is not
	// evidence of fixing.
	summary, err := Merge(st, []types.Finding{mkFinding("dupes", "src/a.go", "A", types.TierQuickFix)},
		mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AutoResolved)
	assert.Equal(t, types.StatusOpen, st.Findings["gods::src/b.go::B"].Status)
}

func TestMerge_ScopeContainment_Lang(t *testing.T) {
	st := NewProjectState("go")
	_, err := Merge(st, []types.Finding{mkFinding("dupes", "src/a.go", "A", types.TierQuickFix)},
		mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	// A scan for another language must not close go findings.
	pyScan := types.ScanRecord{Lang: "python", ScanPath: "src", DetectorsRun: []string{"dupes"}}
	summary, err := Merge(st, nil, pyScan, MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AutoResolved)
	assert.Equal(t, types.StatusOpen, st.Findings["dupes::src/a.go::A"].Status)
}

func TestMerge_SuspectGuard(t *testing.T) {
	st := NewProjectState("go")
	var fresh []types.Finding
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		fresh = append(fresh, mkFinding("dupes", "src/"+name+".go", name, types.TierQuickFix))
	}
	_, err := Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	// 6 open findings drop to 0 in one step: hold, don't resolve.
	summary, err := Merge(st, nil, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AutoResolved)
	assert.Equal(t, 6, summary.SuspectHeld)
	assert.Equal(t, []string{"dupes"}, summary.SuspectDetectors)
	for _, f := range st.Findings {
		assert.Equal(t, types.StatusSuspectHeld, f.Status)
	}
}

func TestMerge_SuspectGuard_ForceResolve(t *testing.T) {
	st := NewProjectState("go")
	var fresh []types.Finding
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		fresh = append(fresh, mkFinding("dupes", "src/"+name+".go", name, types.TierQuickFix))
	}
	_, err := Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	summary, err := Merge(st, nil, mkScan("src", "dupes"), MergeOptions{ForceResolve: true})
	require.NoError(t, err)

	assert.Equal(t, 6, summary.AutoResolved)
	assert.Equal(t, 0, summary.SuspectHeld)
	for _, f := range st.Findings {
		assert.Equal(t, types.StatusFixed, f.Status)
	}
}

func TestMerge_SuspectGuard_BelowThreshold(t *testing.T) {
	st := NewProjectState("go")
	fresh := []types.Finding{
		mkFinding("dupes", "src/a.go", "A", types.TierQuickFix),
		mkFinding("dupes", "src/b.go", "B", types.TierQuickFix),
	}
	_, err := Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	// Only 2 open findings: a drop to zero is plausible fixing, not a crash.
	summary, err := Merge(st, nil, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.AutoResolved)
	assert.Equal(t, 0, summary.SuspectHeld)
}

func TestMerge_SuspectHeld_ReleasedByForceResolve(t *testing.T) {
	st := NewProjectState("go")
	var fresh []types.Finding
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		fresh = append(fresh, mkFinding("dupes", "src/"+name+".go", name, types.TierQuickFix))
	}
	_, err := Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)
	_, err = Merge(st, nil, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	summary, err := Merge(st, nil, mkScan("src", "dupes"), MergeOptions{ForceResolve: true})
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Released)
	for _, f := range st.Findings {
		assert.Equal(t, types.StatusFixed, f.Status)
	}
}

func TestMerge_SuspectHeld_ReopensWhenDetectorRecovers(t *testing.T) {
	st := NewProjectState("go")
	var fresh []types.Finding
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		fresh = append(fresh, mkFinding("dupes", "src/"+name+".go", name, types.TierQuickFix))
	}
	_, err := Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)
	_, err = Merge(st, nil, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	// Detector reports again: held findings it still sees go back to open.
	_, err = Merge(st, fresh, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)
	for _, f := range st.Findings {
		assert.Equal(t, types.StatusOpen, f.Status)
	}
}

func TestMerge_RegressionReopens(t *testing.T) {
	st := NewProjectState("go")
	f := mkFinding("gods", "src/b.go", "B", types.TierMajorRefactor)
	_, err := Merge(st, []types.Finding{f}, mkScan("src", "gods"), MergeOptions{})
	require.NoError(t, err)

	_, err = Resolve(st, []string{f.ID}, types.StatusWontfix, ResolveOptions{Note: "acceptable"})
	require.NoError(t, err)
	require.Equal(t, types.StatusWontfix, st.Findings[f.ID].Status)

	// The issue reappears: wontfix is not permanent once the code regresses.
	summary, err := Merge(st, []types.Finding{f}, mkScan("src", "gods"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Reopened)
	got := st.Findings[f.ID]
	assert.Equal(t, types.StatusOpen, got.Status)
	assert.Equal(t, 2, got.FirstSeenScan, "regression dates from the reopening scan")
	assert.Equal(t, 1, got.ReopenCount)
	assert.Nil(t, got.ResolvedAt)
}

func TestMerge_ChronicReopeners(t *testing.T) {
	st := NewProjectState("go")
	f := mkFinding("dupes", "src/a.go", "A", types.TierQuickFix)
	scanWith := mkScan("src", "dupes")
	scanWithout := mkScan("src", "dupes")

	var summary MergeSummary
	var err error
	for i := 0; i < 3; i++ {
		_, err = Merge(st, []types.Finding{f}, scanWith, MergeOptions{})
		require.NoError(t, err)
		summary, err = Merge(st, nil, scanWithout, MergeOptions{})
		require.NoError(t, err)
	}
	_, err = Merge(st, []types.Finding{f}, scanWith, MergeOptions{})
	require.NoError(t, err)
	summary, err = Merge(st, []types.Finding{f}, scanWith, MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{f.ID}, summary.ChronicReopeners)
}

func TestMerge_SkipsMalformedRecords(t *testing.T) {
	st := NewProjectState("go")
	good := mkFinding("dupes", "src/a.go", "A", types.TierQuickFix)
	bad := types.Finding{ID: "x", File: "src/b.go"} // no detector

	summary, err := Merge(st, []types.Finding{bad, good}, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.SkippedMalformed)
	assert.Equal(t, 1, summary.New)
	assert.Len(t, st.Findings, 1)
}

func TestMerge_DuplicateIdentityFirstWins(t *testing.T) {
	st := NewProjectState("go")
	a := mkFinding("dupes", "src/a.go", "A", types.TierQuickFix)
	dup := a
	dup.Message = "second copy"

	summary, err := Merge(st, []types.Finding{a, dup}, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.New)
	assert.Equal(t, a.Message, st.Findings[a.ID].Message)
}

func TestMerge_IgnorePatterns(t *testing.T) {
	st := NewProjectState("go")
	fresh := []types.Finding{
		mkFinding("dupes", "src/a.go", "A", types.TierQuickFix),
		mkFinding("dupes", "src/gen/b.go", "B", types.TierQuickFix),
	}

	summary, err := Merge(st, fresh, mkScan("src", "dupes"),
		MergeOptions{Ignore: []string{"src/gen/*"}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.New)
	assert.Equal(t, 1, summary.SkippedIgnored)
	assert.NotContains(t, st.Findings, "dupes::src/gen/b.go::B")
}

func TestMerge_RecordsScanMetadata(t *testing.T) {
	st := NewProjectState("go")
	_, err := Merge(st, nil, mkScan("src", "dupes"), MergeOptions{})
	require.NoError(t, err)
	_, err = Merge(st, nil, mkScan(".", "dupes", "gods"), MergeOptions{})
	require.NoError(t, err)

	require.Len(t, st.Scans, 2)
	assert.Equal(t, 1, st.Scans[0].ScanID)
	assert.Equal(t, 2, st.Scans[1].ScanID)
	assert.Equal(t, 2, st.ScanCount)
	assert.NotNil(t, st.LastScan)
}
