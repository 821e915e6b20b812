package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindingID(t *testing.T) {
	assert.Equal(t, "dupes::src/a.go::parseHeader", FindingID("dupes", "src/a.go", "parseHeader"))
	// File-level findings have no name component
	assert.Equal(t, "structural::src/big.go", FindingID("structural", "src/big.go", ""))
}

func TestFindingID_Deterministic(t *testing.T) {
	a := FindingID("gods", "src/server.go", "Server")
	b := FindingID("gods", "src/server.go", "Server")
	assert.Equal(t, a, b)
}

func TestFindingValidate(t *testing.T) {
	f := Finding{
		ID:       FindingID("dupes", "a.go", "x"),
		Detector: "dupes",
		File:     "a.go",
		Name:     "x",
		Tier:     TierQuickFix,
		Category: CategoryMechanical,
	}
	assert.NoError(t, f.Validate())

	missing := f
	missing.Detector = ""
	assert.Error(t, missing.Validate())

	badTier := f
	badTier.Tier = 9
	assert.Error(t, badTier.Validate())
}

func TestTierWeight(t *testing.T) {
	assert.Equal(t, 1, TierAutoFix.Weight())
	assert.Equal(t, 4, TierMajorRefactor.Weight())
	// Out-of-range tiers fall back to the judgment weight
	assert.Equal(t, 3, Tier(0).Weight())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusFixed.IsTerminal())
	assert.True(t, StatusWontfix.IsTerminal())
	assert.False(t, StatusOpen.IsTerminal())
	assert.False(t, StatusSuspectHeld.IsTerminal())
}

func TestStatusNeedsJustification(t *testing.T) {
	assert.True(t, StatusWontfix.NeedsJustification())
	assert.True(t, StatusIgnored.NeedsJustification())
	assert.False(t, StatusFixed.NeedsJustification())
	assert.False(t, StatusFalsePositive.NeedsJustification())
}

func TestZoneCountsTowardScore(t *testing.T) {
	assert.True(t, ZoneProduction.CountsTowardScore())
	assert.True(t, ZoneScript.CountsTowardScore())
	assert.False(t, ZoneTest.CountsTowardScore())
	assert.False(t, ZoneVendor.CountsTowardScore())
	assert.False(t, ZoneGenerated.CountsTowardScore())
}

func TestScanRecordCoversFile(t *testing.T) {
	scan := ScanRecord{ScanID: 1, Lang: "go", ScanPath: "src"}
	assert.True(t, scan.CoversFile("src/a.go"))
	assert.True(t, scan.CoversFile("src"))
	assert.True(t, scan.CoversFile(".")) // holistic findings are always in scope
	assert.False(t, scan.CoversFile("other/file.go"))
	assert.False(t, scan.CoversFile("srcx/a.go"))

	root := ScanRecord{ScanID: 2, Lang: "go", ScanPath: "."}
	assert.True(t, root.CoversFile("anything/at/all.go"))
}

func TestScanRecordRan(t *testing.T) {
	scan := ScanRecord{DetectorsRun: []string{"dupes", "structural"}}
	assert.True(t, scan.Ran("dupes"))
	assert.False(t, scan.Ran("security"))
}
