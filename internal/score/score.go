// Package score computes tier-weighted health scores from persisted finding
// state under lenient and strict policies.
package score

import (
	"github.com/slopwatch/slopwatch/internal/findings"
	"github.com/slopwatch/slopwatch/internal/state"
	"github.com/slopwatch/slopwatch/internal/types"
)

// Weight split between the deterministic detector score and the imported
// subjective review score. Subjective review dominates once present; until
// the first import it contributes nothing at all.
const (
	MechanicalWeightFraction = 0.4
	SubjectiveWeightFraction = 0.6
)

// TierBreakdown tallies one tier's findings per status.
type TierBreakdown struct {
	Open          int `json:"open"`
	Fixed         int `json:"fixed"`
	Wontfix       int `json:"wontfix"`
	FalsePositive int `json:"false_positive"`
	Ignored       int `json:"ignored"`
	SuspectHeld   int `json:"suspect_held"`
	OpenWeight    int `json:"open_weight"`
}

// Result is the scoring engine's structured output, consumed by reporting.
// Scores are kept at full precision; rounding happens at display time.
type Result struct {
	// Lenient excludes intentionally-dismissed (wontfix) debt.
	Lenient float64 `json:"lenient"`
	// Strict counts wontfix as unresolved debt.
	Strict float64 `json:"strict"`
	// StrictAllDetected additionally counts ignored and zone-excluded
	// findings, for visibility without affecting the health score.
	StrictAllDetected float64 `json:"strict_all_detected"`
	// Mechanical is the lenient score over deterministic detector findings.
	Mechanical float64 `json:"mechanical"`
	// Subjective is the imported review average; nil until the first import.
	Subjective *float64 `json:"subjective,omitempty"`
	// Overall blends mechanical and subjective under the fixed split.
	Overall float64 `json:"overall"`

	ByTier map[types.Tier]*TierBreakdown `json:"by_tier"`
}

type debtTally struct {
	total, lenient, strict float64
}

func (d *debtTally) score(debt float64) float64 {
	if d.total <= 0 {
		return 100.0
	}
	s := 100.0 * (1.0 - debt/d.total)
	if s < 0 {
		return 0
	}
	return s
}

// Compute scores the current state. Per-finding rules:
//
//   - Zone-excluded findings (test/config/generated/vendor, plus per-detector
//     exclusions) are invisible to lenient/strict but appear in
//     strict_all_detected.
//   - false_positive and ignored findings are excluded from lenient and
//     strict entirely; they are reviewer judgment, not unaddressed debt.
//   - Suspect-held findings count as open debt in every channel. Holding a
//     detector's findings must never raise the score; that would reward the
//     exact failure the hold exists to catch.
func Compute(st *state.ProjectState, policies *findings.PolicyTable) Result {
	var counted, mech, all debtTally
	byTier := make(map[types.Tier]*TierBreakdown)

	for _, f := range st.Findings {
		w := float64(f.Tier.Weight())
		zone := f.Zone
		if zone == "" {
			zone = types.ZoneProduction
		}

		tb := byTier[f.Tier]
		if tb == nil {
			tb = &TierBreakdown{}
			byTier[f.Tier] = tb
		}
		switch f.Status {
		case types.StatusOpen:
			tb.Open++
			tb.OpenWeight += f.Tier.Weight()
		case types.StatusFixed:
			tb.Fixed++
		case types.StatusWontfix:
			tb.Wontfix++
		case types.StatusFalsePositive:
			tb.FalsePositive++
		case types.StatusIgnored:
			tb.Ignored++
		case types.StatusSuspectHeld:
			tb.SuspectHeld++
			tb.OpenWeight += f.Tier.Weight()
		}

		// Visibility channel: everything the latest scans know about except
		// confirmed false positives.
		if f.Status != types.StatusFalsePositive {
			all.total += w
			switch f.Status {
			case types.StatusOpen, types.StatusWontfix, types.StatusIgnored, types.StatusSuspectHeld:
				all.strict += w
			}
		}

		if !zone.CountsTowardScore() || policies.Lookup(f.Detector).ZoneExcluded(zone) {
			continue
		}
		if f.Status == types.StatusFalsePositive || f.Status == types.StatusIgnored {
			continue
		}

		counted.total += w
		if f.Category == types.CategoryMechanical {
			mech.total += w
		}
		switch f.Status {
		case types.StatusOpen, types.StatusSuspectHeld:
			counted.lenient += w
			counted.strict += w
			if f.Category == types.CategoryMechanical {
				mech.lenient += w
			}
		case types.StatusWontfix:
			counted.strict += w
		}
	}

	result := Result{
		Lenient:           counted.score(counted.lenient),
		Strict:            counted.score(counted.strict),
		StrictAllDetected: all.score(all.strict),
		Mechanical:        mech.score(mech.lenient),
		ByTier:            byTier,
	}

	if subj, ok := subjectiveAverage(st); ok {
		result.Subjective = &subj
		result.Overall = MechanicalWeightFraction*result.Mechanical + SubjectiveWeightFraction*subj
	} else {
		// No review imported yet: the subjective half contributes zero
		// weight rather than averaging in a default "good" score.
		result.Overall = result.Mechanical
	}
	return result
}

func subjectiveAverage(st *state.ProjectState) (float64, bool) {
	if len(st.Assessments) == 0 {
		return 0, false
	}
	var sum float64
	for _, a := range st.Assessments {
		sum += a.Score
	}
	return sum / float64(len(st.Assessments)), true
}
