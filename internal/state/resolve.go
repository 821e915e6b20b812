package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/slopwatch/slopwatch/internal/types"
)

// AttestationMarker is the acknowledgement string an attestation must carry
// when attestation-required mode is active. It forces the resolver to state
// that the claim was actually checked, not just asserted.
const AttestationMarker = "I-verified:"

// ResolveOptions carries the justification for a resolution.
type ResolveOptions struct {
	Note        string
	Attestation string

	// RequireAttestation demands the attestation acknowledgement marker for
	// fixed and wontfix transitions (stricter review workflows).
	RequireAttestation bool
}

// Resolve applies a user decision to every finding matched by the patterns.
// All matched findings update together or not at all: validation happens
// before any mutation, and the caller commits the whole state in one store
// transaction.
//
// Idempotent: findings already in the target status are matched and returned
// unchanged. A pattern matching nothing is an UnknownIdentityError.
func Resolve(st *ProjectState, patterns []string, status types.Status, opts ResolveOptions) ([]*types.FindingState, error) {
	if !status.IsValid() || !status.IsTerminal() {
		return nil, fmt.Errorf("cannot resolve to status %q", status)
	}
	if status.NeedsJustification() && strings.TrimSpace(opts.Note) == "" {
		return nil, &types.MissingJustificationError{
			Status: status,
			Reason: "a --note recording your reasoning is required",
		}
	}
	if opts.RequireAttestation && (status == types.StatusFixed || status == types.StatusWontfix) &&
		!strings.Contains(opts.Attestation, AttestationMarker) {
		return nil, &types.MissingJustificationError{
			Status: status,
			Reason: fmt.Sprintf("attestation mode is active: --attest must include %q", AttestationMarker),
		}
	}

	// Gather all matches up front so a missing pattern aborts before any
	// finding is touched.
	seen := make(map[string]bool)
	var toUpdate, unchanged []*types.FindingState
	for _, pattern := range patterns {
		matched := 0
		for id, f := range st.Findings {
			if !matchesPattern(id, f, pattern) {
				continue
			}
			switch f.Status {
			case status:
				matched++
				if !seen[id] {
					seen[id] = true
					unchanged = append(unchanged, f)
				}
			case types.StatusOpen, types.StatusSuspectHeld:
				matched++
				if !seen[id] {
					seen[id] = true
					toUpdate = append(toUpdate, f)
				}
			}
		}
		if matched == 0 {
			return nil, &types.UnknownIdentityError{Pattern: pattern}
		}
	}

	now := time.Now().UTC()
	for _, f := range toUpdate {
		f.Status = status
		f.Note = opts.Note
		f.Attestation = opts.Attestation
		resolvedAt := now
		f.ResolvedAt = &resolvedAt
	}

	return append(toUpdate, unchanged...), nil
}
