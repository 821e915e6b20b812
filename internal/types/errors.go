package types

import "fmt"

// MalformedFindingError marks a single raw detector record that failed
// normalization. Recovered locally: the record is dropped with a warning and
// the scan continues.
type MalformedFindingError struct {
	Detector string
	Reason   string
}

func (e *MalformedFindingError) Error() string {
	if e.Detector == "" {
		return fmt.Sprintf("malformed finding: %s", e.Reason)
	}
	return fmt.Sprintf("malformed finding from %s: %s", e.Detector, e.Reason)
}

// PersistenceError marks a state file that could not be read or written.
// Fatal for the current invocation; no partial state is written.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UnknownIdentityError marks a resolution pattern that matched zero findings.
type UnknownIdentityError struct {
	Pattern string
}

func (e *UnknownIdentityError) Error() string {
	return fmt.Sprintf("no findings match pattern %q", e.Pattern)
}

// MissingJustificationError marks a resolution attempt that lacks the
// required note or attestation.
type MissingJustificationError struct {
	Status Status
	Reason string
}

func (e *MissingJustificationError) Error() string {
	return fmt.Sprintf("cannot resolve to %s: %s", e.Status, e.Reason)
}

// ScopeViolationError marks an attempted auto-resolve outside the scan scope.
// This is a logic invariant violation, not a runtime condition: correct merge
// code never produces it, and tests fail loud when it appears.
type ScopeViolationError struct {
	FindingID string
	ScanPath  string
}

func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("auto-resolve of %s outside scan scope %q", e.FindingID, e.ScanPath)
}
