package findings

import (
	"path/filepath"
	"strings"

	"github.com/slopwatch/slopwatch/internal/types"
)

// Raw is one record as emitted by a detector phase, before normalization.
// Detectors fill Detector, File, Name, and Message; everything else is
// attached by the normalizer.
type Raw struct {
	Detector string
	File     string
	Name     string
	Line     int
	Message  string
}

// ScanContext carries the scope under which raw findings were produced.
type ScanContext struct {
	Lang     string
	ScanPath string
	Root     string
}

// Normalize converts a raw detector record into a canonical Finding with a
// stable identity. Pure transform: same raw input yields the same identity
// across process runs. Returns MalformedFindingError when required fields are
// missing; the caller decides whether to drop the record or abort.
func Normalize(raw Raw, ctx ScanContext, policies *PolicyTable) (types.Finding, error) {
	if raw.Detector == "" {
		return types.Finding{}, &types.MalformedFindingError{Reason: "missing detector"}
	}
	if raw.File == "" {
		return types.Finding{}, &types.MalformedFindingError{Detector: raw.Detector, Reason: "missing file"}
	}
	if raw.Name == "" && raw.Message == "" {
		return types.Finding{}, &types.MalformedFindingError{Detector: raw.Detector, Reason: "missing name and message"}
	}

	file := relPath(raw.File, ctx.Root)
	policy := policies.Lookup(raw.Detector)

	return types.Finding{
		ID:       types.FindingID(raw.Detector, file, raw.Name),
		Detector: raw.Detector,
		File:     file,
		Name:     raw.Name,
		Line:     raw.Line,
		Tier:     policy.Tier,
		Category: policy.Category,
		Message:  raw.Message,
		Lang:     ctx.Lang,
		ScanPath: ctx.ScanPath,
	}, nil
}

// relPath normalizes a file path to be relative to the project root with
// forward slashes, so identities are stable regardless of how the detector
// spelled the path.
func relPath(file, root string) string {
	if root != "" {
		if r, err := filepath.Rel(root, file); err == nil && !strings.HasPrefix(r, "..") {
			file = r
		}
	}
	return filepath.ToSlash(filepath.Clean(file))
}
