// Package languages provides the built-in language plugins. Each plugin
// bundles the generic mechanical detectors with language-specific tuning:
// file extensions, zone layout conventions, debug-print shapes, and an
// import parser for the dependency graph capability.
package languages

import (
	"context"

	"github.com/slopwatch/slopwatch/internal/findings"
	"github.com/slopwatch/slopwatch/internal/registry"
)

// RegisterBuiltin adds the built-in plugins to a registry.
func RegisterBuiltin(r *registry.Registry) error {
	for _, p := range []*registry.LanguagePlugin{Go(), Python()} {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// phase adapts a detector runner to the plugin phase contract.
func phase(label, detector string, run func(ctx context.Context, root string, files []string) ([]findings.Raw, error)) registry.Phase {
	return registry.Phase{
		Label:    label,
		Detector: detector,
		Run: func(ctx context.Context, pc registry.PhaseContext) ([]findings.Raw, error) {
			return run(ctx, pc.Root, pc.Files)
		},
	}
}
