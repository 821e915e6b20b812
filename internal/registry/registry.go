// Package registry holds the language plugin contract and its registration
// table. The registry is an explicit object constructed at startup and passed
// by reference to the scan pipeline; there is no ambient global lookup, and
// registration is the only sanctioned dynamic-dispatch boundary.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slopwatch/slopwatch/internal/findings"
	"github.com/slopwatch/slopwatch/internal/zones"
)

// PhaseContext gives a detector phase everything it needs to examine the
// scanned file set. Files are relative paths already filtered to the
// plugin's extensions, the scan path, and the exclusion patterns.
type PhaseContext struct {
	Root     string
	ScanPath string
	Files    []string
}

// Phase is one step in a language's scan pipeline. Each phase runs one
// detector and returns raw findings; normalization happens downstream.
// Phases must return fully materialized results: the merge engine never
// consumes a partially-run phase.
type Phase struct {
	Label    string
	Detector string
	Slow     bool
	Run      func(ctx context.Context, pc PhaseContext) ([]findings.Raw, error)
}

// FunctionInfo describes one extracted function, for detectors that work at
// function granularity (duplication, complexity).
type FunctionInfo struct {
	Name      string
	File      string
	StartLine int
	EndLine   int
}

// LanguagePlugin is the capability set a language integration provides.
// Phases are mandatory; BuildDepGraph and ExtractFunctions are optional
// capabilities a plugin may omit.
type LanguagePlugin struct {
	Name       string
	Extensions []string
	ZoneRules  []zones.Rule
	Phases     []Phase

	// BuildDepGraph parses imports and returns file -> import paths.
	BuildDepGraph func(ctx context.Context, pc PhaseContext) (map[string][]string, error)

	// ExtractFunctions lists functions in one file.
	ExtractFunctions func(path string) ([]FunctionInfo, error)
}

// validate is the structural contract check applied at registration.
// An incomplete plugin fails fast here instead of surfacing as a nil
// dereference mid-scan.
func (p *LanguagePlugin) validate() error {
	if p.Name == "" {
		return fmt.Errorf("plugin has no name")
	}
	if len(p.Extensions) == 0 {
		return fmt.Errorf("plugin %q declares no file extensions", p.Name)
	}
	if len(p.Phases) == 0 {
		return fmt.Errorf("plugin %q declares no detector phases", p.Name)
	}
	seen := make(map[string]bool)
	for i, phase := range p.Phases {
		if phase.Label == "" {
			return fmt.Errorf("plugin %q: phase %d has no label", p.Name, i)
		}
		if phase.Detector == "" {
			return fmt.Errorf("plugin %q: phase %q has no detector name", p.Name, phase.Label)
		}
		if phase.Run == nil {
			return fmt.Errorf("plugin %q: phase %q has no run function", p.Name, phase.Label)
		}
		if seen[phase.Detector] {
			return fmt.Errorf("plugin %q: duplicate detector %q", p.Name, phase.Detector)
		}
		seen[phase.Detector] = true
	}
	return nil
}

// Detectors returns the plugin's detector names in phase order.
func (p *LanguagePlugin) Detectors() []string {
	names := make([]string, len(p.Phases))
	for i, phase := range p.Phases {
		names[i] = phase.Detector
	}
	return names
}

// Registry is the static registration table built at startup.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]*LanguagePlugin
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{plugins: make(map[string]*LanguagePlugin)}
}

// Register adds a plugin after the structural contract check.
func (r *Registry) Register(p *LanguagePlugin) error {
	if err := p.validate(); err != nil {
		return fmt.Errorf("invalid language plugin: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.Name]; exists {
		return fmt.Errorf("language %q already registered", p.Name)
	}
	r.plugins[p.Name] = p
	return nil
}

// Get returns a registered plugin by language name.
func (r *Registry) Get(name string) (*LanguagePlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Names returns registered language names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
