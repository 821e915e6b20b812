// Package findings converts raw detector output into canonical findings with
// stable identities and policy-assigned tiers.
package findings

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/slopwatch/slopwatch/internal/types"
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// DetectorPolicy assigns scoring metadata to one detector's findings.
// Tier and category come from this static table, never from the detector
// itself, so a misbehaving detector cannot inflate its own severity.
type DetectorPolicy struct {
	Detector      string       `yaml:"detector"`
	Tier          types.Tier   `yaml:"tier"`
	Category      types.Category `yaml:"category"`
	ExcludedZones []types.Zone `yaml:"excluded_zones,omitempty"`
}

// ZoneExcluded reports whether this detector's findings are dropped from
// scoring in the given zone (on top of the global zone exclusions).
func (p DetectorPolicy) ZoneExcluded(zone types.Zone) bool {
	for _, z := range p.ExcludedZones {
		if z == zone {
			return true
		}
	}
	return false
}

// PolicyTable maps detector names to their scoring policies.
type PolicyTable struct {
	policies map[string]DetectorPolicy
}

type policyFile struct {
	Detectors []DetectorPolicy `yaml:"detectors"`
}

// DefaultPolicies returns the built-in policy table.
func DefaultPolicies() *PolicyTable {
	table, err := parsePolicies(defaultPolicyYAML)
	if err != nil {
		// The embedded table is validated by tests; a parse failure here is
		// a build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded policy table invalid: %v", err))
	}
	return table
}

// LoadPolicies reads a policy table from a YAML file, merged over the
// built-in defaults so projects only declare overrides.
func LoadPolicies(path string) (*PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy table: %w", err)
	}
	override, err := parsePolicies(data)
	if err != nil {
		return nil, fmt.Errorf("parsing policy table %s: %w", path, err)
	}
	table := DefaultPolicies()
	for name, p := range override.policies {
		table.policies[name] = p
	}
	return table, nil
}

func parsePolicies(data []byte) (*PolicyTable, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	table := &PolicyTable{policies: make(map[string]DetectorPolicy, len(file.Detectors))}
	for _, p := range file.Detectors {
		if p.Detector == "" {
			return nil, fmt.Errorf("policy entry missing detector name")
		}
		if !p.Tier.IsValid() {
			return nil, fmt.Errorf("policy for %s: invalid tier %d", p.Detector, p.Tier)
		}
		if !p.Category.IsValid() {
			return nil, fmt.Errorf("policy for %s: invalid category %q", p.Detector, p.Category)
		}
		for _, z := range p.ExcludedZones {
			if !z.IsValid() {
				return nil, fmt.Errorf("policy for %s: invalid zone %q", p.Detector, z)
			}
		}
		table.policies[p.Detector] = p
	}
	return table, nil
}

// Lookup returns the policy for a detector. Unknown detectors get a safe
// default (judgment tier, mechanical) rather than an error, so a new detector
// can ship before its policy entry lands.
func (t *PolicyTable) Lookup(detector string) DetectorPolicy {
	if p, ok := t.policies[detector]; ok {
		return p
	}
	return DetectorPolicy{Detector: detector, Tier: types.TierJudgment, Category: types.CategoryMechanical}
}

// Known reports whether the detector has an explicit policy entry.
func (t *PolicyTable) Known(detector string) bool {
	_, ok := t.policies[detector]
	return ok
}
