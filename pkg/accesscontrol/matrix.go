package accesscontrol

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RoleTier orders roles by authority; a lower value strictly dominates a
// higher one. The set of tiers is deployment-specific, which is why the
// matrix is configuration rather than code.
type RoleTier int

// TierPolicy is the declarative per-tier grant: which action classes the
// tier may perform, which scope types may be assigned to it, and whether it
// is globally unrestricted or limited to the caller's own records.
type TierPolicy struct {
	Name         string      `yaml:"name"`
	Actions      []Action    `yaml:"actions"`
	ScopeTypes   []ScopeType `yaml:"scope_types"`
	Unrestricted bool        `yaml:"unrestricted"`
	SelfOnly     bool        `yaml:"self_only"`
}

func (p TierPolicy) Permits(a Action) bool {
	for _, action := range p.Actions {
		if action == a {
			return true
		}
	}
	return false
}

func (p TierPolicy) PermitsScopeType(t ScopeType) bool {
	for _, st := range p.ScopeTypes {
		if st == t {
			return true
		}
	}
	return false
}

// Matrix maps role tiers to their policies. Loaded once at process start;
// adding a tier never requires touching resolver logic.
type Matrix struct {
	Tiers map[RoleTier]TierPolicy `yaml:"tiers"`
}

func (m Matrix) Policy(t RoleTier) (TierPolicy, bool) {
	p, ok := m.Tiers[t]
	return p, ok
}

func (m Matrix) Validate() error {
	if len(m.Tiers) == 0 {
		return fmt.Errorf("accesscontrol: matrix has no tiers")
	}
	for tier, policy := range m.Tiers {
		if policy.Unrestricted && policy.SelfOnly {
			return fmt.Errorf("accesscontrol: tier %d is both unrestricted and self-only", tier)
		}
		for _, a := range policy.Actions {
			switch a {
			case ActionRead, ActionCreate, ActionUpdate, ActionDelete:
			default:
				return fmt.Errorf("accesscontrol: tier %d has unknown action %q", tier, a)
			}
		}
		for _, st := range policy.ScopeTypes {
			if !ValidScopeType(st) {
				return fmt.Errorf("accesscontrol: tier %d has unknown scope type %q", tier, st)
			}
		}
		if policy.SelfOnly && len(policy.ScopeTypes) > 0 {
			return fmt.Errorf("accesscontrol: self-only tier %d cannot carry scope types", tier)
		}
	}
	return nil
}

// TierNames returns tier → name ordered by authority, for diagnostics.
func (m Matrix) TierNames() []string {
	tiers := make([]int, 0, len(m.Tiers))
	for t := range m.Tiers {
		tiers = append(tiers, int(t))
	}
	sort.Ints(tiers)
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, fmt.Sprintf("%d:%s", t, m.Tiers[RoleTier(t)].Name))
	}
	return out
}

// LoadMatrix reads a matrix from a YAML file and validates it.
func LoadMatrix(path string) (Matrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Matrix{}, fmt.Errorf("accesscontrol: failed to read role matrix: %w", err)
	}
	var m Matrix
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Matrix{}, fmt.Errorf("accesscontrol: failed to parse role matrix: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Matrix{}, err
	}
	return m, nil
}

// DefaultMatrix mirrors the five stock tiers. Deployments that need
// different tiers ship their own roles.yml instead of editing this.
func DefaultMatrix() Matrix {
	all := []ScopeType{ScopeBusinessGroup, ScopeCompany, ScopeBranch, ScopeDepartment}
	return Matrix{
		Tiers: map[RoleTier]TierPolicy{
			1: {
				Name:         "admin",
				Actions:      []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete},
				ScopeTypes:   all,
				Unrestricted: true,
			},
			2: {
				Name:       "manager",
				Actions:    []Action{ActionRead, ActionCreate, ActionUpdate},
				ScopeTypes: all,
			},
			3: {
				Name:     "collaborator",
				Actions:  []Action{ActionUpdate},
				SelfOnly: true,
			},
			4: {
				Name:       "viewer",
				Actions:    []Action{ActionRead},
				ScopeTypes: all,
			},
			5: {
				Name: "guest",
			},
		},
	}
}
