package engine

import (
	"github.com/kestrelwms/slotwatch/internal/model"
)

// defaultDeferrals is the exclusion table: which rule types defer to which
// higher-authority claim types. Overcapacity defers to invalid-location and
// data-integrity claims, because a pallet at a bogus or duplicated location
// must not also count toward a real location's capacity.
func defaultDeferrals() map[model.RuleType]map[model.RuleType]bool {
	return map[model.RuleType]map[model.RuleType]bool{
		model.RuleOvercapacity: {
			model.RuleInvalidLocation: true,
			model.RuleDataIntegrity:   true,
		},
	}
}

// PrecedenceManager tracks which rule has already explained each pallet's
// problem, so that causally-dependent lower-authority rules do not flag the
// same physical problem again. It is owned by a single run and never shared.
type PrecedenceManager struct {
	claims    map[string][]model.ExclusionEntry
	deferrals map[model.RuleType]map[model.RuleType]bool
}

// NewPrecedenceManager creates a manager with the default exclusion table.
func NewPrecedenceManager() *PrecedenceManager {
	return &PrecedenceManager{
		claims:    make(map[string][]model.ExclusionEntry),
		deferrals: defaultDeferrals(),
	}
}

// Register records that a rule flagged a pallet. Rules run in precedence
// order, so registrations from earlier rules are visible to every rule that
// runs after them.
func (m *PrecedenceManager) Register(palletID string, precedence int, ruleType model.RuleType, ruleName string) {
	if palletID == "" {
		return
	}
	m.claims[palletID] = append(m.claims[palletID], model.ExclusionEntry{
		PalletID:   palletID,
		RuleName:   ruleName,
		Type:       ruleType,
		Precedence: precedence,
	})
}

// IsExcluded reports whether a pallet is already claimed by a strictly
// higher-authority rule that the requesting rule type defers to. Exclusions
// are one-directional and precedence-ordered: equal precedence never
// excludes, and a rule type without a deferral entry is never excluded.
func (m *PrecedenceManager) IsExcluded(palletID string, requesting model.RuleType, requestingPrecedence int) bool {
	defersTo := m.deferrals[requesting]
	if len(defersTo) == 0 {
		return false
	}
	for _, claim := range m.claims[palletID] {
		if claim.Precedence < requestingPrecedence && defersTo[claim.Type] {
			return true
		}
	}
	return false
}

// Claims returns the exclusion entries recorded for a pallet.
func (m *PrecedenceManager) Claims(palletID string) []model.ExclusionEntry {
	return m.claims[palletID]
}
