package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RuleType identifies which evaluator a rule definition dispatches to.
type RuleType string

// Known rule types.
const (
	RuleStagnantPallets         RuleType = "STAGNANT_PALLETS"
	RuleUncoordinatedLots       RuleType = "UNCOORDINATED_LOTS"
	RuleOvercapacity            RuleType = "OVERCAPACITY"
	RuleInvalidLocation         RuleType = "INVALID_LOCATION"
	RuleLocationStagnant        RuleType = "LOCATION_SPECIFIC_STAGNANT"
	RuleDataIntegrity           RuleType = "DATA_INTEGRITY"
	RuleTemperatureZoneMismatch RuleType = "TEMPERATURE_ZONE_MISMATCH"
	RuleLocationMappingError    RuleType = "LOCATION_MAPPING_ERROR"
)

// RuleDefinition is one configured rule: a type, JSON parameters, and a
// precedence rank. Lower precedence numbers run first and carry higher
// authority in exclusion decisions.
type RuleDefinition struct {
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Name       string          `json:"name"`
	Type       RuleType        `json:"rule_type"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
	ID         int64           `json:"id"`
	Precedence int             `json:"precedence"`
	Active     bool            `json:"active"`
}

// Validate ensures the definition is usable before it reaches the engine.
func (r *RuleDefinition) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if r.Type == "" {
		return fmt.Errorf("rule %s: rule type is required", r.Name)
	}
	if r.Precedence < 0 {
		return fmt.Errorf("rule %s: precedence must not be negative, got %d", r.Name, r.Precedence)
	}
	if len(r.Parameters) > 0 && !json.Valid(r.Parameters) {
		return fmt.Errorf("rule %s: parameters are not valid JSON", r.Name)
	}
	return nil
}

// StagnantParams configures the stagnant-pallet rule.
type StagnantParams struct {
	ThresholdHours float64        `json:"threshold_hours"`
	LocationTypes  []LocationType `json:"location_types,omitempty"`
}

// LotParams configures the uncoordinated-lot rule.
type LotParams struct {
	CompletionThreshold float64 `json:"completion_threshold"`
}

// LocationStagnantParams configures the location-specific stagnant rule.
type LocationStagnantParams struct {
	Pattern        string  `json:"pattern"`
	ThresholdHours float64 `json:"threshold_hours"`
}

// TemperatureParams configures the temperature-zone-mismatch rule.
type TemperatureParams struct {
	FrozenKeywords       []string `json:"frozen_keywords,omitempty"`
	RefrigeratedKeywords []string `json:"refrigerated_keywords,omitempty"`
	GracePeriodHours     float64  `json:"grace_period_hours"`
}
