package rules

import (
	"encoding/json"
	"fmt"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// ErrUnknownRuleType is returned when a rule definition names a type no
// evaluator is registered for. The engine skips such rules with a diagnostic
// instead of failing the run.
var ErrUnknownRuleType = fmt.Errorf("unknown rule type")

// entry describes one registered rule type.
type entry struct {
	build func(params json.RawMessage) (Evaluator, error)
	// needsResolution marks rule types that cannot evaluate without a
	// resolved warehouse context; the engine skips them gracefully when
	// detection fails.
	needsResolution bool
}

// registry maps rule-type strings to evaluator constructors. Dispatch is a
// map lookup, never reflection.
var registry = map[model.RuleType]entry{
	model.RuleStagnantPallets:         {build: newStagnantEvaluator, needsResolution: true},
	model.RuleUncoordinatedLots:       {build: newLotEvaluator, needsResolution: true},
	model.RuleOvercapacity:            {build: newOvercapacityEvaluator, needsResolution: true},
	model.RuleInvalidLocation:         {build: newInvalidLocationEvaluator, needsResolution: true},
	model.RuleLocationStagnant:        {build: newLocationStagnantEvaluator, needsResolution: false},
	model.RuleDataIntegrity:           {build: newIntegrityEvaluator, needsResolution: false},
	model.RuleTemperatureZoneMismatch: {build: newTemperatureEvaluator, needsResolution: true},
	model.RuleLocationMappingError:    {build: newMappingEvaluator, needsResolution: true},
}

// Build constructs the evaluator for a rule definition, unmarshaling its
// JSON parameters. Unknown types and malformed parameters are reported as
// errors for the engine to surface as per-rule diagnostics.
func Build(def model.RuleDefinition) (Evaluator, error) {
	e, ok := registry[def.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRuleType, def.Type)
	}
	ev, err := e.build(def.Parameters)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", def.Name, err)
	}
	return ev, nil
}

// Known reports whether a rule type has a registered evaluator.
func Known(t model.RuleType) bool {
	_, ok := registry[t]
	return ok
}

// NeedsResolution reports whether a rule type requires a resolved warehouse
// context to evaluate.
func NeedsResolution(t model.RuleType) bool {
	return registry[t].needsResolution
}

// decodeParams unmarshals rule parameters into dst, tolerating absent
// parameters (defaults apply).
func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("invalid rule parameters: %w", err)
	}
	return nil
}
