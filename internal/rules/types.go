// Package rules implements the anomaly evaluators: one stateless evaluator
// per rule type, each a pure function over the snapshot and the resolved
// location context for the run.
package rules

import (
	"context"
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// Pallet is one snapshot record joined with its per-run location
// resolution. The engine classifies every unique location code exactly once
// and fans the result out to the pallets standing there.
type Pallet struct {
	Record model.PalletRecord
	Code   string                 // Canonical location code (may be the missing sentinel)
	Loc    model.ResolvedLocation // Zero value when the run has no resolved warehouse
}

// Input is the read-only evaluation context shared by all evaluators in one
// run. Evaluators never mutate it; all cross-rule effects go through the
// precedence manager owned by the engine.
type Input struct {
	Now       time.Time
	Warehouse model.WarehouseContext
	Pallets   []Pallet
}

// Evaluator is the uniform contract every rule type implements.
type Evaluator interface {
	// Type returns the rule type this evaluator handles.
	Type() model.RuleType
	// Evaluate inspects the snapshot and returns the anomalies it found.
	// Implementations fill PalletID, Location, Type, and Message; the
	// engine stamps rule name, precedence, and detection time.
	Evaluate(ctx context.Context, in *Input) ([]model.Anomaly, error)
}

// hours converts a fractional hour count to a duration.
func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
