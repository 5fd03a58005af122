package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// defaultStagnantThreshold applies when a rule definition omits
// threshold_hours.
const defaultStagnantThreshold = 24 * time.Hour

// StagnantEvaluator flags pallets that have remained in a transitional
// location type longer than policy allows. The comparison is strict: a
// pallet aged exactly the threshold is not stagnant.
type StagnantEvaluator struct {
	types     map[model.LocationType]bool
	threshold time.Duration
}

func newStagnantEvaluator(params json.RawMessage) (Evaluator, error) {
	p := model.StagnantParams{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	threshold := defaultStagnantThreshold
	if p.ThresholdHours > 0 {
		threshold = hours(p.ThresholdHours)
	}

	locationTypes := p.LocationTypes
	if len(locationTypes) == 0 {
		locationTypes = []model.LocationType{model.TypeReceiving}
	}
	types := make(map[model.LocationType]bool, len(locationTypes))
	for _, lt := range locationTypes {
		types[lt] = true
	}

	return &StagnantEvaluator{threshold: threshold, types: types}, nil
}

// Type implements Evaluator.
func (e *StagnantEvaluator) Type() model.RuleType {
	return model.RuleStagnantPallets
}

// Evaluate implements Evaluator.
func (e *StagnantEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	var anomalies []model.Anomaly

	for _, p := range in.Pallets {
		if !p.Loc.Valid || !e.types[p.Loc.Type] {
			continue
		}
		age := p.Record.Age(in.Now)
		if age > e.threshold {
			anomalies = append(anomalies, model.Anomaly{
				Type:     model.RuleStagnantPallets,
				PalletID: p.Record.PalletID,
				Location: p.Code,
				Message: fmt.Sprintf("pallet has sat in %s location %s for %s (threshold %s)",
					p.Loc.Type, p.Code, age.Round(time.Minute), e.threshold),
			})
		}
	}

	return anomalies, nil
}
