package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// OvercapacityEvaluator flags every pallet standing at a location holding
// more pallets than its declared capacity. A location with capacity 1 and 3
// pallets yields 3 anomalies, one per pallet.
type OvercapacityEvaluator struct{}

func newOvercapacityEvaluator(params json.RawMessage) (Evaluator, error) {
	// Overcapacity carries no parameters; the capacity source is the
	// resolved location itself.
	var p struct{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return &OvercapacityEvaluator{}, nil
}

// Type implements Evaluator.
func (e *OvercapacityEvaluator) Type() model.RuleType {
	return model.RuleOvercapacity
}

// Evaluate implements Evaluator.
func (e *OvercapacityEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	byLocation := make(map[string][]Pallet)
	for _, p := range in.Pallets {
		if !p.Loc.Valid {
			continue
		}
		byLocation[p.Code] = append(byLocation[p.Code], p)
	}

	codes := make([]string, 0, len(byLocation))
	for code := range byLocation {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var anomalies []model.Anomaly
	for _, code := range codes {
		pallets := byLocation[code]
		capacity := pallets[0].Loc.Capacity
		if capacity < 1 || len(pallets) <= capacity {
			continue
		}
		for _, p := range pallets {
			anomalies = append(anomalies, model.Anomaly{
				Type:     model.RuleOvercapacity,
				PalletID: p.Record.PalletID,
				Location: code,
				Message: fmt.Sprintf("location %s holds %d pallets but has capacity %d",
					code, len(pallets), capacity),
			})
		}
	}

	return anomalies, nil
}
