package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// InvalidLocationEvaluator flags pallets whose canonical location code is
// not structurally valid under the resolved warehouse template. Pallets with
// no location at all are the data-integrity rule's concern, not this one's.
type InvalidLocationEvaluator struct{}

func newInvalidLocationEvaluator(params json.RawMessage) (Evaluator, error) {
	var p struct{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return &InvalidLocationEvaluator{}, nil
}

// Type implements Evaluator.
func (e *InvalidLocationEvaluator) Type() model.RuleType {
	return model.RuleInvalidLocation
}

// Evaluate implements Evaluator.
func (e *InvalidLocationEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	var anomalies []model.Anomaly

	for _, p := range in.Pallets {
		if p.Code == model.MissingLocation || p.Loc.Valid {
			continue
		}
		anomalies = append(anomalies, model.Anomaly{
			Type:     model.RuleInvalidLocation,
			PalletID: p.Record.PalletID,
			Location: p.Code,
			Message:  fmt.Sprintf("location %s is not valid: %s", p.Code, p.Loc.Reason),
		})
	}

	return anomalies, nil
}
