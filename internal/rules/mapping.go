package rules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kestrelwms/slotwatch/internal/location"
	"github.com/kestrelwms/slotwatch/internal/model"
)

// MappingEvaluator flags locations whose declared type disagrees with the
// structural heuristic their code shape implies: a code shaped like a
// storage rack slot declared as something else, or a special-area code
// declared as plain storage. Either way the location master data is mapped
// wrong and counts and capacities downstream cannot be trusted.
type MappingEvaluator struct{}

func newMappingEvaluator(params json.RawMessage) (Evaluator, error) {
	var p struct{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return &MappingEvaluator{}, nil
}

// Type implements Evaluator.
func (e *MappingEvaluator) Type() model.RuleType {
	return model.RuleLocationMappingError
}

// Evaluate implements Evaluator.
func (e *MappingEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	var anomalies []model.Anomaly
	flagged := make(map[string]bool)

	for _, p := range in.Pallets {
		if !p.Loc.Valid || flagged[p.Code] {
			continue
		}

		shape := location.CheckFormat(p.Code)
		var message string
		switch {
		case shape.Format == location.FormatStructural && p.Loc.Type != model.TypeStorage:
			message = fmt.Sprintf("code %s is shaped like a storage rack slot but the location is declared %s",
				p.Code, p.Loc.Type)
		case shape.Format == location.FormatSpecialArea && p.Loc.Type == model.TypeStorage:
			message = fmt.Sprintf("code %s is shaped like a special area but the location is declared STORAGE",
				p.Code)
		default:
			continue
		}

		flagged[p.Code] = true
		anomalies = append(anomalies, model.Anomaly{
			Type:     model.RuleLocationMappingError,
			PalletID: p.Record.PalletID,
			Location: p.Code,
			Message:  message,
		})
	}

	return anomalies, nil
}
