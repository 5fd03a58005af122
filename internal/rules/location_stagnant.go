package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// LocationStagnantEvaluator flags pallets aging past a threshold at
// locations matching a glob pattern (e.g. AISLE*), typically with a shorter
// threshold than the generic stagnant rule. It matches on the canonical
// code, so it works even when no warehouse context was resolved.
type LocationStagnantEvaluator struct {
	pattern   string
	threshold time.Duration
}

func newLocationStagnantEvaluator(params json.RawMessage) (Evaluator, error) {
	p := model.LocationStagnantParams{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.Pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	if _, err := path.Match(p.Pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", p.Pattern, err)
	}
	if p.ThresholdHours <= 0 {
		return nil, fmt.Errorf("threshold_hours must be positive, got %v", p.ThresholdHours)
	}

	return &LocationStagnantEvaluator{
		pattern:   p.Pattern,
		threshold: hours(p.ThresholdHours),
	}, nil
}

// Type implements Evaluator.
func (e *LocationStagnantEvaluator) Type() model.RuleType {
	return model.RuleLocationStagnant
}

// Evaluate implements Evaluator.
func (e *LocationStagnantEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	var anomalies []model.Anomaly

	for _, p := range in.Pallets {
		if p.Code == model.MissingLocation {
			continue
		}
		matched, err := path.Match(e.pattern, p.Code)
		if err != nil || !matched {
			continue
		}
		age := p.Record.Age(in.Now)
		if age > e.threshold {
			anomalies = append(anomalies, model.Anomaly{
				Type:     model.RuleLocationStagnant,
				PalletID: p.Record.PalletID,
				Location: p.Code,
				Message: fmt.Sprintf("pallet has sat at %s for %s (threshold %s for locations matching %s)",
					p.Code, age.Round(time.Minute), e.threshold, e.pattern),
			})
		}
	}

	return anomalies, nil
}
