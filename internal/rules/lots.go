package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// defaultCompletionThreshold applies when a rule definition omits
// completion_threshold.
const defaultCompletionThreshold = 0.8

// LotEvaluator flags straggling pallets of mostly-putaway lots: when the
// stored fraction of a lot reaches the completion threshold (inclusive), the
// pallets still sitting in receiving or transitional space are anomalies.
type LotEvaluator struct {
	completionThreshold float64
}

func newLotEvaluator(params json.RawMessage) (Evaluator, error) {
	p := model.LotParams{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	threshold := defaultCompletionThreshold
	if p.CompletionThreshold > 0 {
		if p.CompletionThreshold > 1 {
			return nil, fmt.Errorf("completion threshold must be at most 1, got %v", p.CompletionThreshold)
		}
		threshold = p.CompletionThreshold
	}

	return &LotEvaluator{completionThreshold: threshold}, nil
}

// Type implements Evaluator.
func (e *LotEvaluator) Type() model.RuleType {
	return model.RuleUncoordinatedLots
}

// Evaluate implements Evaluator.
func (e *LotEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	lots := make(map[string][]Pallet)
	for _, p := range in.Pallets {
		if p.Record.LotNumber == "" {
			continue
		}
		lots[p.Record.LotNumber] = append(lots[p.Record.LotNumber], p)
	}

	lotNumbers := make([]string, 0, len(lots))
	for lot := range lots {
		lotNumbers = append(lotNumbers, lot)
	}
	sort.Strings(lotNumbers)

	var anomalies []model.Anomaly
	for _, lot := range lotNumbers {
		pallets := lots[lot]

		stored := 0
		for _, p := range pallets {
			if p.Loc.Valid && p.Loc.Type == model.TypeStorage {
				stored++
			}
		}
		if stored == len(pallets) {
			continue
		}

		fraction := float64(stored) / float64(len(pallets))
		if fraction < e.completionThreshold {
			continue
		}

		for _, p := range pallets {
			if !p.Loc.Valid {
				continue
			}
			if p.Loc.Type != model.TypeReceiving && p.Loc.Type != model.TypeTransitional {
				continue
			}
			anomalies = append(anomalies, model.Anomaly{
				Type:     model.RuleUncoordinatedLots,
				PalletID: p.Record.PalletID,
				Location: p.Code,
				Message: fmt.Sprintf("lot %s is %.0f%% in final storage but this pallet is still in %s location %s",
					lot, fraction*100, p.Loc.Type, p.Code),
			})
		}
	}

	return anomalies, nil
}
