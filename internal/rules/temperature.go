package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// defaultTemperatureGrace tolerates pallets briefly passing through the
// wrong zone on their way to putaway.
const defaultTemperatureGrace = 2 * time.Hour

// Default keyword sets marking temperature-sensitive product descriptions.
var (
	defaultFrozenKeywords       = []string{"FROZEN", "FZN", "ICE CREAM"}
	defaultRefrigeratedKeywords = []string{"REFRIGERATED", "CHILLED", "DAIRY"}
)

// TemperatureEvaluator flags temperature-sensitive pallets sitting in the
// wrong zone past a short grace period. An explicit temperature requirement
// on the record wins over keyword inference from the description.
type TemperatureEvaluator struct {
	frozenKeywords       []string
	refrigeratedKeywords []string
	grace                time.Duration
}

func newTemperatureEvaluator(params json.RawMessage) (Evaluator, error) {
	p := model.TemperatureParams{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	grace := defaultTemperatureGrace
	if p.GracePeriodHours > 0 {
		grace = hours(p.GracePeriodHours)
	}

	frozen := p.FrozenKeywords
	if len(frozen) == 0 {
		frozen = defaultFrozenKeywords
	}
	refrigerated := p.RefrigeratedKeywords
	if len(refrigerated) == 0 {
		refrigerated = defaultRefrigeratedKeywords
	}

	return &TemperatureEvaluator{
		grace:                grace,
		frozenKeywords:       upperAll(frozen),
		refrigeratedKeywords: upperAll(refrigerated),
	}, nil
}

// Type implements Evaluator.
func (e *TemperatureEvaluator) Type() model.RuleType {
	return model.RuleTemperatureZoneMismatch
}

// Evaluate implements Evaluator.
func (e *TemperatureEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	var anomalies []model.Anomaly

	for _, p := range in.Pallets {
		if !p.Loc.Valid {
			continue
		}
		required, ok := e.requiredZone(p.Record)
		if !ok || p.Loc.Zone == required {
			continue
		}
		age := p.Record.Age(in.Now)
		if age <= e.grace {
			continue
		}
		anomalies = append(anomalies, model.Anomaly{
			Type:     model.RuleTemperatureZoneMismatch,
			PalletID: p.Record.PalletID,
			Location: p.Code,
			Message: fmt.Sprintf("pallet requires %s zone but has been in %s zone at %s for %s",
				required, p.Loc.Zone, p.Code, age.Round(time.Minute)),
		})
	}

	return anomalies, nil
}

// requiredZone determines which zone the pallet's product demands, if any.
func (e *TemperatureEvaluator) requiredZone(record model.PalletRecord) (model.Zone, bool) {
	switch strings.ToUpper(strings.TrimSpace(record.TempRequirement)) {
	case string(model.ZoneFrozen):
		return model.ZoneFrozen, true
	case string(model.ZoneRefrigerated), "CHILLED":
		return model.ZoneRefrigerated, true
	}

	desc := strings.ToUpper(record.Description)
	for _, kw := range e.frozenKeywords {
		if strings.Contains(desc, kw) {
			return model.ZoneFrozen, true
		}
	}
	for _, kw := range e.refrigeratedKeywords {
		if strings.Contains(desc, kw) {
			return model.ZoneRefrigerated, true
		}
	}
	return "", false
}

func upperAll(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToUpper(kw)
	}
	return out
}
