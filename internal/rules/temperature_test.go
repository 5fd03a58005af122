package rules

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zonedPallet builds a pallet in a given zone with a product description.
func zonedPallet(id, desc string, zone model.Zone, ageHours float64) Pallet {
	p := validPallet(id, "01-01-01-A", model.TypeStorage, ageHours)
	p.Record.Description = desc
	p.Loc.Zone = zone
	return p
}

func TestTemperatureEvaluator(t *testing.T) {
	ev, err := Build(model.RuleDefinition{
		Name:       "temperature",
		Type:       model.RuleTemperatureZoneMismatch,
		Parameters: json.RawMessage(`{"grace_period_hours": 2}`),
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		pallets []Pallet
		wantIDs []string
	}{
		{
			name:    "frozen goods in ambient zone past grace",
			pallets: []Pallet{zonedPallet("P1", "FROZEN PEAS 24x400G", model.ZoneAmbient, 3)},
			wantIDs: []string{"P1"},
		},
		{
			name:    "frozen goods in frozen zone are fine",
			pallets: []Pallet{zonedPallet("P1", "FROZEN PEAS 24x400G", model.ZoneFrozen, 30)},
			wantIDs: nil,
		},
		{
			name:    "within grace period nothing is flagged",
			pallets: []Pallet{zonedPallet("P1", "FROZEN PEAS 24x400G", model.ZoneAmbient, 1.5)},
			wantIDs: nil,
		},
		{
			name:    "exactly at grace period nothing is flagged",
			pallets: []Pallet{zonedPallet("P1", "FROZEN PEAS 24x400G", model.ZoneAmbient, 2)},
			wantIDs: nil,
		},
		{
			name:    "chilled keyword requires refrigerated zone",
			pallets: []Pallet{zonedPallet("P1", "CHILLED JUICE 12x1L", model.ZoneAmbient, 3)},
			wantIDs: []string{"P1"},
		},
		{
			name:    "ambient goods never mismatch",
			pallets: []Pallet{zonedPallet("P1", "CANNED TOMATOES", model.ZoneFrozen, 48)},
			wantIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anomalies, evalErr := ev.Evaluate(context.Background(), input(tt.pallets...))
			require.NoError(t, evalErr)

			ids := make([]string, 0, len(anomalies))
			for _, a := range anomalies {
				assert.Equal(t, model.RuleTemperatureZoneMismatch, a.Type)
				ids = append(ids, a.PalletID)
			}
			if tt.wantIDs == nil {
				assert.Empty(t, ids)
			} else {
				assert.Equal(t, tt.wantIDs, ids)
			}
		})
	}
}

func TestTemperatureEvaluator_ExplicitRequirementWins(t *testing.T) {
	ev, err := Build(model.RuleDefinition{Name: "temperature", Type: model.RuleTemperatureZoneMismatch})
	require.NoError(t, err)

	// Description says nothing, but the record carries an explicit
	// requirement.
	p := zonedPallet("P1", "MYSTERY GOODS", model.ZoneAmbient, 5)
	p.Record.TempRequirement = "FROZEN"

	anomalies, err := ev.Evaluate(context.Background(), input(p))
	require.NoError(t, err)

	require.Len(t, anomalies, 1)
	assert.Contains(t, anomalies[0].Message, "requires FROZEN zone")
}

func TestTemperatureEvaluator_CustomKeywords(t *testing.T) {
	ev, err := Build(model.RuleDefinition{
		Name:       "temperature",
		Type:       model.RuleTemperatureZoneMismatch,
		Parameters: json.RawMessage(`{"frozen_keywords": ["GELATO"], "grace_period_hours": 1}`),
	})
	require.NoError(t, err)

	anomalies, err := ev.Evaluate(context.Background(), input(
		zonedPallet("P1", "ARTISAN GELATO", model.ZoneAmbient, 2),
	))
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "P1", anomalies[0].PalletID)
}
