package rules

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidLocationEvaluator(t *testing.T) {
	ev, err := Build(model.RuleDefinition{Name: "invalid location", Type: model.RuleInvalidLocation})
	require.NoError(t, err)

	t.Run("structurally invalid location is flagged with its reason", func(t *testing.T) {
		anomalies, evalErr := ev.Evaluate(context.Background(), input(
			invalidPallet("P1", "01-01-47-A", "position 47 exceeds template limit of 29"),
		))
		require.NoError(t, evalErr)

		require.Len(t, anomalies, 1)
		assert.Equal(t, "P1", anomalies[0].PalletID)
		assert.Equal(t, "01-01-47-A", anomalies[0].Location)
		assert.Contains(t, anomalies[0].Message, "position 47 exceeds template limit of 29")
	})

	t.Run("valid locations pass", func(t *testing.T) {
		anomalies, evalErr := ev.Evaluate(context.Background(), input(
			validPallet("P1", "01-01-01-A", model.TypeStorage, 1),
		))
		require.NoError(t, evalErr)
		assert.Empty(t, anomalies)
	})

	t.Run("missing locations are left to the integrity rule", func(t *testing.T) {
		p := Pallet{
			Record: model.PalletRecord{PalletID: "P1", CreatedAt: testNow.Add(-time.Hour)},
			Code:   model.MissingLocation,
			Loc:    model.ResolvedLocation{Code: model.MissingLocation, Reason: "no location recorded"},
		}

		anomalies, evalErr := ev.Evaluate(context.Background(), input(p))
		require.NoError(t, evalErr)
		assert.Empty(t, anomalies)
	})
}
