package rules

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationStagnantEvaluator(t *testing.T) {
	ev, err := Build(model.RuleDefinition{
		Name:       "aisle drops",
		Type:       model.RuleLocationStagnant,
		Parameters: json.RawMessage(`{"pattern": "AISLE*", "threshold_hours": 4}`),
	})
	require.NoError(t, err)

	t.Run("matching location over threshold is flagged", func(t *testing.T) {
		anomalies, evalErr := ev.Evaluate(context.Background(), input(
			validPallet("P1", "AISLE-05", model.TypeTransitional, 5),
		))
		require.NoError(t, evalErr)

		require.Len(t, anomalies, 1)
		assert.Equal(t, "P1", anomalies[0].PalletID)
		assert.Contains(t, anomalies[0].Message, "AISLE-05")
	})

	t.Run("matching location under threshold passes", func(t *testing.T) {
		anomalies, evalErr := ev.Evaluate(context.Background(), input(
			validPallet("P1", "AISLE-05", model.TypeTransitional, 3),
		))
		require.NoError(t, evalErr)
		assert.Empty(t, anomalies)
	})

	t.Run("non-matching location is ignored regardless of age", func(t *testing.T) {
		anomalies, evalErr := ev.Evaluate(context.Background(), input(
			validPallet("P1", "RECV-01", model.TypeReceiving, 100),
		))
		require.NoError(t, evalErr)
		assert.Empty(t, anomalies)
	})

	t.Run("missing parameters are rejected at build time", func(t *testing.T) {
		_, buildErr := Build(model.RuleDefinition{
			Name: "no params",
			Type: model.RuleLocationStagnant,
		})
		assert.Error(t, buildErr)
	})

	t.Run("bad glob pattern is rejected at build time", func(t *testing.T) {
		_, buildErr := Build(model.RuleDefinition{
			Name:       "bad pattern",
			Type:       model.RuleLocationStagnant,
			Parameters: json.RawMessage(`{"pattern": "[", "threshold_hours": 4}`),
		})
		assert.Error(t, buildErr)
	})
}
