package engine

import (
	"testing"

	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestPrecedenceManager(t *testing.T) {
	t.Run("overcapacity defers to an earlier invalid-location claim", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 1, model.RuleInvalidLocation, "invalid locations")

		assert.True(t, m.IsExcluded("P1", model.RuleOvercapacity, 3))
	})

	t.Run("overcapacity defers to an earlier data-integrity claim", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 1, model.RuleDataIntegrity, "integrity")

		assert.True(t, m.IsExcluded("P1", model.RuleOvercapacity, 3))
	})

	t.Run("equal precedence never excludes", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 3, model.RuleInvalidLocation, "invalid locations")

		assert.False(t, m.IsExcluded("P1", model.RuleOvercapacity, 3))
	})

	t.Run("a claim from a non-deferred type never excludes", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 1, model.RuleStagnantPallets, "stagnant")

		assert.False(t, m.IsExcluded("P1", model.RuleOvercapacity, 3))
	})

	t.Run("rule types without deferral entries are never excluded", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 1, model.RuleInvalidLocation, "invalid locations")

		assert.False(t, m.IsExcluded("P1", model.RuleStagnantPallets, 4))
		assert.False(t, m.IsExcluded("P1", model.RuleInvalidLocation, 4))
	})

	t.Run("exclusion is per pallet", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 1, model.RuleInvalidLocation, "invalid locations")

		assert.False(t, m.IsExcluded("P2", model.RuleOvercapacity, 3))
	})

	t.Run("claims accumulate and are inspectable", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("P1", 1, model.RuleDataIntegrity, "integrity")
		m.Register("P1", 2, model.RuleInvalidLocation, "invalid locations")

		claims := m.Claims("P1")
		assert.Len(t, claims, 2)
		assert.Equal(t, model.RuleDataIntegrity, claims[0].Type)
		assert.Equal(t, 1, claims[0].Precedence)
	})

	t.Run("empty pallet IDs are never registered", func(t *testing.T) {
		m := NewPrecedenceManager()
		m.Register("", 1, model.RuleInvalidLocation, "invalid locations")

		assert.Empty(t, m.Claims(""))
		assert.False(t, m.IsExcluded("", model.RuleOvercapacity, 3))
	})
}
