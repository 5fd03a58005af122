package location

import (
	"context"
	"errors"
	"testing"

	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMetaStore implements the location-metadata slice of service.Storage
// used by the repository.
type stubMetaStore struct {
	meta    map[string]model.LocationMeta
	err     error
	queries int
}

func (s *stubMetaStore) GetLocationMeta(_ context.Context, _ string, codes []string) (map[string]model.LocationMeta, error) {
	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]model.LocationMeta)
	for _, code := range codes {
		if m, ok := s.meta[code]; ok {
			out[code] = m
		}
	}
	return out, nil
}

func (s *stubMetaStore) UpsertLocationMeta(context.Context, string, []model.LocationMeta) error {
	return nil
}
func (s *stubMetaStore) GetTemplates(context.Context) ([]model.WarehouseTemplate, error) {
	return nil, nil
}
func (s *stubMetaStore) GetTemplateByID(context.Context, string) (*model.WarehouseTemplate, error) {
	return nil, nil
}
func (s *stubMetaStore) SaveTemplate(context.Context, *model.WarehouseTemplate) error { return nil }
func (s *stubMetaStore) GetActiveRules(context.Context) ([]model.RuleDefinition, error) {
	return nil, nil
}
func (s *stubMetaStore) GetAllRules(context.Context) ([]model.RuleDefinition, error) {
	return nil, nil
}
func (s *stubMetaStore) SaveRule(context.Context, *model.RuleDefinition) error { return nil }
func (s *stubMetaStore) Migrate(context.Context) error                         { return nil }
func (s *stubMetaStore) Close() error                                          { return nil }

func TestRepository_BulkLoad(t *testing.T) {
	store := &stubMetaStore{
		meta: map[string]model.LocationMeta{
			"01-01-01-A": {Code: "01-01-01-A", Capacity: 3, UnitType: "PALLET", Type: model.TypeStorage},
			"RECV-01":    {Code: "RECV-01", Capacity: 40, UnitType: "FLOOR", Type: model.TypeReceiving, Special: true},
		},
	}

	repo := NewRepository(store, 2)
	err := repo.BulkLoad(context.Background(), "WH-EAST", []string{"01-01-01-A", "RECV-01", "01-01-02-A"})
	require.NoError(t, err)

	assert.Equal(t, 1, store.queries, "bulk load must issue exactly one query")

	// Explicitly stored rows.
	assert.Equal(t, 3, repo.Capacity("01-01-01-A"))
	assert.Equal(t, model.TypeReceiving, repo.LocationType("RECV-01"))
	assert.Equal(t, "FLOOR", repo.UnitType("RECV-01"))
	assert.True(t, repo.IsPhysicalSpecial("RECV-01"))
	assert.True(t, repo.HasExplicit("RECV-01"))

	// Absent code gets the documented placeholder, not an error.
	assert.Equal(t, 2, repo.Capacity("01-01-02-A"))
	assert.Equal(t, model.DefaultUnitType, repo.UnitType("01-01-02-A"))
	assert.Equal(t, model.TypeStorage, repo.LocationType("01-01-02-A"))
	assert.False(t, repo.HasExplicit("01-01-02-A"))

	hits, misses := repo.Stats()
	assert.Equal(t, uint64(4), hits)
	assert.Equal(t, uint64(3), misses)
}

func TestRepository_LookupBeforeLoadPanics(t *testing.T) {
	repo := NewRepository(&stubMetaStore{}, 1)

	assert.Panics(t, func() {
		repo.Capacity("01-01-01-A")
	})
}

func TestRepository_DoubleLoadRejected(t *testing.T) {
	repo := NewRepository(&stubMetaStore{}, 1)
	ctx := context.Background()

	require.NoError(t, repo.BulkLoad(ctx, "WH-EAST", []string{"01-01-01-A"}))
	err := repo.BulkLoad(ctx, "WH-EAST", []string{"01-01-01-A"})
	assert.Error(t, err, "the repository must never re-query storage mid-run")
}

func TestRepository_LoadFailureSurfaces(t *testing.T) {
	store := &stubMetaStore{err: errors.New("connection refused")}
	repo := NewRepository(store, 1)

	err := repo.BulkLoad(context.Background(), "WH-EAST", []string{"01-01-01-A"})
	assert.Error(t, err)
}
