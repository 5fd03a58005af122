package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kestrelwms/slotwatch/internal/common"
	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stubStorage is an in-memory Storage for engine tests.
type stubStorage struct {
	meta      map[string]model.LocationMeta
	templates []model.WarehouseTemplate
	rules     []model.RuleDefinition
	metaErr   error
	metaCalls int
}

func (s *stubStorage) GetLocationMeta(_ context.Context, _ string, codes []string) (map[string]model.LocationMeta, error) {
	s.metaCalls++
	if s.metaErr != nil {
		return nil, s.metaErr
	}
	out := make(map[string]model.LocationMeta)
	for _, code := range codes {
		if m, ok := s.meta[code]; ok {
			out[code] = m
		}
	}
	return out, nil
}

func (s *stubStorage) UpsertLocationMeta(context.Context, string, []model.LocationMeta) error {
	return nil
}

func (s *stubStorage) GetTemplates(context.Context) ([]model.WarehouseTemplate, error) {
	return s.templates, nil
}

func (s *stubStorage) GetTemplateByID(_ context.Context, id string) (*model.WarehouseTemplate, error) {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return &s.templates[i], nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *stubStorage) SaveTemplate(context.Context, *model.WarehouseTemplate) error { return nil }

func (s *stubStorage) GetActiveRules(context.Context) ([]model.RuleDefinition, error) {
	return s.rules, nil
}

func (s *stubStorage) GetAllRules(context.Context) ([]model.RuleDefinition, error) {
	return s.rules, nil
}

func (s *stubStorage) SaveRule(context.Context, *model.RuleDefinition) error { return nil }
func (s *stubStorage) Migrate(context.Context) error                        { return nil }
func (s *stubStorage) Close() error                                         { return nil }

// miniTemplate is a deliberately tiny warehouse: 1 aisle, 1 rack, 5
// positions, levels A and B, one pallet per slot.
func miniTemplate() model.WarehouseTemplate {
	return model.WarehouseTemplate{
		ID:               "WH-MINI",
		Name:             "Mini DC",
		Aisles:           1,
		RacksPerAisle:    1,
		PositionsPerRack: 5,
		LevelNames:       "AB",
		DefaultCapacity:  1,
		DefaultZone:      model.ZoneAmbient,
		SpecialAreas: []model.SpecialArea{
			{Code: "RECV", Type: model.TypeReceiving, Zone: model.ZoneAmbient, Capacity: 10},
		},
	}
}

func ruleDef(id int64, name string, rt model.RuleType, precedence int, params string) model.RuleDefinition {
	def := model.RuleDefinition{
		ID:         id,
		Name:       name,
		Type:       rt,
		Precedence: precedence,
		Active:     true,
	}
	if params != "" {
		def.Parameters = json.RawMessage(params)
	}
	return def
}

func record(id, loc string, ageHours float64) model.PalletRecord {
	return model.PalletRecord{
		PalletID:  id,
		Location:  loc,
		CreatedAt: testNow.Add(-time.Duration(ageHours * float64(time.Hour))),
	}
}

func executionFor(t *testing.T, report *AnalysisReport, name string) RuleExecution {
	t.Helper()
	for _, exec := range report.Executions {
		if exec.RuleName == name {
			return exec
		}
	}
	t.Fatalf("no execution named %q", name)
	return RuleExecution{}
}

func TestAnalyzeRejectsEmptySnapshot(t *testing.T) {
	eng := New(&stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}})

	_, err := eng.Analyze(context.Background(), &AnalysisRequest{Now: testNow})
	assert.ErrorIs(t, err, common.ErrNoPallets)
}

func TestAnalyzeExplicitWarehouse(t *testing.T) {
	store := &stubStorage{
		templates: []model.WarehouseTemplate{miniTemplate()},
		rules:     []model.RuleDefinition{ruleDef(1, "integrity", model.RuleDataIntegrity, 1, "")},
	}
	eng := New(store)

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets:     []model.PalletRecord{record("P1", "1-1-3-A", 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, "WH-MINI", report.Context.WarehouseID)
	assert.Equal(t, model.ConfidenceExplicit, report.Context.Confidence)
	assert.Equal(t, model.DetectionExplicit, report.Context.Method)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, testNow, report.GeneratedAt)
}

func TestAnalyzeExplicitUnknownWarehouse(t *testing.T) {
	eng := New(&stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}})

	_, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-NOWHERE",
		Pallets:     []model.PalletRecord{record("P1", "1-1-3-A", 1)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAnalyzeOvercapacityAndInvalidLocation(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets: []model.PalletRecord{
			record("P1", "1-1-3-A", 1),
			record("P2", "1-1-3-A", 1),
			record("P3", "1-1-9-A", 1), // position 9 exceeds the 5-position rack
		},
		Rules: []model.RuleDefinition{
			ruleDef(1, "invalid locations", model.RuleInvalidLocation, 1, ""),
			ruleDef(2, "overcapacity", model.RuleOvercapacity, 2, ""),
		},
	})
	require.NoError(t, err)
	require.Len(t, report.Anomalies, 3)

	// Rules run in precedence order, so the invalid-location anomaly
	// comes first.
	assert.Equal(t, model.RuleInvalidLocation, report.Anomalies[0].Type)
	assert.Equal(t, "P3", report.Anomalies[0].PalletID)
	assert.Equal(t, "01-01-09-A", report.Anomalies[0].Location)

	// Every pallet at the overfull slot is flagged, not just the overflow.
	for _, a := range report.Anomalies[1:] {
		assert.Equal(t, model.RuleOvercapacity, a.Type)
		assert.Equal(t, "01-01-03-A", a.Location)
		assert.Equal(t, testNow, a.DetectedAt)
		assert.Equal(t, "overcapacity", a.RuleName)
	}

	// One bulk metadata load per run, no matter how many rules ran.
	assert.Equal(t, 1, store.metaCalls)
}

func TestAnalyzeExclusionSuppressesDownstreamRules(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	// The same pallet ID scanned twice at one single-capacity slot: the
	// integrity rule claims it first, so overcapacity stays silent about
	// what is really one duplicated record.
	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets: []model.PalletRecord{
			record("P1", "1-1-1-A", 2),
			record("P1", "1-1-1-A", 1),
		},
		Rules: []model.RuleDefinition{
			ruleDef(1, "integrity", model.RuleDataIntegrity, 1, ""),
			ruleDef(2, "overcapacity", model.RuleOvercapacity, 3, ""),
		},
	})
	require.NoError(t, err)

	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, model.RuleDataIntegrity, report.Anomalies[0].Type)
	assert.Equal(t, "P1", report.Anomalies[0].PalletID)

	overcap := executionFor(t, report, "overcapacity")
	assert.True(t, overcap.Success)
	assert.Equal(t, 0, overcap.AnomalyCount)
}

func TestAnalyzeGracefulDegradationWithoutContext(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	// No explicit warehouse and locations that match nothing: detection
	// fails, location-dependent rules are skipped, integrity still runs.
	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now: testNow,
		Pallets: []model.PalletRecord{
			record("P1", "WAREHOUSE-OMEGA-SECTOR-7", 1),
			record("P2", "", 1),
		},
		Rules: []model.RuleDefinition{
			ruleDef(1, "integrity", model.RuleDataIntegrity, 1, ""),
			ruleDef(2, "overcapacity", model.RuleOvercapacity, 3, ""),
		},
	})
	require.NoError(t, err)

	assert.False(t, report.Context.Resolved())
	assert.Equal(t, model.DetectionFailed, report.Context.Method)

	integrity := executionFor(t, report, "integrity")
	assert.True(t, integrity.Success)
	assert.False(t, integrity.Skipped)

	overcap := executionFor(t, report, "overcapacity")
	assert.True(t, overcap.Skipped)
	assert.Equal(t, 0, overcap.AnomalyCount)

	// The missing-location pallet still surfaces through integrity.
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "P2", report.Anomalies[0].PalletID)
	assert.Equal(t, model.MissingLocation, report.Anomalies[0].Location)

	// No resolved warehouse means no metadata load at all.
	assert.Equal(t, 0, store.metaCalls)
}

func TestAnalyzeAutoDetection(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now: testNow,
		Pallets: []model.PalletRecord{
			record("P1", "1-1-1-A", 1),
			record("P2", "1-1-2-B", 1),
			record("P3", "RECV-01", 1),
		},
		Rules: []model.RuleDefinition{ruleDef(1, "integrity", model.RuleDataIntegrity, 1, "")},
	})
	require.NoError(t, err)

	assert.Equal(t, "WH-MINI", report.Context.WarehouseID)
	assert.Equal(t, model.ConfidenceVeryHigh, report.Context.Confidence)
	assert.Equal(t, model.DetectionCoverage, report.Context.Method)
	assert.InDelta(t, 1.0, report.Context.Coverage, 0.001)
}

func TestAnalyzeStagnantBoundary(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets: []model.PalletRecord{
			record("OLD", "RECV-01", 11),
			record("FRESH", "RECV-02", 9),
		},
		Rules: []model.RuleDefinition{
			ruleDef(1, "stagnant receiving", model.RuleStagnantPallets, 4, `{"threshold_hours": 10}`),
		},
	})
	require.NoError(t, err)

	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, "OLD", report.Anomalies[0].PalletID)
	assert.Equal(t, "RECV-01", report.Anomalies[0].Location)
}

func TestAnalyzeExplicitMetadataOverridesTemplate(t *testing.T) {
	// A code the template grid cannot derive, but storage holds a real row
	// for it: the stored row wins, making the location valid with its own
	// capacity and type.
	store := &stubStorage{
		templates: []model.WarehouseTemplate{miniTemplate()},
		meta: map[string]model.LocationMeta{
			"AISLE-07": {
				Code:     "AISLE-07",
				Capacity: 1,
				UnitType: model.DefaultUnitType,
				Type:     model.TypeTransitional,
			},
		},
	}
	eng := New(store)

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets: []model.PalletRecord{
			record("P1", "AISLE-07", 1),
			record("P2", "AISLE-07", 1),
		},
		Rules: []model.RuleDefinition{
			ruleDef(1, "invalid locations", model.RuleInvalidLocation, 1, ""),
			ruleDef(2, "overcapacity", model.RuleOvercapacity, 2, ""),
		},
	})
	require.NoError(t, err)

	// Not invalid (storage vouches for it), but over its stored capacity.
	require.Len(t, report.Anomalies, 2)
	for _, a := range report.Anomalies {
		assert.Equal(t, model.RuleOvercapacity, a.Type)
		assert.Equal(t, "AISLE-07", a.Location)
	}
	assert.GreaterOrEqual(t, report.LocationHits, uint64(1))
}

func TestAnalyzeRuleFailureIsIsolated(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets:     []model.PalletRecord{record("P1", "", 1)},
		Rules: []model.RuleDefinition{
			ruleDef(1, "broken stagnant", model.RuleStagnantPallets, 1, `{"threshold_hours": "ten"}`),
			ruleDef(2, "integrity", model.RuleDataIntegrity, 2, ""),
		},
	})
	require.NoError(t, err)

	broken := executionFor(t, report, "broken stagnant")
	assert.False(t, broken.Success)
	assert.NotEmpty(t, broken.Error)

	integrity := executionFor(t, report, "integrity")
	assert.True(t, integrity.Success)
	assert.Equal(t, 1, integrity.AnomalyCount)
}

func TestAnalyzeStorageFailureIsFatal(t *testing.T) {
	store := &stubStorage{
		templates: []model.WarehouseTemplate{miniTemplate()},
		metaErr: &common.RetryableError{
			Err:       errors.New("connection refused"),
			Retryable: false,
		},
	}
	eng := New(store)

	_, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets:     []model.PalletRecord{record("P1", "1-1-1-A", 1)},
		Rules:       []model.RuleDefinition{ruleDef(1, "overcapacity", model.RuleOvercapacity, 1, "")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "location metadata")
}

func TestAnalyzeDeterminism(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	req := func() *AnalysisRequest {
		return &AnalysisRequest{
			Now:         testNow,
			WarehouseID: "WH-MINI",
			Pallets: []model.PalletRecord{
				record("P1", "1-1-3-A", 1),
				record("P2", "1-1-3-A", 1),
				record("P3", "1-1-9-A", 1),
				record("P4", "RECV-01", 30),
			},
			Rules: []model.RuleDefinition{
				ruleDef(1, "invalid locations", model.RuleInvalidLocation, 1, ""),
				ruleDef(2, "overcapacity", model.RuleOvercapacity, 2, ""),
				ruleDef(3, "stagnant receiving", model.RuleStagnantPallets, 4, `{"threshold_hours": 24}`),
			},
		}
	}

	first, err := eng.Analyze(context.Background(), req())
	require.NoError(t, err)
	second, err := eng.Analyze(context.Background(), req())
	require.NoError(t, err)

	assert.Equal(t, first.Anomalies, second.Anomalies)
	assert.Equal(t, first.Context, second.Context)
	require.Equal(t, len(first.Executions), len(second.Executions))
	for i := range first.Executions {
		assert.Equal(t, first.Executions[i].RuleName, second.Executions[i].RuleName)
		assert.Equal(t, first.Executions[i].AnomalyCount, second.Executions[i].AnomalyCount)
	}
}

func TestAnalyzeInactiveRulesNeverRun(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	inactive := ruleDef(1, "dormant", model.RuleOvercapacity, 1, "")
	inactive.Active = false

	report, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets:     []model.PalletRecord{record("P1", "1-1-1-A", 1)},
		Rules: []model.RuleDefinition{
			inactive,
			ruleDef(2, "integrity", model.RuleDataIntegrity, 2, ""),
		},
	})
	require.NoError(t, err)

	assert.Len(t, report.Executions, 1)
	assert.Equal(t, "integrity", report.Executions[0].RuleName)
}

func TestAnalyzeProgressCallback(t *testing.T) {
	store := &stubStorage{templates: []model.WarehouseTemplate{miniTemplate()}}
	eng := New(store)

	var calls [][2]int
	_, err := eng.Analyze(context.Background(), &AnalysisRequest{
		Now:         testNow,
		WarehouseID: "WH-MINI",
		Pallets:     []model.PalletRecord{record("P1", "1-1-1-A", 1)},
		Rules: []model.RuleDefinition{
			ruleDef(1, "integrity", model.RuleDataIntegrity, 1, ""),
			ruleDef(2, "overcapacity", model.RuleOvercapacity, 2, ""),
		},
		Progress: func(completed, total int) {
			calls = append(calls, [2]int{completed, total})
		},
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, calls)
}
