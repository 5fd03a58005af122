// Package engine orchestrates a single analysis run: resolve the warehouse
// context, classify every unique location once, evaluate the active rules in
// precedence order, and assemble the anomaly report. Failures inside one rule
// never abort the run; only missing or unreadable input data is fatal.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelwms/slotwatch/internal/common"
	"github.com/kestrelwms/slotwatch/internal/detect"
	"github.com/kestrelwms/slotwatch/internal/location"
	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/kestrelwms/slotwatch/internal/rules"
	"github.com/kestrelwms/slotwatch/internal/service"
)

// Engine runs anomaly analysis over pallet snapshots. It reads location
// metadata, templates, and rule definitions through the storage interface and
// keeps no state between runs.
type Engine struct {
	store    service.Storage
	detector *detect.Detector
}

// New creates an analysis engine backed by the given store.
func New(store service.Storage) *Engine {
	return &Engine{
		store:    store,
		detector: detect.NewDetector(),
	}
}

// AnalysisRequest carries everything one run needs. Now is the reference
// time for all age calculations; the zero value means the current time.
// WarehouseID, when set, bypasses auto-detection. Rules, when non-empty,
// overrides the stored rule set. Progress, when set, is called after each
// rule completes.
type AnalysisRequest struct {
	Now         time.Time
	Progress    func(completed, total int)
	WarehouseID string
	Pallets     []model.PalletRecord
	Rules       []model.RuleDefinition
}

// RuleExecution records how one rule fared during a run. A rule either
// succeeded, was skipped for lack of a resolved warehouse, or failed with an
// error; a failed rule never contributes anomalies.
type RuleExecution struct {
	RuleName     string         `json:"rule_name"`
	Type         model.RuleType `json:"type"`
	Error        string         `json:"error,omitempty"`
	Duration     time.Duration  `json:"duration"`
	RuleID       int64          `json:"rule_id"`
	AnomalyCount int            `json:"anomaly_count"`
	Success      bool           `json:"success"`
	Skipped      bool           `json:"skipped"`
}

// AnalysisReport is the complete result of one run. Reports are returned to
// the caller and never persisted.
type AnalysisReport struct {
	GeneratedAt    time.Time              `json:"generated_at"`
	RunID          string                 `json:"run_id"`
	Context        model.WarehouseContext `json:"context"`
	Anomalies      []model.Anomaly        `json:"anomalies"`
	Executions     []RuleExecution        `json:"executions"`
	LocationHits   uint64                 `json:"location_hits"`
	LocationMisses uint64                 `json:"location_misses"`
}

// Analyze performs one full analysis run over the snapshot. The same
// snapshot, reference time, and rule set always produce the same anomalies
// in the same order.
func (e *Engine) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisReport, error) {
	if len(req.Pallets) == 0 {
		return nil, common.ErrNoPallets
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	runID := uuid.NewString()

	slog.Info("Starting analysis run",
		"run_id", runID,
		"pallets", len(req.Pallets),
		"warehouse", req.WarehouseID)

	templates, err := e.store.GetTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouse templates: %w", err)
	}

	rawLocations := make([]string, len(req.Pallets))
	for i, p := range req.Pallets {
		rawLocations[i] = p.Location
	}

	wctx := e.detector.Resolve(req.WarehouseID, rawLocations, templates)

	var tmpl *model.WarehouseTemplate
	if wctx.Resolved() {
		tmpl = findTemplate(templates, wctx.WarehouseID)
		if tmpl == nil {
			if wctx.Method == model.DetectionExplicit {
				return nil, common.NewUserError(
					fmt.Sprintf("warehouse %q has no template", wctx.WarehouseID),
					common.ErrNotFound)
			}
			// Detected IDs come from the catalog, so this is unreachable
			// short of a concurrent catalog change. Degrade, don't die.
			wctx = model.WarehouseContext{Confidence: model.ConfidenceNone, Method: model.DetectionFailed}
		}
	}

	if !wctx.Resolved() {
		slog.Warn("No warehouse context resolved; location-dependent rules will be skipped",
			"run_id", runID,
			"best_coverage", wctx.Coverage)
	}

	pallets, hits, misses, err := e.resolvePallets(ctx, req.Pallets, wctx, tmpl)
	if err != nil {
		return nil, err
	}

	defs, err := e.ruleSet(ctx, req.Rules)
	if err != nil {
		return nil, err
	}

	report := &AnalysisReport{
		GeneratedAt:    now,
		RunID:          runID,
		Context:        wctx,
		Anomalies:      []model.Anomaly{},
		Executions:     make([]RuleExecution, 0, len(defs)),
		LocationHits:   hits,
		LocationMisses: misses,
	}

	manager := NewPrecedenceManager()
	input := &rules.Input{Now: now, Warehouse: wctx, Pallets: pallets}

	for i, def := range defs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exec := runRule(ctx, def, input, manager, report)
		report.Executions = append(report.Executions, exec)
		if req.Progress != nil {
			req.Progress(i+1, len(defs))
		}
	}

	slog.Info("Analysis run complete",
		"run_id", runID,
		"anomalies", len(report.Anomalies),
		"rules", len(report.Executions))

	return report, nil
}

// runRule builds and evaluates one rule, filters its anomalies through the
// precedence manager, and registers the survivors as claims for the rules
// that follow.
func runRule(ctx context.Context, def model.RuleDefinition, input *rules.Input, manager *PrecedenceManager, report *AnalysisReport) RuleExecution {
	exec := RuleExecution{
		RuleID:   def.ID,
		RuleName: def.Name,
		Type:     def.Type,
	}

	evaluator, err := rules.Build(def)
	if err != nil {
		exec.Error = err.Error()
		slog.Error("Rule failed to build", "rule", def.Name, "error", err)
		return exec
	}

	if rules.NeedsResolution(def.Type) && !input.Warehouse.Resolved() {
		exec.Success = true
		exec.Skipped = true
		slog.Warn("Skipping location-dependent rule without a resolved warehouse", "rule", def.Name)
		return exec
	}

	start := time.Now()
	anomalies, err := evaluate(ctx, evaluator, input)
	exec.Duration = time.Since(start)
	if err != nil {
		exec.Error = err.Error()
		slog.Error("Rule evaluation failed", "rule", def.Name, "error", err)
		return exec
	}

	kept := anomalies[:0]
	for _, a := range anomalies {
		if manager.IsExcluded(a.PalletID, def.Type, def.Precedence) {
			continue
		}
		a.RuleName = def.Name
		a.Precedence = def.Precedence
		a.DetectedAt = input.Now
		kept = append(kept, a)
	}
	for _, a := range kept {
		manager.Register(a.PalletID, def.Precedence, def.Type, def.Name)
	}

	report.Anomalies = append(report.Anomalies, kept...)
	exec.Success = true
	exec.AnomalyCount = len(kept)
	return exec
}

// evaluate runs one evaluator with panic isolation. A panicking rule is
// reported as a failed execution, not a crashed run.
func evaluate(ctx context.Context, ev rules.Evaluator, input *rules.Input) (anomalies []model.Anomaly, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return ev.Evaluate(ctx, input)
}

// resolvePallets classifies every unique canonical location code exactly
// once and joins the result back onto each pallet. Without a resolved
// warehouse the pallets carry only their canonical codes.
func (e *Engine) resolvePallets(ctx context.Context, records []model.PalletRecord, wctx model.WarehouseContext, tmpl *model.WarehouseTemplate) ([]rules.Pallet, uint64, uint64, error) {
	pallets := make([]rules.Pallet, len(records))
	for i, rec := range records {
		pallets[i] = rules.Pallet{
			Record: rec,
			Code:   location.Canonicalize(rec.Location),
		}
	}

	if tmpl == nil || !wctx.Resolved() {
		return pallets, 0, 0, nil
	}

	seen := make(map[string]bool)
	codes := make([]string, 0, len(pallets))
	for _, p := range pallets {
		if p.Code == model.MissingLocation || seen[p.Code] {
			continue
		}
		seen[p.Code] = true
		codes = append(codes, p.Code)
	}
	sort.Strings(codes)

	repo := location.NewRepository(e.store, tmpl.DefaultCapacity)
	if err := repo.BulkLoad(ctx, wctx.WarehouseID, codes); err != nil {
		return nil, 0, 0, err
	}

	virtual := location.NewVirtualEngine(*tmpl)
	resolved := make(map[string]model.ResolvedLocation, len(codes))
	for _, code := range codes {
		resolved[code] = resolveCode(code, virtual, repo, tmpl)
	}

	for i := range pallets {
		pallets[i].Loc = resolved[pallets[i].Code]
	}

	hits, misses := repo.Stats()
	return pallets, hits, misses, nil
}

// resolveCode combines the template's structural verdict with any explicit
// per-location row from storage. An explicitly configured location is real
// even when the template grid cannot derive it, and its stored capacity and
// type always win over the template defaults.
func resolveCode(code string, virtual *location.VirtualEngine, repo *location.Repository, tmpl *model.WarehouseTemplate) model.ResolvedLocation {
	loc := virtual.Validate(code)
	if !repo.HasExplicit(code) {
		return loc
	}

	if !loc.Valid {
		loc.Valid = true
		loc.Reason = ""
		loc.Zone = tmpl.DefaultZone
		if loc.Zone == "" {
			loc.Zone = model.ZoneAmbient
		}
	}
	loc.Capacity = repo.Capacity(code)
	loc.UnitType = repo.UnitType(code)
	loc.Type = repo.LocationType(code)
	return loc
}

// ruleSet returns the rules for this run in execution order: ascending
// precedence, then ID for a stable order among equals. An explicit override
// set wins over the stored definitions; inactive rules never run.
func (e *Engine) ruleSet(ctx context.Context, override []model.RuleDefinition) ([]model.RuleDefinition, error) {
	defs := override
	if len(defs) == 0 {
		stored, err := e.store.GetActiveRules(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule definitions: %w", err)
		}
		defs = stored
	}

	active := make([]model.RuleDefinition, 0, len(defs))
	for _, def := range defs {
		if def.Active {
			active = append(active, def)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Precedence != active[j].Precedence {
			return active[i].Precedence < active[j].Precedence
		}
		return active[i].ID < active[j].ID
	})
	return active, nil
}

func findTemplate(templates []model.WarehouseTemplate, id string) *model.WarehouseTemplate {
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i]
		}
	}
	return nil
}
