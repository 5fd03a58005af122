// Package detect determines which warehouse a pallet snapshot belongs to by
// scoring its location strings against a catalog of warehouse templates.
package detect

import (
	"log/slog"
	"sort"

	"github.com/kestrelwms/slotwatch/internal/location"
	"github.com/kestrelwms/slotwatch/internal/model"
)

// Coverage thresholds mapping a match fraction to a discrete confidence
// level, and the minimum fraction at which a detection is accepted at all.
const (
	thresholdVeryHigh = 0.95
	thresholdHigh     = 0.8
	thresholdMedium   = 0.5
	thresholdLow      = 0.25

	// MinAcceptedCoverage is the floor below which auto-detection reports
	// failure and downstream location-dependent rules degrade gracefully.
	MinAcceptedCoverage = 0.25
)

// Detector scores snapshots against template catalogs.
type Detector struct{}

// NewDetector creates a context detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Resolve establishes the warehouse context for a run. When the caller
// supplies an explicit warehouse ID, detection is bypassed entirely and the
// confidence is forced to EXPLICIT; auto-detection never overrides a human
// choice. Otherwise the snapshot's locations are scored against every
// catalog template.
func (d *Detector) Resolve(explicitID string, locations []string, catalog []model.WarehouseTemplate) model.WarehouseContext {
	if explicitID != "" {
		return model.WarehouseContext{
			WarehouseID: explicitID,
			Confidence:  model.ConfidenceExplicit,
			Coverage:    1.0,
			Method:      model.DetectionExplicit,
		}
	}
	return d.Detect(locations, catalog)
}

// Detect canonicalizes every snapshot location, generates its search
// variants, and computes per-template coverage: the fraction of non-empty
// locations for which at least one variant is structurally valid under the
// template. The best-scoring template wins; ties break on template ID for
// determinism.
func (d *Detector) Detect(locations []string, catalog []model.WarehouseTemplate) model.WarehouseContext {
	failed := model.WarehouseContext{
		Confidence: model.ConfidenceNone,
		Method:     model.DetectionFailed,
	}

	codes := canonicalNonEmpty(locations)
	if len(codes) == 0 || len(catalog) == 0 {
		return failed
	}

	ordered := make([]model.WarehouseTemplate, len(catalog))
	copy(ordered, catalog)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var bestID string
	bestCoverage := -1.0

	for _, tmpl := range ordered {
		coverage := d.coverage(codes, tmpl)
		slog.Debug("Scored template against snapshot",
			"template", tmpl.ID,
			"coverage", coverage,
			"locations", len(codes))
		if coverage > bestCoverage {
			bestCoverage = coverage
			bestID = tmpl.ID
		}
	}

	if bestCoverage < MinAcceptedCoverage {
		slog.Info("No template matched snapshot above acceptance minimum",
			"best_template", bestID,
			"best_coverage", bestCoverage)
		failed.Coverage = bestCoverage
		return failed
	}

	return model.WarehouseContext{
		WarehouseID: bestID,
		Confidence:  confidenceFor(bestCoverage),
		Coverage:    bestCoverage,
		Method:      model.DetectionCoverage,
	}
}

// coverage computes the matched fraction for one template.
func (d *Detector) coverage(codes []string, tmpl model.WarehouseTemplate) float64 {
	engine := location.NewVirtualEngine(tmpl)

	matched := 0
	for _, code := range codes {
		for _, variant := range location.Variants(code) {
			if engine.Validate(location.Canonicalize(variant)).Valid {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(codes))
}

// canonicalNonEmpty canonicalizes the raw locations and drops the ones with
// nothing usable.
func canonicalNonEmpty(locations []string) []string {
	codes := make([]string, 0, len(locations))
	for _, raw := range locations {
		code := location.Canonicalize(raw)
		if code == model.MissingLocation {
			continue
		}
		codes = append(codes, code)
	}
	return codes
}

// confidenceFor maps a coverage fraction to a discrete confidence level.
func confidenceFor(coverage float64) model.ConfidenceLevel {
	switch {
	case coverage >= thresholdVeryHigh:
		return model.ConfidenceVeryHigh
	case coverage >= thresholdHigh:
		return model.ConfidenceHigh
	case coverage >= thresholdMedium:
		return model.ConfidenceMedium
	case coverage >= thresholdLow:
		return model.ConfidenceLow
	case coverage > 0:
		return model.ConfidenceVeryLow
	default:
		return model.ConfidenceNone
	}
}
