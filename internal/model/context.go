package model

// ConfidenceLevel expresses how sure the detector is about which warehouse
// a snapshot belongs to.
type ConfidenceLevel string

const (
	// ConfidenceNone means no template matched any location.
	ConfidenceNone ConfidenceLevel = "NONE"
	// ConfidenceVeryLow means a template matched a handful of locations.
	ConfidenceVeryLow ConfidenceLevel = "VERY_LOW"
	// ConfidenceLow means a template matched a minority of locations.
	ConfidenceLow ConfidenceLevel = "LOW"
	// ConfidenceMedium means a template matched at least half the locations.
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	// ConfidenceHigh means a template matched at least 80% of locations.
	ConfidenceHigh ConfidenceLevel = "HIGH"
	// ConfidenceVeryHigh means a template matched at least 95% of locations.
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
	// ConfidenceExplicit means the caller named the warehouse; detection
	// was bypassed entirely and must never override the choice.
	ConfidenceExplicit ConfidenceLevel = "EXPLICIT"
)

// DetectionMethod records how the warehouse context was established.
type DetectionMethod string

const (
	// DetectionExplicit means the caller supplied the warehouse ID.
	DetectionExplicit DetectionMethod = "explicit"
	// DetectionCoverage means the warehouse was auto-detected by coverage scoring.
	DetectionCoverage DetectionMethod = "coverage"
	// DetectionFailed means no template scored above the acceptance minimum.
	DetectionFailed DetectionMethod = "failed"
)

// WarehouseContext is the resolved warehouse for one analysis run. Computed
// once per run and never persisted.
type WarehouseContext struct {
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Confidence  ConfidenceLevel `json:"confidence"`
	Coverage    float64         `json:"coverage"`
	Method      DetectionMethod `json:"method"`
}

// Resolved reports whether a warehouse was established for the run. When
// false, location-dependent rules must degrade gracefully instead of
// flagging everything.
func (c WarehouseContext) Resolved() bool {
	return c.WarehouseID != "" && c.Confidence != ConfidenceNone
}
