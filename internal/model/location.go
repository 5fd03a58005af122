package model

// ResolvedLocation is the classification of one canonical location code for
// the lifetime of a single analysis run. The same code always resolves
// identically within one run.
type ResolvedLocation struct {
	Code     string       `json:"code"`
	Type     LocationType `json:"type"`
	Zone     Zone         `json:"zone"`
	Capacity int          `json:"capacity"`
	UnitType string       `json:"unit_type"`
	Valid    bool         `json:"valid"`
	Reason   string       `json:"reason,omitempty"` // Set when Valid is false
}

// LocationMeta is per-location metadata held by external storage: real
// capacity and type overrides for locations that have been explicitly
// configured, as opposed to the template defaults.
type LocationMeta struct {
	Code     string
	Capacity int
	UnitType string
	Type     LocationType
	Special  bool // Physically marked special (receiving bay, dock, ...)
}

// DefaultUnitType is assumed for locations absent from storage.
const DefaultUnitType = "PALLET"
