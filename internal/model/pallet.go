// Package model defines the core data structures for the slotwatch application.
package model

import (
	"strings"
	"time"
)

// MissingLocation is the sentinel canonical code assigned to pallets whose
// location field is empty or unparseable. It is never a valid location.
const MissingLocation = "NO-LOCATION"

// PalletRecord represents a single physical pallet scan from an inventory
// snapshot. Records are immutable inputs; the engine never mutates them.
// PalletID is not required to be unique -- duplication is itself a signal
// the data-integrity rule looks for.
type PalletRecord struct {
	CreatedAt       time.Time
	PalletID        string
	Location        string // Raw location string as scanned; may be empty
	LotNumber       string // Receipt/lot number grouping pallets shipped together
	Description     string
	TempRequirement string // Optional explicit requirement (e.g. FROZEN)
}

// Age returns how long the pallet has been sitting since its scan, relative
// to the injected analysis time.
func (p *PalletRecord) Age(now time.Time) time.Duration {
	if p.CreatedAt.IsZero() {
		return 0
	}
	return now.Sub(p.CreatedAt)
}

// HasLocation reports whether the record carries a usable location string.
func (p *PalletRecord) HasLocation() bool {
	return strings.TrimSpace(p.Location) != ""
}
