package model

import (
	"fmt"
	"strings"
)

// Zone identifies the temperature zone of a location.
type Zone string

const (
	// ZoneAmbient is unconditioned storage.
	ZoneAmbient Zone = "AMBIENT"
	// ZoneRefrigerated is chilled storage (roughly 0-8C).
	ZoneRefrigerated Zone = "REFRIGERATED"
	// ZoneFrozen is freezer storage.
	ZoneFrozen Zone = "FROZEN"
)

// LocationType classifies what a location is used for.
type LocationType string

const (
	// TypeStorage is a rack position for long-term storage.
	TypeStorage LocationType = "STORAGE"
	// TypeReceiving is an inbound buffer area.
	TypeReceiving LocationType = "RECEIVING"
	// TypeStaging is an outbound staging area.
	TypeStaging LocationType = "STAGING"
	// TypeDock is a dock door position.
	TypeDock LocationType = "DOCK"
	// TypeTransitional is floor space pallets pass through (aisle drops etc).
	TypeTransitional LocationType = "TRANSITIONAL"
)

// SpecialArea declares a named non-rack area within a warehouse template.
// Special areas carry their own explicit capacity and zone.
type SpecialArea struct {
	Code     string       `json:"code" yaml:"code"`
	Type     LocationType `json:"type" yaml:"type"`
	Zone     Zone         `json:"zone" yaml:"zone"`
	Capacity int          `json:"capacity" yaml:"capacity"`
}

// ZoneRange assigns a temperature zone to a contiguous range of aisles.
type ZoneRange struct {
	StartAisle int  `json:"start_aisle" yaml:"start_aisle"`
	EndAisle   int  `json:"end_aisle" yaml:"end_aisle"`
	Zone       Zone `json:"zone" yaml:"zone"`
}

// WarehouseTemplate describes one warehouse's addressable location space
// structurally: grid bounds plus declared special areas. The template is the
// source of truth for location validity -- locations are validated by
// arithmetic bounds-checking, never by materializing every slot.
type WarehouseTemplate struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	Aisles           int           `json:"aisles" yaml:"aisles"`
	RacksPerAisle    int           `json:"racks_per_aisle" yaml:"racks_per_aisle"`
	PositionsPerRack int           `json:"positions_per_rack" yaml:"positions_per_rack"`
	LevelNames       string        `json:"level_names" yaml:"level_names"` // e.g. "ABCD"
	DefaultCapacity  int           `json:"default_capacity" yaml:"default_capacity"`
	DefaultZone      Zone          `json:"default_zone" yaml:"default_zone"`
	ZoneRanges       []ZoneRange   `json:"zone_ranges,omitempty" yaml:"zone_ranges,omitempty"`
	SpecialAreas     []SpecialArea `json:"special_areas,omitempty" yaml:"special_areas,omitempty"`
}

// Validate ensures the template describes a usable location space.
func (t *WarehouseTemplate) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("template ID is required")
	}
	if t.Aisles < 1 {
		return fmt.Errorf("template %s: aisles must be at least 1, got %d", t.ID, t.Aisles)
	}
	if t.RacksPerAisle < 1 {
		return fmt.Errorf("template %s: racks per aisle must be at least 1, got %d", t.ID, t.RacksPerAisle)
	}
	if t.PositionsPerRack < 1 {
		return fmt.Errorf("template %s: positions per rack must be at least 1, got %d", t.ID, t.PositionsPerRack)
	}
	if len(t.LevelNames) == 0 {
		return fmt.Errorf("template %s: at least one level name is required", t.ID)
	}
	if t.DefaultCapacity < 1 {
		return fmt.Errorf("template %s: default capacity must be at least 1, got %d", t.ID, t.DefaultCapacity)
	}
	for _, area := range t.SpecialAreas {
		if strings.TrimSpace(area.Code) == "" {
			return fmt.Errorf("template %s: special area code is required", t.ID)
		}
		if area.Capacity < 1 {
			return fmt.Errorf("template %s: special area %s capacity must be at least 1", t.ID, area.Code)
		}
	}
	for _, zr := range t.ZoneRanges {
		if zr.StartAisle < 1 || zr.EndAisle > t.Aisles || zr.StartAisle > zr.EndAisle {
			return fmt.Errorf("template %s: zone range %d-%d outside aisle bounds 1-%d",
				t.ID, zr.StartAisle, zr.EndAisle, t.Aisles)
		}
	}
	return nil
}

// Zone resolves the temperature zone for an aisle, falling back to the
// template default when no range covers it.
func (t *WarehouseTemplate) ZoneForAisle(aisle int) Zone {
	for _, zr := range t.ZoneRanges {
		if aisle >= zr.StartAisle && aisle <= zr.EndAisle {
			return zr.Zone
		}
	}
	if t.DefaultZone == "" {
		return ZoneAmbient
	}
	return t.DefaultZone
}

// TheoreticalLocations returns how many grid slots the template describes.
// The count is informational; slots are never materialized.
func (t *WarehouseTemplate) TheoreticalLocations() int {
	return t.Aisles * t.RacksPerAisle * t.PositionsPerRack * len(t.LevelNames)
}
