package location

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// VirtualEngine validates canonical location codes against a warehouse
// template by arithmetic bounds-checking. The template is the source of
// truth for the addressable location space; no location is ever materialized
// as a stored row, so growing the grid requires no backfill.
type VirtualEngine struct {
	areas map[string]model.SpecialArea
	// areaCodes holds special-area codes longest-first so that prefix
	// matching prefers the most specific declared area.
	areaCodes []string
	tmpl      model.WarehouseTemplate
}

// NewVirtualEngine creates a resolver for one warehouse template.
func NewVirtualEngine(tmpl model.WarehouseTemplate) *VirtualEngine {
	areas := make(map[string]model.SpecialArea, len(tmpl.SpecialAreas))
	codes := make([]string, 0, len(tmpl.SpecialAreas))
	for _, area := range tmpl.SpecialAreas {
		code := Canonicalize(area.Code)
		areas[code] = area
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] < codes[j]
	})

	return &VirtualEngine{
		tmpl:      tmpl,
		areas:     areas,
		areaCodes: codes,
	}
}

// Template returns the template this engine resolves against.
func (e *VirtualEngine) Template() model.WarehouseTemplate {
	return e.tmpl
}

// Validate answers whether a canonical code is structurally valid under the
// template, and what type, zone, and capacity it carries. Invalid codes get
// a specific reason, never a generic error.
func (e *VirtualEngine) Validate(code string) model.ResolvedLocation {
	loc := model.ResolvedLocation{
		Code:     code,
		UnitType: model.DefaultUnitType,
	}

	if code == "" || code == model.MissingLocation {
		loc.Reason = "no location recorded"
		return loc
	}

	if area, ok := e.matchSpecialArea(code); ok {
		loc.Valid = true
		loc.Type = area.Type
		loc.Zone = area.Zone
		loc.Capacity = area.Capacity
		if loc.Zone == "" {
			loc.Zone = e.tmpl.DefaultZone
		}
		return loc
	}

	tokens := strings.Split(code, "-")
	if !isStructural(tokens) {
		loc.Reason = fmt.Sprintf("location %q matches no declared area and no aisle-rack-position-level pattern", code)
		return loc
	}

	aisle, _ := strconv.Atoi(tokens[0])
	rack, _ := strconv.Atoi(tokens[1])
	position, _ := strconv.Atoi(tokens[2])
	level := tokens[3]

	switch {
	case aisle < 1:
		loc.Reason = fmt.Sprintf("aisle %d must be at least 1", aisle)
	case aisle > e.tmpl.Aisles:
		loc.Reason = fmt.Sprintf("aisle %d exceeds template limit of %d", aisle, e.tmpl.Aisles)
	case rack < 1:
		loc.Reason = fmt.Sprintf("rack %d must be at least 1", rack)
	case rack > e.tmpl.RacksPerAisle:
		loc.Reason = fmt.Sprintf("rack %d exceeds template limit of %d", rack, e.tmpl.RacksPerAisle)
	case position < 1:
		loc.Reason = fmt.Sprintf("position %d must be at least 1", position)
	case position > e.tmpl.PositionsPerRack:
		loc.Reason = fmt.Sprintf("position %d exceeds template limit of %d", position, e.tmpl.PositionsPerRack)
	case !strings.Contains(e.tmpl.LevelNames, level):
		loc.Reason = fmt.Sprintf("level %s not among template levels %s", level, e.tmpl.LevelNames)
	default:
		loc.Valid = true
		loc.Type = model.TypeStorage
		loc.Zone = e.tmpl.ZoneForAisle(aisle)
		loc.Capacity = e.tmpl.DefaultCapacity
	}

	return loc
}

// matchSpecialArea finds the declared special area a code belongs to, either
// exactly or as a numbered slot within the area (e.g. RECV-02 under RECV).
func (e *VirtualEngine) matchSpecialArea(code string) (model.SpecialArea, bool) {
	for _, areaCode := range e.areaCodes {
		if code == areaCode || strings.HasPrefix(code, areaCode+"-") {
			return e.areas[areaCode], true
		}
	}
	return model.SpecialArea{}, false
}
