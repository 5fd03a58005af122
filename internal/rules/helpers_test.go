package rules

import (
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// testNow is the injected "now" every rules test evaluates against.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// validPallet builds a pallet standing at a valid location of the given
// type, scanned ageHours before testNow.
func validPallet(id, code string, lt model.LocationType, ageHours float64) Pallet {
	return Pallet{
		Record: model.PalletRecord{
			PalletID:  id,
			Location:  code,
			CreatedAt: testNow.Add(-hours(ageHours)),
		},
		Code: code,
		Loc: model.ResolvedLocation{
			Code:     code,
			Type:     lt,
			Zone:     model.ZoneAmbient,
			Capacity: 1,
			UnitType: model.DefaultUnitType,
			Valid:    true,
		},
	}
}

// invalidPallet builds a pallet at a structurally invalid location.
func invalidPallet(id, code, reason string) Pallet {
	return Pallet{
		Record: model.PalletRecord{
			PalletID:  id,
			Location:  code,
			CreatedAt: testNow.Add(-time.Hour),
		},
		Code: code,
		Loc: model.ResolvedLocation{
			Code:   code,
			Valid:  false,
			Reason: reason,
		},
	}
}

// input wraps pallets into an evaluation context with a resolved warehouse.
func input(pallets ...Pallet) *Input {
	return &Input{
		Now: testNow,
		Warehouse: model.WarehouseContext{
			WarehouseID: "WH-TEST",
			Confidence:  model.ConfidenceExplicit,
			Coverage:    1.0,
			Method:      model.DetectionExplicit,
		},
		Pallets: pallets,
	}
}
