package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kestrelwms/slotwatch/internal/config"
	"github.com/kestrelwms/slotwatch/internal/model"
)

// snapshotRecord is the wire form of one pallet scan. Timestamps arrive as
// strings because upstream exports are messy; coercion happens here at the
// boundary, never inside the engine.
type snapshotRecord struct {
	PalletID        string `json:"pallet_id"`
	Location        string `json:"location"`
	CreatedAt       string `json:"created_at"`
	LotNumber       string `json:"lot_number"`
	Description     string `json:"description"`
	TempRequirement string `json:"temp_requirement"`
}

var snapshotTimeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// loadSnapshot reads a pallet snapshot file. Both a bare JSON array and a
// {"pallets": [...]} wrapper are accepted. Unparseable timestamps coerce to
// the zero time with a warning; the record itself is never dropped.
func loadSnapshot(path string) ([]model.PalletRecord, error) {
	data, err := os.ReadFile(config.ExpandPath(path)) // #nosec G304 -- user-supplied snapshot path
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var raw []snapshotRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapped struct {
			Pallets []snapshotRecord `json:"pallets"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
		}
		raw = wrapped.Pallets
	}

	records := make([]model.PalletRecord, 0, len(raw))
	for i, r := range raw {
		rec := model.PalletRecord{
			PalletID:        r.PalletID,
			Location:        r.Location,
			LotNumber:       r.LotNumber,
			Description:     r.Description,
			TempRequirement: r.TempRequirement,
		}
		if r.CreatedAt != "" {
			ts, ok := parseSnapshotTime(r.CreatedAt)
			if !ok {
				slog.Warn("Unparseable timestamp in snapshot, treating as unknown age",
					"index", i,
					"pallet", r.PalletID,
					"created_at", r.CreatedAt)
			}
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseSnapshotTime(s string) (time.Time, bool) {
	for _, format := range snapshotTimeFormats {
		if ts, err := time.Parse(format, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
