package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"unicode"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// maxLocationLength bounds what a sane location string can be. Anything
// longer is a data-corruption symptom, not a real address.
const maxLocationLength = 64

// IntegrityEvaluator flags data-corruption symptoms: the same pallet ID
// scanned more than once with differing location or time, and location
// strings that cannot possibly be real (empty, non-printable, absurdly
// long). It runs regardless of whether a warehouse context was resolved.
type IntegrityEvaluator struct{}

func newIntegrityEvaluator(params json.RawMessage) (Evaluator, error) {
	var p struct{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return &IntegrityEvaluator{}, nil
}

// Type implements Evaluator.
func (e *IntegrityEvaluator) Type() model.RuleType {
	return model.RuleDataIntegrity
}

// Evaluate implements Evaluator.
func (e *IntegrityEvaluator) Evaluate(_ context.Context, in *Input) ([]model.Anomaly, error) {
	anomalies := e.duplicateScans(in)
	anomalies = append(anomalies, e.impossibleLocations(in)...)
	return anomalies, nil
}

// duplicateScans flags every occurrence beyond the first of a pallet ID
// that appears multiple times with differing location or timestamp.
func (e *IntegrityEvaluator) duplicateScans(in *Input) []model.Anomaly {
	occurrences := make(map[string][]Pallet)
	var order []string
	for _, p := range in.Pallets {
		if p.Record.PalletID == "" {
			continue
		}
		if _, seen := occurrences[p.Record.PalletID]; !seen {
			order = append(order, p.Record.PalletID)
		}
		occurrences[p.Record.PalletID] = append(occurrences[p.Record.PalletID], p)
	}

	var anomalies []model.Anomaly
	for _, id := range order {
		scans := occurrences[id]
		if len(scans) < 2 || !scansDiffer(scans) {
			continue
		}

		// Deterministic ordering: earliest scan is the authoritative one,
		// everything after it is a duplicate.
		sort.SliceStable(scans, func(i, j int) bool {
			if !scans[i].Record.CreatedAt.Equal(scans[j].Record.CreatedAt) {
				return scans[i].Record.CreatedAt.Before(scans[j].Record.CreatedAt)
			}
			return scans[i].Code < scans[j].Code
		})

		for _, dup := range scans[1:] {
			anomalies = append(anomalies, model.Anomaly{
				Type:     model.RuleDataIntegrity,
				PalletID: id,
				Location: dup.Code,
				Message: fmt.Sprintf("pallet ID scanned %d times with conflicting data; duplicate scan at %s",
					len(scans), dup.Code),
			})
		}
	}
	return anomalies
}

// scansDiffer reports whether duplicated scans disagree on location or time.
// Identical repeated rows are not flagged.
func scansDiffer(scans []Pallet) bool {
	first := scans[0]
	for _, s := range scans[1:] {
		if s.Code != first.Code || !s.Record.CreatedAt.Equal(first.Record.CreatedAt) {
			return true
		}
	}
	return false
}

// impossibleLocations flags location strings failing basic sanity checks.
func (e *IntegrityEvaluator) impossibleLocations(in *Input) []model.Anomaly {
	var anomalies []model.Anomaly
	for _, p := range in.Pallets {
		reason := locationSanityIssue(p.Record.Location)
		if reason == "" {
			continue
		}
		anomalies = append(anomalies, model.Anomaly{
			Type:     model.RuleDataIntegrity,
			PalletID: p.Record.PalletID,
			Location: p.Code,
			Message:  reason,
		})
	}
	return anomalies
}

// locationSanityIssue returns a description of what is impossible about a
// raw location string, or "" when it passes.
func locationSanityIssue(raw string) string {
	if len(raw) == 0 {
		return "pallet has no recorded location"
	}
	if len(raw) > maxLocationLength {
		return fmt.Sprintf("location string is %d characters, exceeding the %d character bound", len(raw), maxLocationLength)
	}
	for _, r := range raw {
		if !unicode.IsPrint(r) {
			return "location string contains non-printable characters"
		}
	}
	return ""
}
