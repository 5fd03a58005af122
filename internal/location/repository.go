package location

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelwms/slotwatch/internal/common"
	"github.com/kestrelwms/slotwatch/internal/model"
	"github.com/kestrelwms/slotwatch/internal/service"
)

// Repository holds the per-location metadata for one analysis run, loaded
// from external storage in a single batch query. It is constructed per run
// and never shared: staleness of the underlying store is the collaborator's
// concern, the run only ever sees the value snapshot taken at BulkLoad time.
type Repository struct {
	store           service.Storage
	meta            map[string]model.LocationMeta
	explicit        map[string]bool
	defaultCapacity int
	hits            uint64
	misses          uint64
	loaded          bool
}

// NewRepository creates an unloaded repository. defaultCapacity applies to
// codes absent from storage.
func NewRepository(store service.Storage, defaultCapacity int) *Repository {
	if defaultCapacity < 1 {
		defaultCapacity = 1
	}
	return &Repository{
		store:           store,
		defaultCapacity: defaultCapacity,
		meta:            make(map[string]model.LocationMeta),
		explicit:        make(map[string]bool),
	}
}

// BulkLoad fetches metadata for the given codes in exactly one storage
// query and builds the in-memory lookup maps. Codes absent from storage get
// a placeholder with the default capacity and unit type rather than being
// treated as errors: the policy is "present unless explicitly marked
// absent". BulkLoad must be called exactly once per run, before any lookup.
func (r *Repository) BulkLoad(ctx context.Context, warehouseID string, codes []string) error {
	if r.loaded {
		return fmt.Errorf("location repository already loaded for this run")
	}

	var stored map[string]model.LocationMeta
	err := common.WithRetry(ctx, func() error {
		var loadErr error
		stored, loadErr = r.store.GetLocationMeta(ctx, warehouseID, codes)
		return loadErr
	}, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to bulk load location metadata: %w", err)
	}

	for _, code := range codes {
		if m, ok := stored[code]; ok {
			r.meta[code] = m
			r.explicit[code] = true
			continue
		}
		r.meta[code] = model.LocationMeta{
			Code:     code,
			Capacity: r.defaultCapacity,
			UnitType: model.DefaultUnitType,
			Type:     model.TypeStorage,
		}
	}

	r.loaded = true
	return nil
}

// Capacity returns the pallet capacity for a code.
func (r *Repository) Capacity(code string) int {
	return r.lookup(code).Capacity
}

// UnitType returns the storage unit type for a code.
func (r *Repository) UnitType(code string) string {
	return r.lookup(code).UnitType
}

// LocationType returns the declared location type for a code.
func (r *Repository) LocationType(code string) model.LocationType {
	return r.lookup(code).Type
}

// IsPhysicalSpecial reports whether the code is physically marked as a
// special location in storage.
func (r *Repository) IsPhysicalSpecial(code string) bool {
	return r.lookup(code).Special
}

// HasExplicit reports whether storage held a real row for the code, as
// opposed to the placeholder default.
func (r *Repository) HasExplicit(code string) bool {
	r.mustBeLoaded()
	return r.explicit[code]
}

// Stats returns cache hit/miss counters. A hit is a lookup answered by an
// explicitly stored row; a miss is one answered by the placeholder default.
func (r *Repository) Stats() (hits, misses uint64) {
	return r.hits, r.misses
}

func (r *Repository) lookup(code string) model.LocationMeta {
	r.mustBeLoaded()
	m, ok := r.meta[code]
	if !ok {
		// Codes never passed to BulkLoad still answer with the default.
		r.misses++
		return model.LocationMeta{
			Code:     code,
			Capacity: r.defaultCapacity,
			UnitType: model.DefaultUnitType,
			Type:     model.TypeStorage,
		}
	}
	if r.explicit[code] {
		r.hits++
	} else {
		r.misses++
	}
	return m
}

// mustBeLoaded enforces the load-before-use contract. Reading before
// BulkLoad is a programming error, not a recoverable condition.
func (r *Repository) mustBeLoaded() {
	if !r.loaded {
		panic("location.Repository: lookup before BulkLoad")
	}
}
