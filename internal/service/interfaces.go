// Package service defines the interfaces shared across application services.
package service

import (
	"context"
	"time"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// Storage defines the contract for the external metadata store the analysis
// core reads from: per-location overrides, warehouse templates, and rule
// definitions. The core never holds a live handle into storage beyond the
// value snapshots these calls return.
type Storage interface {
	// Location metadata
	GetLocationMeta(ctx context.Context, warehouseID string, codes []string) (map[string]model.LocationMeta, error)
	UpsertLocationMeta(ctx context.Context, warehouseID string, meta []model.LocationMeta) error

	// Warehouse templates
	GetTemplates(ctx context.Context) ([]model.WarehouseTemplate, error)
	GetTemplateByID(ctx context.Context, id string) (*model.WarehouseTemplate, error)
	SaveTemplate(ctx context.Context, tmpl *model.WarehouseTemplate) error

	// Rule definitions
	GetActiveRules(ctx context.Context) ([]model.RuleDefinition, error)
	GetAllRules(ctx context.Context) ([]model.RuleDefinition, error)
	SaveRule(ctx context.Context, rule *model.RuleDefinition) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations crossing the
// blocking I/O boundary.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
