// Package storage provides the SQLite persistence layer for warehouse
// metadata: per-location overrides, warehouse templates, and rule
// definitions. Analysis results are never stored here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidMeta     = errors.New("invalid location metadata")
	ErrInvalidTemplate = errors.New("invalid warehouse template")
	ErrInvalidRule     = errors.New("invalid rule definition")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateLocationMeta validates a batch of location rows before an upsert.
func validateLocationMeta(meta []model.LocationMeta) error {
	if meta == nil {
		return fmt.Errorf("%w: meta", ErrNilParameter)
	}
	for i, m := range meta {
		if strings.TrimSpace(m.Code) == "" {
			return fmt.Errorf("%w: row %d has no code", ErrInvalidMeta, i)
		}
		if m.Capacity < 1 {
			return fmt.Errorf("%w: row %d (%s) capacity must be at least 1", ErrInvalidMeta, i, m.Code)
		}
	}
	return nil
}

// validateTemplate validates a template before saving.
func validateTemplate(tmpl *model.WarehouseTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("%w: template", ErrNilParameter)
	}
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return nil
}

// validateRule validates a rule definition before saving.
func validateRule(rule *model.RuleDefinition) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	return nil
}
