package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// maxBatchSize keeps IN-clause parameter counts under SQLite's limit.
const maxBatchSize = 500

// GetLocationMeta fetches explicit per-location rows for the given canonical
// codes. Soft-deleted rows (active = 0) are filtered out; rows predating the
// active column (NULL) count as active. Codes without a row are simply absent
// from the result map.
func (s *SQLiteStorage) GetLocationMeta(ctx context.Context, warehouseID string, codes []string) (map[string]model.LocationMeta, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(warehouseID, "warehouseID"); err != nil {
		return nil, err
	}

	result := make(map[string]model.LocationMeta, len(codes))
	for start := 0; start < len(codes); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(codes) {
			end = len(codes)
		}
		if err := s.getLocationMetaBatch(ctx, warehouseID, codes[start:end], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *SQLiteStorage) getLocationMetaBatch(ctx context.Context, warehouseID string, codes []string, result map[string]model.LocationMeta) error {
	if len(codes) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(codes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(codes)+1)
	args = append(args, warehouseID)
	for _, code := range codes {
		args = append(args, code)
	}

	query := fmt.Sprintf(`
		SELECT code, capacity, unit_type, location_type, is_special
		FROM locations
		WHERE warehouse_id = ?
		  AND code IN (%s)
		  AND (active IS NULL OR active != 0)`, placeholders)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query location metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m model.LocationMeta
		var locType string
		if err := rows.Scan(&m.Code, &m.Capacity, &m.UnitType, &locType, &m.Special); err != nil {
			return fmt.Errorf("failed to scan location row: %w", err)
		}
		m.Type = model.LocationType(locType)
		result[m.Code] = m
	}
	return rows.Err()
}

// UpsertLocationMeta inserts or updates explicit location rows for one
// warehouse in a single transaction.
func (s *SQLiteStorage) UpsertLocationMeta(ctx context.Context, warehouseID string, meta []model.LocationMeta) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(warehouseID, "warehouseID"); err != nil {
		return err
	}
	if err := validateLocationMeta(meta); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locations (warehouse_id, code, capacity, unit_type, location_type, is_special, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(warehouse_id, code) DO UPDATE SET
			capacity = excluded.capacity,
			unit_type = excluded.unit_type,
			location_type = excluded.location_type,
			is_special = excluded.is_special,
			active = 1,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range meta {
		unitType := m.UnitType
		if unitType == "" {
			unitType = model.DefaultUnitType
		}
		locType := m.Type
		if locType == "" {
			locType = model.TypeStorage
		}
		if _, err := stmt.ExecContext(ctx, warehouseID, m.Code, m.Capacity, unitType, string(locType), m.Special); err != nil {
			return fmt.Errorf("failed to upsert location %s: %w", m.Code, err)
		}
	}

	return tx.Commit()
}

// DeactivateLocation soft-deletes one location row. Subsequent runs treat
// the code as absent and fall back to template defaults.
func (s *SQLiteStorage) DeactivateLocation(ctx context.Context, warehouseID, code string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(warehouseID, "warehouseID"); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE locations SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE warehouse_id = ? AND code = ?`, warehouseID, code)
	if err != nil {
		return fmt.Errorf("failed to deactivate location %s: %w", code, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
