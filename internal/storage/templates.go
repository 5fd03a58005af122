package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kestrelwms/slotwatch/internal/common"
	"github.com/kestrelwms/slotwatch/internal/model"
)

// GetTemplates returns every warehouse template with its special areas,
// ordered by ID for deterministic detection tie-breaks.
func (s *SQLiteStorage) GetTemplates(ctx context.Context) ([]model.WarehouseTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, aisles, racks_per_aisle, positions_per_rack,
		       level_names, default_capacity, default_zone, zone_ranges
		FROM warehouse_templates
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []model.WarehouseTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	areas, err := s.specialAreasByTemplate(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		templates[i].SpecialAreas = areas[templates[i].ID]
	}

	return templates, nil
}

// GetTemplateByID returns one template, or common.ErrNotFound.
func (s *SQLiteStorage) GetTemplateByID(ctx context.Context, id string) (*model.WarehouseTemplate, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, aisles, racks_per_aisle, positions_per_rack,
		       level_names, default_capacity, default_zone, zone_ranges
		FROM warehouse_templates
		WHERE id = ?`, id)

	tmpl, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	areas, err := s.specialAreasFor(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl.SpecialAreas = areas

	return &tmpl, nil
}

// SaveTemplate inserts or replaces a template and its special areas
// atomically.
func (s *SQLiteStorage) SaveTemplate(ctx context.Context, tmpl *model.WarehouseTemplate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTemplate(tmpl); err != nil {
		return err
	}

	zoneRanges, err := json.Marshal(tmpl.ZoneRanges)
	if err != nil {
		return fmt.Errorf("failed to encode zone ranges: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO warehouse_templates
			(id, name, aisles, racks_per_aisle, positions_per_rack,
			 level_names, default_capacity, default_zone, zone_ranges)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			aisles = excluded.aisles,
			racks_per_aisle = excluded.racks_per_aisle,
			positions_per_rack = excluded.positions_per_rack,
			level_names = excluded.level_names,
			default_capacity = excluded.default_capacity,
			default_zone = excluded.default_zone,
			zone_ranges = excluded.zone_ranges,
			updated_at = CURRENT_TIMESTAMP`,
		tmpl.ID, tmpl.Name, tmpl.Aisles, tmpl.RacksPerAisle, tmpl.PositionsPerRack,
		tmpl.LevelNames, tmpl.DefaultCapacity, string(tmpl.DefaultZone), string(zoneRanges)); err != nil {
		return fmt.Errorf("failed to save template %s: %w", tmpl.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM special_areas WHERE template_id = ?`, tmpl.ID); err != nil {
		return fmt.Errorf("failed to clear special areas for %s: %w", tmpl.ID, err)
	}
	for _, area := range tmpl.SpecialAreas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO special_areas (template_id, code, area_type, zone, capacity)
			VALUES (?, ?, ?, ?, ?)`,
			tmpl.ID, area.Code, string(area.Type), string(area.Zone), area.Capacity); err != nil {
			return fmt.Errorf("failed to save special area %s/%s: %w", tmpl.ID, area.Code, err)
		}
	}

	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (model.WarehouseTemplate, error) {
	var tmpl model.WarehouseTemplate
	var defaultZone string
	var zoneRanges sql.NullString

	err := row.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Aisles, &tmpl.RacksPerAisle,
		&tmpl.PositionsPerRack, &tmpl.LevelNames, &tmpl.DefaultCapacity,
		&defaultZone, &zoneRanges)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tmpl, err
		}
		return tmpl, fmt.Errorf("failed to scan template row: %w", err)
	}

	tmpl.DefaultZone = model.Zone(defaultZone)
	if zoneRanges.Valid && zoneRanges.String != "" {
		if err := json.Unmarshal([]byte(zoneRanges.String), &tmpl.ZoneRanges); err != nil {
			return tmpl, fmt.Errorf("failed to decode zone ranges for %s: %w", tmpl.ID, err)
		}
	}
	return tmpl, nil
}

func (s *SQLiteStorage) specialAreasByTemplate(ctx context.Context) (map[string][]model.SpecialArea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT template_id, code, area_type, zone, capacity
		FROM special_areas
		ORDER BY template_id, code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query special areas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	areas := make(map[string][]model.SpecialArea)
	for rows.Next() {
		var templateID string
		area, err := scanSpecialArea(rows, &templateID)
		if err != nil {
			return nil, err
		}
		areas[templateID] = append(areas[templateID], area)
	}
	return areas, rows.Err()
}

func (s *SQLiteStorage) specialAreasFor(ctx context.Context, templateID string) ([]model.SpecialArea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT template_id, code, area_type, zone, capacity
		FROM special_areas
		WHERE template_id = ?
		ORDER BY code`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query special areas for %s: %w", templateID, err)
	}
	defer func() { _ = rows.Close() }()

	var areas []model.SpecialArea
	for rows.Next() {
		var id string
		area, err := scanSpecialArea(rows, &id)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}
	return areas, rows.Err()
}

func scanSpecialArea(rows *sql.Rows, templateID *string) (model.SpecialArea, error) {
	var area model.SpecialArea
	var areaType, zone string
	if err := rows.Scan(templateID, &area.Code, &areaType, &zone, &area.Capacity); err != nil {
		return area, fmt.Errorf("failed to scan special area row: %w", err)
	}
	area.Type = model.LocationType(areaType)
	area.Zone = model.Zone(zone)
	return area, nil
}
