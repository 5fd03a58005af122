package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kestrelwms/slotwatch/internal/model"
)

// GetActiveRules returns the active rule definitions in execution order:
// ascending precedence, then ID.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.RuleDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `
		SELECT id, name, rule_type, parameters, precedence, active, created_at, updated_at
		FROM rules
		WHERE active = 1
		ORDER BY precedence, id`)
}

// GetAllRules returns every rule definition, active or not.
func (s *SQLiteStorage) GetAllRules(ctx context.Context) ([]model.RuleDefinition, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `
		SELECT id, name, rule_type, parameters, precedence, active, created_at, updated_at
		FROM rules
		ORDER BY precedence, id`)
}

// SaveRule inserts a new rule or updates an existing one. Rule names are
// unique; saving under an existing name updates that rule. The definition's
// ID is filled in on return.
func (s *SQLiteStorage) SaveRule(ctx context.Context, rule *model.RuleDefinition) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	params := sql.NullString{}
	if len(rule.Parameters) > 0 {
		params = sql.NullString{String: string(rule.Parameters), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (name, rule_type, parameters, precedence, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			rule_type = excluded.rule_type,
			parameters = excluded.parameters,
			precedence = excluded.precedence,
			active = excluded.active,
			updated_at = CURRENT_TIMESTAMP`,
		rule.Name, string(rule.Type), params, rule.Precedence, rule.Active)
	if err != nil {
		return fmt.Errorf("failed to save rule %s: %w", rule.Name, err)
	}

	// LastInsertId is unreliable across the upsert's update path; read the
	// row back by its unique name instead.
	row := s.db.QueryRowContext(ctx, `SELECT id FROM rules WHERE name = ?`, rule.Name)
	if err := row.Scan(&rule.ID); err != nil {
		return fmt.Errorf("failed to read back rule %s: %w", rule.Name, err)
	}
	return nil
}

// SetRuleActive toggles a rule without touching its configuration.
func (s *SQLiteStorage) SetRuleActive(ctx context.Context, name string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE rules SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE name = ?`,
		active, name)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", name, err)
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

// SeedDefaultRules installs the standard rule set when the rules table is
// empty. An already-populated table is left untouched, so operators can
// reorder or disable rules without the seed fighting them.
func (s *SQLiteStorage) SeedDefaultRules(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rules`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	defaults := defaultRules()
	for i := range defaults {
		if err := s.SaveRule(ctx, &defaults[i]); err != nil {
			return 0, err
		}
	}
	return len(defaults), nil
}

// defaultRules is the out-of-the-box rule set. Integrity and invalid-location
// checks carry the highest authority so their exclusions reach the
// overcapacity rule.
func defaultRules() []model.RuleDefinition {
	return []model.RuleDefinition{
		{Name: "data integrity", Type: model.RuleDataIntegrity, Precedence: 1, Active: true},
		{Name: "invalid locations", Type: model.RuleInvalidLocation, Precedence: 2, Active: true},
		{Name: "overcapacity", Type: model.RuleOvercapacity, Precedence: 3, Active: true},
		{Name: "stagnant receiving", Type: model.RuleStagnantPallets, Precedence: 4, Active: true,
			Parameters: json.RawMessage(`{"threshold_hours": 24}`)},
		{Name: "aisle drops", Type: model.RuleLocationStagnant, Precedence: 5, Active: true,
			Parameters: json.RawMessage(`{"pattern": "AISLE*", "threshold_hours": 4}`)},
		{Name: "uncoordinated lots", Type: model.RuleUncoordinatedLots, Precedence: 6, Active: true,
			Parameters: json.RawMessage(`{"completion_threshold": 0.8}`)},
		{Name: "temperature mismatches", Type: model.RuleTemperatureZoneMismatch, Precedence: 7, Active: true,
			Parameters: json.RawMessage(`{"grace_period_hours": 2}`)},
		{Name: "mapping errors", Type: model.RuleLocationMappingError, Precedence: 8, Active: true},
	}
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string) ([]model.RuleDefinition, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []model.RuleDefinition
	for rows.Next() {
		var def model.RuleDefinition
		var ruleType string
		var params sql.NullString
		if err := rows.Scan(&def.ID, &def.Name, &ruleType, &params,
			&def.Precedence, &def.Active, &def.CreatedAt, &def.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule row: %w", err)
		}
		def.Type = model.RuleType(ruleType)
		if params.Valid && params.String != "" {
			def.Parameters = json.RawMessage(params.String)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
