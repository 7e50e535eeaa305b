package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// RulesRepository lists user-defined classification override rules.
type RulesRepository struct {
	db *sql.DB
}

func NewRulesRepository(db *sql.DB) *RulesRepository {
	return &RulesRepository{db: db}
}

func (r *RulesRepository) ListEnabledRules(ctx context.Context) ([]domain.ClassificationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, target_category, priority, enabled, conditions
FROM classification_rules
WHERE enabled
ORDER BY priority DESC, id
`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.ClassificationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

func scanRule(rows *sql.Rows) (domain.ClassificationRule, error) {
	var rule domain.ClassificationRule
	var category string
	var conditionsRaw []byte

	if err := rows.Scan(&rule.ID, &rule.Name, &category, &rule.Priority, &rule.Enabled, &conditionsRaw); err != nil {
		return domain.ClassificationRule{}, fmt.Errorf("scan rule: %w", err)
	}
	if err := json.Unmarshal(conditionsRaw, &rule.Conditions); err != nil {
		return domain.ClassificationRule{}, fmt.Errorf("unmarshal rule conditions: %w", err)
	}
	rule.TargetCategory = domain.Category(category)
	return rule, nil
}
