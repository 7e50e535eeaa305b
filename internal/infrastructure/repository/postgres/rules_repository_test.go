package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mguerin/docpilot/internal/core/domain"
)

func TestListEnabledRulesDecodesConditions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "target_category", "priority", "enabled", "conditions"}).
		AddRow("r1", "EDF vers Facture", "Facture", 10, true,
			[]byte(`[{"field":"issuer","value":"EDF"},{"field":"amount_present","value":""}]`)).
		AddRow("r2", "Sans montant", "Courrier", 1, true,
			[]byte(`[{"field":"amount_absent","value":""}]`))
	mock.ExpectQuery("SELECT id, name, target_category, priority, enabled, conditions").
		WillReturnRows(rows)

	rules, err := NewRulesRepository(db).ListEnabledRules(context.Background())
	if err != nil {
		t.Fatalf("ListEnabledRules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rules = %d", len(rules))
	}
	if rules[0].TargetCategory != domain.CategoryFacture || rules[0].Priority != 10 {
		t.Fatalf("unexpected first rule: %+v", rules[0])
	}
	if len(rules[0].Conditions) != 2 || rules[0].Conditions[0].Field != domain.FieldIssuer {
		t.Fatalf("conditions = %+v", rules[0].Conditions)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListEnabledRulesMalformedConditions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "target_category", "priority", "enabled", "conditions"}).
		AddRow("r1", "broken", "Facture", 1, true, []byte(`not json`))
	mock.ExpectQuery("SELECT id, name, target_category, priority, enabled, conditions").
		WillReturnRows(rows)

	if _, err := NewRulesRepository(db).ListEnabledRules(context.Background()); err == nil {
		t.Fatal("expected error for malformed conditions")
	}
}
