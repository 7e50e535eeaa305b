package usecase

import (
	"sort"
	"strings"

	"github.com/mguerin/docpilot/internal/core/domain"
)

// RuleEngine applies user-defined category overrides. Rules are evaluated
// in descending priority; the first rule whose conditions all hold wins and
// evaluation stops. A rule with zero conditions never applies.
type RuleEngine struct{}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

func (e *RuleEngine) Apply(record domain.InterpretedRecord, transcript string, rules []domain.ClassificationRule) domain.InterpretedRecord {
	ordered := make([]domain.ClassificationRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled && len(rule.Conditions) > 0 {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, rule := range ordered {
		if ruleMatches(rule, record, transcript) {
			record.Category = rule.TargetCategory
			return record
		}
	}
	return record
}

func ruleMatches(rule domain.ClassificationRule, record domain.InterpretedRecord, transcript string) bool {
	for _, cond := range rule.Conditions {
		if !conditionHolds(cond, record, transcript) {
			return false
		}
	}
	return true
}

func conditionHolds(cond domain.RuleCondition, record domain.InterpretedRecord, transcript string) bool {
	switch cond.Field {
	case domain.FieldIssuer:
		return containsFold(record.Issuer, cond.Value)
	case domain.FieldCategory:
		return containsFold(string(record.Category), cond.Value)
	case domain.FieldContent:
		return containsFold(transcript, cond.Value)
	case domain.FieldAmountPresent:
		return strings.TrimSpace(record.Amount) != ""
	case domain.FieldAmountAbsent:
		return strings.TrimSpace(record.Amount) == ""
	}
	return false
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
