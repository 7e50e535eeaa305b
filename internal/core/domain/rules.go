package domain

// ConditionField names what a rule condition tests against.
type ConditionField string

const (
	FieldIssuer        ConditionField = "issuer"
	FieldCategory      ConditionField = "category"
	FieldContent       ConditionField = "content"
	FieldAmountPresent ConditionField = "amount_present"
	FieldAmountAbsent  ConditionField = "amount_absent"
)

// RuleCondition is a single predicate. Value is meaningful only for the
// substring fields (issuer, category, content).
type RuleCondition struct {
	Field ConditionField `json:"field" yaml:"field"`
	Value string         `json:"value,omitempty" yaml:"value,omitempty"`
}

// ClassificationRule overrides the final category when all of its
// conditions hold. Rules are owned by the external store; the pipeline
// only reads them.
type ClassificationRule struct {
	ID             string          `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string          `json:"name" yaml:"name"`
	TargetCategory Category        `json:"target_category" yaml:"target_category"`
	Priority       int             `json:"priority" yaml:"priority"`
	Enabled        bool            `json:"enabled" yaml:"enabled"`
	Conditions     []RuleCondition `json:"conditions" yaml:"conditions"`
}
