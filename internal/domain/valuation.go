package domain

import "time"

// ConditionOperator is the comparison applied between a condition's field
// value and its literal.
type ConditionOperator string

const (
	OpEquals       ConditionOperator = "equals"
	OpNotEquals    ConditionOperator = "not_equals"
	OpGreaterThan  ConditionOperator = "greater_than"
	OpLessThan     ConditionOperator = "less_than"
	OpGreaterEqual ConditionOperator = "greater_equal"
	OpLessEqual    ConditionOperator = "less_equal"
	OpIn           ConditionOperator = "in"
	OpNotIn        ConditionOperator = "not_in"
	OpContains     ConditionOperator = "contains"
	OpBetween      ConditionOperator = "between"
)

// ConditionLogic joins sibling conditions within a rule's condition tree.
type ConditionLogic string

const (
	LogicAnd ConditionLogic = "and"
	LogicOr  ConditionLogic = "or"
)

// Condition is a single leaf or group node in a rule's condition tree.
// A leaf node has Field/Operator/Value set and no Children; a group node
// has Logic and Children set and no Field.
type Condition struct {
	ID       int64
	Field    string
	Operator ConditionOperator
	Value    any
	Logic    ConditionLogic
	Children []Condition
}

// IsGroup reports whether this node combines child conditions rather than
// comparing a field directly.
func (c Condition) IsGroup() bool {
	return len(c.Children) > 0
}

// ActionType selects how an Action computes its dollar adjustment.
type ActionType string

const (
	ActionFixedValue  ActionType = "fixed_value"
	ActionPerUnit     ActionType = "per_unit"
	ActionMultiplier  ActionType = "multiplier"
	ActionFormula     ActionType = "formula"
)

// Action is one computation a matched rule applies to the listing's
// running adjustment total.
type Action struct {
	ID       int64
	Type     ActionType
	Metric   string  // required for per_unit: the listing field multiplied by ValueUSD
	ValueUSD float64 // fixed_value: the delta itself; per_unit: dollars per unit of Metric; multiplier: percent-as-100 form
	UnitType string  // display-only unit label (e.g. "GB", "%")
	Formula  string  // formula: expression text, see internal/valuation/formula
	Modifiers    map[string]any // e.g. modifiers.original_multiplier set during hydration
	DisplayOrder int
}

// ValuationRuleV2 is a single scored rule: a condition tree plus an
// ordered list of actions, evaluated within its parent RuleGroup.
type ValuationRuleV2 struct {
	ID              int64
	GroupID         int64
	Name            string
	Priority        int
	EvaluationOrder int
	Enabled         bool
	Version         int
	Conditions      Condition
	Actions         []Action
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValuationRuleGroup orders a set of rules within a ruleset.
// Groups within a ruleset are evaluated in DisplayOrder; within a group
// rules are evaluated by (EvaluationOrder, Priority) ascending, and every
// enabled rule that matches is applied, not just the first.
type ValuationRuleGroup struct {
	ID           int64
	RulesetID    int64
	Name         string
	Category     string
	DisplayOrder int
	Weight       float64
	Metadata     map[string]any
	Rules        []ValuationRuleV2
}

// ValuationRuleset is the top-level named collection of rule groups. A
// listing resolves to at most one active ruleset at valuation time: its
// own override, else the first active ruleset by Priority whose root
// conditions match, else the first active ruleset with no root
// conditions (see valuation.SelectRuleset).
type ValuationRuleset struct {
	ID          int64
	Name        string
	Version     string
	Description string
	Priority    int // lower runs earlier in dynamic ruleset selection
	IsDefault   bool
	Active      bool
	Conditions  *Condition // optional root condition tree gating dynamic selection
	Metadata    map[string]any
	Groups      []ValuationRuleGroup
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsSystemBaseline reports whether this ruleset was materialized by the
// baseline loader and is therefore read-only to editors.
func (r *ValuationRuleset) IsSystemBaseline() bool {
	v, _ := r.Metadata["system_baseline"].(bool)
	return v
}

// SourceHash returns the baseline content hash this ruleset was loaded
// from, empty for hand-authored rulesets.
func (r *ValuationRuleset) SourceHash() string {
	v, _ := r.Metadata["source_hash"].(string)
	return v
}

// RuleVersion is an immutable snapshot of a ValuationRuleV2 taken
// whenever the rule is created or edited, used to recompute historical
// audit entries and to support rollback.
type RuleVersion struct {
	ID          int64
	RuleID      int64
	Version     int
	Conditions  Condition
	Actions     []Action
	SnapshotAt  time.Time
	ChangedBy   string
}

// AuditAction identifies the kind of change a RuleAudit entry records.
type AuditAction string

const (
	AuditCreated       AuditAction = "created"
	AuditUpdated       AuditAction = "updated"
	AuditDeleted       AuditAction = "deleted"
	AuditBaselineAdopt AuditAction = "baseline_adopted"
)

// AuditEntityType names the entity a RuleAudit entry targets.
type AuditEntityType string

const (
	AuditEntityRuleset AuditEntityType = "ruleset"
	AuditEntityGroup   AuditEntityType = "rule_group"
	AuditEntityRule    AuditEntityType = "rule"
)

// RuleAudit is an append-only log entry for ruleset/group/rule create,
// update, delete, and baseline-adopt events.
type RuleAudit struct {
	ID         int64
	EntityType AuditEntityType
	EntityID   int64
	RulesetID  int64
	Action     AuditAction
	Actor      string
	Detail     map[string]any
	OccurredAt time.Time
}

// Validate reports whether a ruleset's groups have distinct DisplayOrder
// values. It does not check the default flag, rule conditions, or
// formula actions.
func (r *ValuationRuleset) Validate() error {
	seen := make(map[int]bool)
	for _, g := range r.Groups {
		if seen[g.DisplayOrder] {
			return errDuplicateGroupPriority
		}
		seen[g.DisplayOrder] = true
	}
	return nil
}

var errDuplicateGroupPriority = &ValidationError{Msg: "ruleset has two groups with the same display order"}

// ValidationError is a lightweight structured validation failure, mirroring
// the domain-level Validate() convention used across this package.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
