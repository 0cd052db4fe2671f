// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package baseline

import (
	"fmt"
	"time"

	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/logging"
	"github.com/dealbrain/core/internal/valuation/formula"
)

// HydrationSummary reports what the hydrator did with one ruleset's
// placeholder rules, for surfacing to the operator who triggered it.
type HydrationSummary struct {
	RulesCreated int
	RulesSkipped int
	Warnings     []string
}

// Hydrate expands every un-hydrated placeholder rule in rs into one or
// more concrete rules, routed by metadata.field_type. Already-hydrated
// placeholders (metadata.hydrated == true) are left untouched.
func Hydrate(rs *domain.ValuationRuleset, actor string, logger *logging.Logger) HydrationSummary {
	if logger == nil {
		logger = logging.New("baseline")
	}
	summary := HydrationSummary{}
	now := time.Now().UTC()

	for gi := range rs.Groups {
		group := &rs.Groups[gi]
		var expanded []domain.ValuationRuleV2

		for _, rule := range group.Rules {
			if placeholderHydrated(rule) {
				expanded = append(expanded, rule)
				continue
			}
			if !isPlaceholder(rule) {
				expanded = append(expanded, rule)
				continue
			}

			fieldType, _ := rule.Metadata["field_type"].(string)
			newRules, warn := hydrateOne(rule, fieldType)
			summary.RulesCreated += len(newRules)
			if warn != "" {
				summary.Warnings = append(summary.Warnings, warn)
				logger.Warn("", "", warn, map[string]any{"rule": rule.Name})
			}
			if fieldType == "scalar" {
				summary.RulesSkipped++
			}

			rule.Enabled = false
			rule.Metadata["hydrated"] = true
			rule.Metadata["hydrated_at"] = now.Format(time.RFC3339)
			rule.Metadata["hydrated_by"] = actor
			expanded = append(expanded, rule)
			expanded = append(expanded, newRules...)
		}

		group.Rules = expanded
	}

	return summary
}

func isPlaceholder(rule domain.ValuationRuleV2) bool {
	v, _ := rule.Metadata["baseline_placeholder"].(bool)
	return v
}

func placeholderHydrated(rule domain.ValuationRuleV2) bool {
	v, _ := rule.Metadata["hydrated"].(bool)
	return v
}

func hydrateOne(rule domain.ValuationRuleV2, fieldType string) (rules []domain.ValuationRuleV2, warning string) {
	switch fieldType {
	case "enum_multiplier":
		return hydrateEnumMultiplier(rule)
	case "formula":
		return hydrateFormula(rule)
	case "scalar":
		return nil, fmt.Sprintf("skipping scalar field %q: FK relationship, not a valuation input", rule.Name)
	default:
		return hydrateFixed(rule)
	}
}

func hydrateEnumMultiplier(rule domain.ValuationRuleV2) ([]domain.ValuationRuleV2, string) {
	fieldID, _ := rule.Metadata["field_id"].(string)
	buckets, ok := rule.Metadata["valuation_buckets"].(map[string]any)
	if !ok {
		return nil, fmt.Sprintf("rule %q: valuation_buckets missing or malformed, no rules hydrated", rule.Name)
	}

	var out []domain.ValuationRuleV2
	var warn string
	order := 0
	for enumValue, raw := range buckets {
		multiplier, ok := coerceFloat(raw)
		if !ok {
			warn = fmt.Sprintf("rule %q: unparseable multiplier for enum value %q, skipped", rule.Name, enumValue)
			continue
		}
		out = append(out, domain.ValuationRuleV2{
			Name:            fmt.Sprintf("%s = %s", rule.Name, enumValue),
			EvaluationOrder: order,
			Enabled:         true,
			Version:         1,
			Conditions: domain.Condition{
				Field:    fieldID,
				Operator: domain.OpEquals,
				Value:    enumValue,
			},
			Actions: []domain.Action{
				{
					Type:     domain.ActionMultiplier,
					ValueUSD: multiplier * 100,
					Modifiers: map[string]any{
						"original_multiplier": multiplier,
					},
				},
			},
		})
		order++
	}
	return out, warn
}

func hydrateFormula(rule domain.ValuationRuleV2) ([]domain.ValuationRuleV2, string) {
	description := firstString(rule.Metadata, "description", "explanation")
	text := firstString(rule.Metadata, "formula_text", "Formula", "formula")
	if text == "" {
		return downgradeFormula(rule.Name, description, "no formula text present in baseline metadata"), ""
	}
	if err := formula.Validate(text); err != nil {
		return downgradeFormula(rule.Name, description, err.Error()), fmt.Sprintf("rule %q: formula failed to parse: %v", rule.Name, err)
	}
	return []domain.ValuationRuleV2{
		{
			Name:    rule.Name,
			Enabled: true,
			Version: 1,
			Actions: []domain.Action{
				{Type: domain.ActionFormula, Formula: text},
			},
		},
	}, ""
}

func downgradeFormula(name, description, note string) []domain.ValuationRuleV2 {
	return []domain.ValuationRuleV2{
		{
			Name:    name,
			Enabled: true,
			Version: 1,
			Metadata: map[string]any{
				"original_formula_description": description,
				"requires_user_configuration":  true,
				"hydration_note":               note,
			},
			Actions: []domain.Action{
				{Type: domain.ActionFixedValue, ValueUSD: 0},
			},
		},
	}
}

func hydrateFixed(rule domain.ValuationRuleV2) ([]domain.ValuationRuleV2, string) {
	raw := firstValue(rule.Metadata, "default_value", "Default", "value", "Value", "base_value")
	value, ok := coerceFloat(raw)
	if !ok {
		value = 0.0
	}
	return []domain.ValuationRuleV2{
		{
			Name:    rule.Name,
			Enabled: true,
			Version: 1,
			Actions: []domain.Action{
				{Type: domain.ActionFixedValue, ValueUSD: value},
			},
		},
	}, ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func coerceFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(tv, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// EnsureBasicAdjustmentsGroup returns rs's "Basic · Adjustments" group,
// creating it if absent. This is the group editors add ad-hoc rules to
// outside the baseline's auto-generated groups.
func EnsureBasicAdjustmentsGroup(rs *domain.ValuationRuleset) *domain.ValuationRuleGroup {
	for i := range rs.Groups {
		if v, _ := rs.Groups[i].Metadata["basic_managed"].(bool); v {
			return &rs.Groups[i]
		}
	}
	rs.Groups = append(rs.Groups, domain.ValuationRuleGroup{
		Name:         "Basic · Adjustments",
		Category:     "baseline",
		DisplayOrder: len(rs.Groups),
		Metadata:     map[string]any{"basic_managed": true},
	})
	return &rs.Groups[len(rs.Groups)-1]
}
