// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbrain/core/internal/domain"
)

// TestEvaluateRuleArithmetic checks that fixed_value -50 and per_unit
// ram_gb*-2 on a $1000 listing produce -82 total adjustment and an
// $918 adjusted price.
func TestEvaluateRuleArithmetic(t *testing.T) {
	price := 1000.0
	listing := &domain.Listing{PriceUSD: &price, RamGB: 16}
	cpu := &domain.CPU{CPUMarkMulti: 20000}
	ctx := &Context{Listing: listing, CPU: cpu}

	ruleset := domain.ValuationRuleset{
		ID:     1,
		Name:   "Test Ruleset",
		Active: true,
		Groups: []domain.ValuationRuleGroup{
			{
				DisplayOrder: 0,
				Rules: []domain.ValuationRuleV2{
					{
						ID:      1,
						Name:    "Flat deduction",
						Enabled: true,
						Actions: []domain.Action{
							{Type: domain.ActionFixedValue, ValueUSD: -50},
						},
					},
					{
						ID:      2,
						Name:    "RAM deduction",
						Enabled: true,
						Actions: []domain.Action{
							{Type: domain.ActionPerUnit, Metric: "ram_gb", ValueUSD: -2},
						},
					},
				},
			},
		},
	}

	breakdown := Evaluate(ruleset, ctx, price)

	assert.InDelta(t, -82.0, breakdown.TotalAdjustment, 1e-9)
	assert.InDelta(t, 918.0, breakdown.AdjustedPrice, 1e-9)
	assert.Equal(t, 2, breakdown.MatchedRulesCount)
	assert.InDelta(t, 82.0, breakdown.TotalDeductions, 1e-9)
}

func TestEvaluateDisabledRuleReportsZero(t *testing.T) {
	price := 500.0
	listing := &domain.Listing{PriceUSD: &price}
	ctx := &Context{Listing: listing}

	ruleset := domain.ValuationRuleset{
		Active: true,
		Groups: []domain.ValuationRuleGroup{
			{Rules: []domain.ValuationRuleV2{
				{ID: 9, Name: "Disabled rule", Enabled: false, Actions: []domain.Action{
					{Type: domain.ActionFixedValue, ValueUSD: -1000},
				}},
			}},
		},
	}

	breakdown := Evaluate(ruleset, ctx, price)
	require.Len(t, breakdown.Adjustments, 1)
	assert.Equal(t, 0.0, breakdown.Adjustments[0].AdjustmentUSD)
	assert.Equal(t, 0, breakdown.MatchedRulesCount)
	assert.Equal(t, 500.0, breakdown.AdjustedPrice)
}

func TestEvaluateConditionGating(t *testing.T) {
	price := 200.0
	listing := &domain.Listing{PriceUSD: &price, Condition: domain.ConditionUsed}
	ctx := &Context{Listing: listing}

	matchingRule := domain.ValuationRuleV2{
		Enabled: true,
		Conditions: domain.Condition{
			Field: "condition", Operator: domain.OpEquals, Value: "used",
		},
		Actions: []domain.Action{{Type: domain.ActionFixedValue, ValueUSD: -10}},
	}
	nonMatchingRule := domain.ValuationRuleV2{
		Enabled: true,
		Conditions: domain.Condition{
			Field: "condition", Operator: domain.OpEquals, Value: "new",
		},
		Actions: []domain.Action{{Type: domain.ActionFixedValue, ValueUSD: -999}},
	}

	ruleset := domain.ValuationRuleset{
		Active: true,
		Groups: []domain.ValuationRuleGroup{{Rules: []domain.ValuationRuleV2{matchingRule, nonMatchingRule}}},
	}

	breakdown := Evaluate(ruleset, ctx, price)
	assert.Equal(t, 1, breakdown.MatchedRulesCount)
	assert.InDelta(t, -10.0, breakdown.TotalAdjustment, 1e-9)
}

func TestEvaluateMultiplierAction(t *testing.T) {
	price := 100.0
	listing := &domain.Listing{PriceUSD: &price}
	ctx := &Context{Listing: listing}

	ruleset := domain.ValuationRuleset{
		Active: true,
		Groups: []domain.ValuationRuleGroup{{Rules: []domain.ValuationRuleV2{
			{Enabled: true, Actions: []domain.Action{
				{Type: domain.ActionMultiplier, ValueUSD: 90}, // 0.9 decimal -> 10% off
			}},
		}}},
	}

	breakdown := Evaluate(ruleset, ctx, price)
	assert.InDelta(t, -10.0, breakdown.TotalAdjustment, 1e-9)
}

func TestEvaluateFormulaActionError(t *testing.T) {
	price := 100.0
	listing := &domain.Listing{PriceUSD: &price}
	ctx := &Context{Listing: listing}

	ruleset := domain.ValuationRuleset{
		Active: true,
		Groups: []domain.ValuationRuleGroup{{Rules: []domain.ValuationRuleV2{
			{Enabled: true, Actions: []domain.Action{
				{Type: domain.ActionFormula, Formula: "unknown_field * 2"},
			}},
		}}},
	}

	breakdown := Evaluate(ruleset, ctx, price)
	require.Len(t, breakdown.Adjustments[0].Actions, 1)
	assert.NotEmpty(t, breakdown.Adjustments[0].Actions[0].Error)
	assert.Equal(t, 0.0, breakdown.TotalAdjustment)
}

func TestZeroConditionRuleAlwaysMatches(t *testing.T) {
	assert.True(t, EvaluateCondition(domain.Condition{}, &Context{Listing: &domain.Listing{}}))
}
