// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package valuation

import (
	"sort"

	"github.com/dealbrain/core/internal/domain"
)

// Evaluate applies ruleset to ctx, seeding the running adjusted price at
// listingPrice, and returns the persisted breakdown document. Groups
// are visited in DisplayOrder; within a group, rules are visited by
// (EvaluationOrder, Priority) ascending. Every enabled rule
// that matches contributes its actions' deltas to the running total;
// disabled rules are still reported with AdjustmentUSD=0 so the UI can
// show the full ruleset, matched or not.
func Evaluate(ruleset domain.ValuationRuleset, ctx *Context, listingPrice float64) *domain.ValuationBreakdown {
	groups := append([]domain.ValuationRuleGroup(nil), ruleset.Groups...)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].DisplayOrder < groups[j].DisplayOrder
	})

	breakdown := &domain.ValuationBreakdown{
		ListingPrice: listingPrice,
		Ruleset:      domain.RulesetRef{ID: rulesetIDPtr(ruleset.ID), Name: ruleset.Name},
	}

	adjustedPrice := listingPrice

	for _, group := range groups {
		rules := append([]domain.ValuationRuleV2(nil), group.Rules...)
		sort.SliceStable(rules, func(i, j int) bool {
			if rules[i].EvaluationOrder != rules[j].EvaluationOrder {
				return rules[i].EvaluationOrder < rules[j].EvaluationOrder
			}
			return rules[i].Priority < rules[j].Priority
		})

		for _, rule := range rules {
			if !rule.Enabled {
				breakdown.Adjustments = append(breakdown.Adjustments, domain.RuleAdjustment{
					RuleID:   rule.ID,
					RuleName: rule.Name,
				})
				continue
			}

			if !EvaluateCondition(rule.Conditions, ctx) {
				continue
			}

			ruleTotal := 0.0
			actionBreakdowns := make([]domain.ActionBreakdown, 0, len(rule.Actions))
			for _, action := range rule.Actions {
				delta, ab := ApplyAction(action, ctx, adjustedPrice)
				ruleTotal += delta
				adjustedPrice += delta
				actionBreakdowns = append(actionBreakdowns, ab)
			}

			breakdown.TotalAdjustment += ruleTotal
			if ruleTotal < 0 {
				breakdown.TotalDeductions += -ruleTotal
			}
			breakdown.MatchedRulesCount++
			breakdown.MatchedRules = append(breakdown.MatchedRules, domain.MatchedRule{
				RuleID:     rule.ID,
				RuleName:   rule.Name,
				Adjustment: ruleTotal,
			})
			breakdown.Adjustments = append(breakdown.Adjustments, domain.RuleAdjustment{
				RuleID:        rule.ID,
				RuleName:      rule.Name,
				AdjustmentUSD: ruleTotal,
				Actions:       actionBreakdowns,
			})

			deduction := 0.0
			if ruleTotal < 0 {
				deduction = -ruleTotal
			}
			breakdown.Lines = append(breakdown.Lines, domain.BreakdownLine{
				Label:         rule.Name,
				DeductionUSD:  deduction,
				AdjustmentUSD: ruleTotal,
			})
		}
	}

	breakdown.AdjustedPrice = listingPrice + breakdown.TotalAdjustment
	return breakdown
}

// ZeroBreakdown builds the "no ruleset selected" fallback breakdown:
// listing price carried through unadjusted.
func ZeroBreakdown(listingPrice float64) *domain.ValuationBreakdown {
	return &domain.ValuationBreakdown{
		ListingPrice:  listingPrice,
		AdjustedPrice: listingPrice,
	}
}

func rulesetIDPtr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
