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
	"context"
	"sort"

	"github.com/dealbrain/core/internal/domain"
)

// Provider is the persistence surface ruleset selection needs: fetch a
// specific ruleset by ID, and list all active rulesets. Implemented by
// internal/storage/postgres.
type Provider interface {
	GetRuleset(ctx context.Context, id int64) (domain.ValuationRuleset, error)
	ActiveRulesets(ctx context.Context) ([]domain.ValuationRuleset, error)
}

// SelectRuleset resolves which ruleset governs a listing's valuation:
// a listing's static override wins outright; otherwise active
// rulesets are tried in ascending priority, picking the first whose root
// condition tree matches (or the first with no root conditions at all);
// rulesets named in the listing's valuation_disabled_rulesets attribute
// are skipped entirely. Returns (nil, nil) when no ruleset applies,
// signalling the caller to fall back to ZeroBreakdown.
func SelectRuleset(ctx context.Context, provider Provider, listing *domain.Listing, fieldCtx *Context) (*domain.ValuationRuleset, error) {
	if listing.RulesetID != nil {
		rs, err := provider.GetRuleset(ctx, *listing.RulesetID)
		if err != nil {
			return nil, err
		}
		if !rs.Active {
			return nil, ErrRulesetNotFound
		}
		return &rs, nil
	}

	active, err := provider.ActiveRulesets(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})

	disabled := listing.DisabledRulesetIDs()

	var firstNoCondition *domain.ValuationRuleset
	for i := range active {
		rs := active[i]
		if disabled[rs.ID] {
			continue
		}
		if rs.Conditions == nil || !HasCondition(*rs.Conditions) {
			if firstNoCondition == nil {
				rsCopy := rs
				firstNoCondition = &rsCopy
			}
			continue
		}
		if EvaluateCondition(*rs.Conditions, fieldCtx) {
			rsCopy := rs
			return &rsCopy, nil
		}
	}

	return firstNoCondition, nil
}
