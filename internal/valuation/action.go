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
	"fmt"

	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/valuation/formula"
)

// ApplyAction computes one action's signed USD delta against the
// running adjusted price. A formula failure or a per_unit action with no
// metric never aborts evaluation: it's recorded on the returned
// ActionBreakdown's Error field and contributes a zero delta so one bad
// rule can't take down a listing's whole valuation pass. A per_unit
// metric that does not resolve counts as a quantity of 0, with no Error.
func ApplyAction(action domain.Action, ctx *Context, currentPrice float64) (delta float64, breakdown domain.ActionBreakdown) {
	breakdown = domain.ActionBreakdown{
		ActionType: string(action.Type),
		Metric:     action.Metric,
	}

	switch action.Type {
	case domain.ActionFixedValue:
		delta = action.ValueUSD
		breakdown.Value = delta

	case domain.ActionPerUnit:
		if action.Metric == "" {
			breakdown.Error = "per_unit action missing required metric"
			return 0, breakdown
		}
		qty, ok := ctx.ResolveFloat(action.Metric)
		if !ok {
			qty = 0
		}
		delta = action.ValueUSD * qty
		breakdown.Value = delta
		breakdown.Details = fmt.Sprintf("%g x %g", action.ValueUSD, qty)

	case domain.ActionMultiplier:
		delta = (action.ValueUSD/100 - 1) * currentPrice
		breakdown.Value = delta

	case domain.ActionFormula:
		expr, err := formula.Parse(action.Formula)
		if err != nil {
			breakdown.Error = err.Error()
			return 0, breakdown
		}
		result, err := expr.Eval(ctx.ResolveFloat)
		if err != nil {
			breakdown.Error = err.Error()
			return 0, breakdown
		}
		delta = result
		breakdown.Value = delta

	default:
		breakdown.Error = fmt.Sprintf("unknown action type %q", action.Type)
	}

	return delta, breakdown
}
