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
	"strings"

	"github.com/dealbrain/core/internal/domain"
)

// HasCondition reports whether c carries an actual comparison (leaf with
// a field, or a non-empty group) as opposed to the zero value. A rule
// with no condition always matches.
func HasCondition(c domain.Condition) bool {
	return c.Field != "" || len(c.Children) > 0
}

// EvaluateCondition walks a condition tree against ctx. A group node
// combines its children with a single logical operator (AND unless the
// group's Logic is OR); a leaf node compares its resolved field value
// against its literal using Operator. A missing or unresolvable field
// makes the leaf false rather than erroring: a missing intermediate
// value resolves to null, and a comparison against null is false.
func EvaluateCondition(c domain.Condition, ctx *Context) bool {
	if c.IsGroup() {
		if c.Logic == domain.LogicOr {
			for _, child := range c.Children {
				if EvaluateCondition(child, ctx) {
					return true
				}
			}
			return false
		}
		for _, child := range c.Children {
			if !EvaluateCondition(child, ctx) {
				return false
			}
		}
		return true
	}

	if !HasCondition(c) {
		return true
	}

	value, ok := ctx.Resolve(c.Field)
	if !ok {
		return false
	}
	return evaluateOperator(c.Operator, value, c.Value)
}

func evaluateOperator(op domain.ConditionOperator, actual, expected any) bool {
	switch op {
	case domain.OpEquals:
		return looseEquals(actual, expected)
	case domain.OpNotEquals:
		return !looseEquals(actual, expected)
	case domain.OpGreaterThan, domain.OpGreaterEqual, domain.OpLessThan, domain.OpLessEqual:
		a, aok := CoerceFloat(actual)
		b, bok := CoerceFloat(expected)
		if !aok || !bok {
			return false
		}
		switch op {
		case domain.OpGreaterThan:
			return a > b
		case domain.OpGreaterEqual:
			return a >= b
		case domain.OpLessThan:
			return a < b
		case domain.OpLessEqual:
			return a <= b
		}
		return false
	case domain.OpContains:
		return evaluateContains(actual, expected)
	case domain.OpIn:
		return membershipOf(expected, actual)
	case domain.OpNotIn:
		return !membershipOf(expected, actual)
	case domain.OpBetween:
		return evaluateBetween(actual, expected)
	default:
		return false
	}
}

func looseEquals(actual, expected any) bool {
	if a, ok := CoerceFloat(actual); ok {
		if b, ok := CoerceFloat(expected); ok {
			return a == b
		}
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}

func evaluateContains(actual, expected any) bool {
	switch av := actual.(type) {
	case string:
		s, ok := expected.(string)
		if !ok {
			s = fmt.Sprintf("%v", expected)
		}
		return strings.Contains(strings.ToLower(av), strings.ToLower(s))
	case []any:
		for _, item := range av {
			if looseEquals(item, expected) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func membershipOf(list any, needle any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if looseEquals(item, needle) {
			return true
		}
	}
	return false
}

func evaluateBetween(actual, bounds any) bool {
	pair, ok := bounds.([]any)
	if !ok || len(pair) != 2 {
		return false
	}
	v, ok := CoerceFloat(actual)
	if !ok {
		return false
	}
	lo, lok := CoerceFloat(pair[0])
	hi, hok := CoerceFloat(pair[1])
	if !lok || !hok {
		return false
	}
	return v >= lo && v <= hi
}
