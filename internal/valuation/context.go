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

// Package valuation implements the rule engine: ruleset selection,
// group/rule iteration, condition-tree evaluation, and action
// application, producing the persisted price-delta breakdown. Dynamic
// field access is modeled as a typed resolver over a tagged union of
// known entities rather than duck-typed reflection over arbitrary
// structs.
package valuation

import (
	"strconv"
	"strings"

	"github.com/dealbrain/core/internal/domain"
)

// Context is the fixed set of entities a rule condition, action, or
// formula may reference: the listing plus its resolved component rows.
// Fields are nil when the listing has no reference to that component;
// resolving a path rooted at a nil entity returns "not found" rather
// than a nil-pointer panic.
type Context struct {
	Listing *domain.Listing
	CPU     *domain.CPU
	GPU     *domain.GPU
	RamSpec *domain.RamSpec
	Storage *domain.StorageProfile
}

// Resolve walks a dotted field path (e.g. "ram_spec.total_capacity_gb",
// "cpu.cpu_mark_multi", "price_usd") against the context. An unknown
// root, a nil entity, or an unknown leaf all return ok=false rather than
// panicking or erroring — callers decide what "not found" means for
// their use (condition: false; formula: error).
func (c *Context) Resolve(path string) (any, bool) {
	root, rest, hasDot := strings.Cut(path, ".")
	switch root {
	case "cpu":
		if c.CPU == nil || !hasDot {
			return nil, false
		}
		return resolveCPUField(c.CPU, rest)
	case "gpu":
		if c.GPU == nil || !hasDot {
			return nil, false
		}
		return resolveGPUField(c.GPU, rest)
	case "ram_spec":
		if c.RamSpec == nil || !hasDot {
			return nil, false
		}
		return resolveRamSpecField(c.RamSpec, rest)
	case "storage_profile", "primary_storage":
		if c.Storage == nil || !hasDot {
			return nil, false
		}
		return resolveStorageField(c.Storage, rest)
	default:
		return resolveListingField(c.Listing, path)
	}
}

// ResolveFloat adapts Resolve for use as a formula.Resolver, coercing
// the resolved value to a float64.
func (c *Context) ResolveFloat(path string) (float64, bool) {
	v, ok := c.Resolve(path)
	if !ok {
		return 0, false
	}
	return CoerceFloat(v)
}

func resolveCPUField(cpu *domain.CPU, field string) (any, bool) {
	switch field {
	case "name":
		return cpu.Name, true
	case "manufacturer":
		return cpu.Manufacturer, true
	case "cores":
		return float64(cpu.Cores), true
	case "threads":
		return float64(cpu.Threads), true
	case "tdp_w":
		return cpu.TDPWatts, true
	case "cpu_mark_single":
		return cpu.CPUMarkSingle, true
	case "cpu_mark_multi":
		return cpu.CPUMarkMulti, true
	case "igpu_mark":
		return cpu.IGPUMark, true
	default:
		return nil, false
	}
}

func resolveGPUField(gpu *domain.GPU, field string) (any, bool) {
	switch field {
	case "name":
		return gpu.Name, true
	case "manufacturer":
		return gpu.Manufacturer, true
	case "gpu_mark":
		return gpu.GPUMark, true
	case "metal_score":
		if gpu.MetalScore == nil {
			return nil, false
		}
		return *gpu.MetalScore, true
	default:
		return nil, false
	}
}

func resolveRamSpecField(r *domain.RamSpec, field string) (any, bool) {
	switch field {
	case "ddr_generation", "generation":
		return string(r.Generation), true
	case "speed_mhz":
		return float64(r.SpeedMHz), true
	case "module_count":
		return float64(r.ModuleCount), true
	case "capacity_per_module_gb":
		return float64(r.CapacityPerGB), true
	case "total_capacity_gb":
		return float64(r.TotalCapacityGB), true
	default:
		return nil, false
	}
}

func resolveStorageField(s *domain.StorageProfile, field string) (any, bool) {
	switch field {
	case "medium":
		return string(s.Medium), true
	case "interface":
		return s.Interface, true
	case "form_factor":
		return s.FormFactor, true
	case "capacity_gb":
		return float64(s.CapacityGB), true
	case "performance_tier":
		return s.PerformanceTier, true
	default:
		return nil, false
	}
}

func resolveListingField(l *domain.Listing, field string) (any, bool) {
	if l == nil {
		return nil, false
	}
	switch field {
	case "title":
		return l.Title, true
	case "seller":
		return l.Seller, true
	case "condition":
		return string(l.Condition), true
	case "marketplace":
		return string(l.Marketplace), true
	case "status":
		return l.Status, true
	case "price_usd":
		if l.PriceUSD == nil {
			return nil, false
		}
		return *l.PriceUSD, true
	case "ram_gb":
		return float64(l.RamGB), true
	case "primary_storage_gb":
		return float64(l.PrimaryStorageGB), true
	case "primary_storage_type":
		return l.PrimaryStorageType, true
	case "secondary_storage_gb":
		return float64(l.SecondaryStorageGB), true
	case "secondary_storage_type":
		return l.SecondaryStorageType, true
	case "score_composite":
		if l.ScoreComposite == nil {
			return nil, false
		}
		return *l.ScoreComposite, true
	case "quality":
		return string(l.Quality), true
	default:
		if v, ok := l.Attributes[field]; ok {
			return v, true
		}
		return nil, false
	}
}

// CoerceFloat converts a resolved value (float64, int, string, or bool)
// to a float64 for numeric comparisons and formula evaluation. Values
// that cannot be coerced return ok=false rather than a zero guess.
func CoerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
