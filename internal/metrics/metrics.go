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

// Package metrics computes the performance-value metrics persisted on a
// listing: CPU-Mark $/mark ratios (base and adjusted), performance per
// watt, a GPU score, and a weighted composite score. Every calculator
// here is a pure function over its inputs; none of them touch
// persistence or the network.
package metrics

import (
	"errors"

	"github.com/dealbrain/core/internal/domain"
)

// ErrNoPrice is returned by Apply when the listing has no price: metrics
// cannot be computed for a partial-import listing with no known price.
var ErrNoPrice = errors.New("metrics: listing has no price")

// Apply computes and sets every metric field on listing. cpu/gpu/profile
// may be nil; a nil or zero-benchmark CPU simply omits the dependent
// ratios rather than producing an error or an infinite value.
func Apply(listing *domain.Listing, cpu *domain.CPU, gpu *domain.GPU, profile *domain.Profile) error {
	if listing.PriceUSD == nil {
		return ErrNoPrice
	}
	price := *listing.PriceUSD

	totalAdjustment := 0.0
	if listing.ValuationBreakdown != nil {
		totalAdjustment = listing.ValuationBreakdown.TotalAdjustment
	}
	// adjusted_price on the breakdown is price_usd + total_adjustment,
	// but the adjusted $/mark denominator is price_usd minus the
	// adjustment: the ratio gets cheaper as rules subtract value, more
	// expensive as they add it.
	adjustedBasePrice := price - totalAdjustment

	listing.DollarPerCPUMarkSingle = nil
	listing.DollarPerCPUMarkSingleAdjusted = nil
	listing.DollarPerCPUMarkMulti = nil
	listing.DollarPerCPUMarkMultiAdjusted = nil
	listing.PerfPerWatt = nil
	listing.ScoreCPUSingle = nil
	listing.ScoreCPUMulti = nil

	if cpu != nil {
		if cpu.CPUMarkSingle > 0 {
			listing.ScoreCPUSingle = ptr(cpu.CPUMarkSingle)
			listing.DollarPerCPUMarkSingle = ptr(price / cpu.CPUMarkSingle)
			listing.DollarPerCPUMarkSingleAdjusted = ptr(adjustedBasePrice / cpu.CPUMarkSingle)
		}
		if cpu.CPUMarkMulti > 0 {
			listing.ScoreCPUMulti = ptr(cpu.CPUMarkMulti)
			listing.DollarPerCPUMarkMulti = ptr(price / cpu.CPUMarkMulti)
			listing.DollarPerCPUMarkMultiAdjusted = ptr(adjustedBasePrice / cpu.CPUMarkMulti)
			if cpu.TDPWatts > 0 {
				listing.PerfPerWatt = ptr(cpu.CPUMarkMulti / cpu.TDPWatts)
			}
		}
	}

	listing.ScoreGPU = nil
	if gpu != nil {
		isApple := cpu != nil && cpu.Manufacturer == "Apple"
		listing.ScoreGPU = ptr(ComputeGPUScore(gpu.GPUMark, gpu.MetalScore, isApple))
	}

	adjustedPrice := price
	if listing.AdjustedPriceUSD != nil {
		adjustedPrice = *listing.AdjustedPriceUSD
	}
	if listing.ScoreCPUMulti != nil {
		listing.DollarPerCPUMark = ptr(adjustedPrice / *listing.ScoreCPUMulti)
	} else {
		listing.DollarPerCPUMark = nil
	}
	if listing.ScoreCPUSingle != nil {
		listing.DollarPerSingleMark = ptr(adjustedPrice / *listing.ScoreCPUSingle)
	} else {
		listing.DollarPerSingleMark = nil
	}

	listing.ScoreComposite = nil
	if profile != nil {
		score := ComputeComposite(profile.Weights, Vector{
			CPUMarkMulti:  valueOr(listing.ScoreCPUMulti),
			CPUMarkSingle: valueOr(listing.ScoreCPUSingle),
			GPUScore:      valueOr(listing.ScoreGPU),
			PerfPerWatt:   valueOr(listing.PerfPerWatt),
			RAMCapacityGB: float64(listing.RamGB),
		})
		listing.ScoreComposite = ptr(score)
	}

	return nil
}

// ComputeGPUScore blends a GPU's cross-platform benchmark with its Metal
// score when the host CPU is Apple silicon, since PassMark-style scores
// and Metal scores are not directly comparable. This is a pure,
// deterministic 60/40 split favoring the platform-native Metal figure
// when present.
func ComputeGPUScore(gpuMark float64, metalScore *float64, isApple bool) float64 {
	if isApple && metalScore != nil && *metalScore > 0 {
		if gpuMark <= 0 {
			return *metalScore
		}
		return gpuMark*0.4 + *metalScore*0.6
	}
	return gpuMark
}

// Vector is the set of metric inputs the composite score weights over.
type Vector struct {
	CPUMarkMulti  float64
	CPUMarkSingle float64
	GPUScore      float64
	PerfPerWatt   float64
	RAMCapacityGB float64
}

// ComputeComposite applies a scoring profile's weighted sum over v;
// components absent from weights contribute 0.
func ComputeComposite(weights domain.ScoringWeights, v Vector) float64 {
	total := 0.0
	total += weights["cpu_mark_multi"] * v.CPUMarkMulti
	total += weights["cpu_mark_single"] * v.CPUMarkSingle
	total += weights["gpu_score"] * v.GPUScore
	total += weights["perf_per_watt"] * v.PerfPerWatt
	total += weights["ram_capacity"] * v.RAMCapacityGB
	return total
}

func ptr(v float64) *float64 { return &v }

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
