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

// Package analytics computes read-side CPU value metrics over a slice
// of listings already resident in memory: price targets (good/great/fair)
// from the spread of adjusted prices, and a $/mark value rating relative
// to every other CPU in the set. Nothing here touches persistence; the
// caller fetches the active, priced listings and hands them over.
package analytics

import (
	"math"
	"sort"

	"github.com/dealbrain/core/internal/domain"
)

// Confidence buckets a PriceTarget by its sample size.
type Confidence string

const (
	ConfidenceInsufficient Confidence = "insufficient"
	ConfidenceLow          Confidence = "low"
	ConfidenceMedium       Confidence = "medium"
	ConfidenceHigh         Confidence = "high"
)

// Rating buckets a PerformanceValue by its percentile rank.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// PriceTarget is the good/great/fair price band derived from a CPU's
// active listing prices.
type PriceTarget struct {
	Good       *float64
	Great      *float64
	Fair       *float64
	SampleSize int
	Confidence Confidence
	StdDev     *float64
}

// PerformanceValue is a CPU's $/mark ratio and its rank against every
// other CPU with priced listings.
type PerformanceValue struct {
	DollarPerMarkSingle *float64
	DollarPerMarkMulti  *float64
	Percentile          *float64
	Rating              *Rating
}

// adjustedPrices returns the non-nil, positive adjusted prices of
// listings with the given CPU ID.
func adjustedPrices(listings []domain.Listing, cpuID int64) []float64 {
	var out []float64
	for _, l := range listings {
		if l.CPUID == nil || *l.CPUID != cpuID {
			continue
		}
		if l.AdjustedPriceUSD == nil || *l.AdjustedPriceUSD <= 0 {
			continue
		}
		out = append(out, *l.AdjustedPriceUSD)
	}
	return out
}

// CalculatePriceTargets computes the good/great/fair price band for a
// CPU from the adjusted prices of its active listings. Fewer than two
// priced listings yields an all-nil, "insufficient" result.
func CalculatePriceTargets(listings []domain.Listing, cpuID int64) PriceTarget {
	prices := adjustedPrices(listings, cpuID)
	n := len(prices)
	if n < 2 {
		return PriceTarget{SampleSize: n, Confidence: ConfidenceInsufficient}
	}

	avg := mean(prices)
	sd := stddev(prices, avg)

	good := round2(avg)
	great := round2(math.Max(avg-sd, 0))
	fair := round2(avg + sd)
	sdRounded := round2(sd)

	confidence := ConfidenceLow
	switch {
	case n >= 10:
		confidence = ConfidenceHigh
	case n >= 5:
		confidence = ConfidenceMedium
	}

	return PriceTarget{
		Good:       &good,
		Great:      &great,
		Fair:       &fair,
		SampleSize: n,
		Confidence: confidence,
		StdDev:     &sdRounded,
	}
}

// CalculatePerformanceValue computes cpu's $/mark ratios against the
// average adjusted price of its active listings in listings, and ranks
// it by percentile against every other CPU present in listings that
// also has priced listings and a positive multi-core benchmark. Lower
// percentile is better value.
func CalculatePerformanceValue(listings []domain.Listing, cpu domain.CPU) PerformanceValue {
	if cpu.CPUMarkSingle <= 0 || cpu.CPUMarkMulti <= 0 {
		return PerformanceValue{}
	}

	prices := adjustedPrices(listings, cpu.ID)
	if len(prices) == 0 {
		return PerformanceValue{}
	}
	avgPrice := mean(prices)

	dollarSingle := avgPrice / cpu.CPUMarkSingle
	dollarMulti := avgPrice / cpu.CPUMarkMulti

	ratios := dollarPerMultiByCPU(listings)
	total := len(ratios)
	if total == 0 {
		total = 1
	}
	better := 0
	for _, r := range ratios {
		if r < dollarMulti {
			better++
		}
	}
	percentile := round1(float64(better) / float64(total) * 100)

	rating := ratingFromPercentile(percentile)
	dSingle := round4(dollarSingle)
	dMulti := round4(dollarMulti)

	return PerformanceValue{
		DollarPerMarkSingle: &dSingle,
		DollarPerMarkMulti:  &dMulti,
		Percentile:          &percentile,
		Rating:              &rating,
	}
}

// dollarPerMultiByCPU groups listings by CPU ID and returns, for every
// CPU with at least one priced listing, that CPU's average adjusted
// price divided by its multi-core benchmark (if the listing carries a
// resolved CPU row).
func dollarPerMultiByCPU(listings []domain.Listing) []float64 {
	sums := map[int64]float64{}
	counts := map[int64]int{}
	marks := map[int64]float64{}

	for _, l := range listings {
		if l.CPUID == nil || l.AdjustedPriceUSD == nil || *l.AdjustedPriceUSD <= 0 {
			continue
		}
		if l.ScoreCPUMulti == nil || *l.ScoreCPUMulti <= 0 {
			continue
		}
		id := *l.CPUID
		sums[id] += *l.AdjustedPriceUSD
		counts[id]++
		marks[id] = *l.ScoreCPUMulti
	}

	out := make([]float64, 0, len(sums))
	for id, sum := range sums {
		avg := sum / float64(counts[id])
		out = append(out, avg/marks[id])
	}
	return out
}

func ratingFromPercentile(p float64) Rating {
	switch {
	case p <= 25:
		return RatingExcellent
	case p <= 50:
		return RatingGood
	case p <= 75:
		return RatingFair
	default:
		return RatingPoor
	}
}

// LeaderboardEntry is one row of a cheapest-per-CPU ranking.
type LeaderboardEntry struct {
	CPUID            int64
	CPUName          string
	CheapestListingID int64
	CheapestPrice     float64
	DollarPerMarkMulti float64
}

// CPULeaderboard ranks CPUs by their cheapest-per-mark active listing,
// ascending (best value first). Only listings with a positive adjusted
// price and a resolved multi-core score are considered.
func CPULeaderboard(listings []domain.Listing, cpusByID map[int64]domain.CPU) []LeaderboardEntry {
	best := map[int64]domain.Listing{}
	for _, l := range listings {
		if l.CPUID == nil || l.AdjustedPriceUSD == nil || *l.AdjustedPriceUSD <= 0 {
			continue
		}
		if l.ScoreCPUMulti == nil || *l.ScoreCPUMulti <= 0 {
			continue
		}
		id := *l.CPUID
		cur, ok := best[id]
		if !ok || *l.DollarPerCPUMark < valueOr(cur.DollarPerCPUMark) {
			best[id] = l
		}
	}

	entries := make([]LeaderboardEntry, 0, len(best))
	for id, l := range best {
		name := ""
		if cpu, ok := cpusByID[id]; ok {
			name = cpu.Name
		}
		entries = append(entries, LeaderboardEntry{
			CPUID:              id,
			CPUName:            name,
			CheapestListingID:  l.ID,
			CheapestPrice:      *l.AdjustedPriceUSD,
			DollarPerMarkMulti: valueOr(l.DollarPerCPUMark),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].DollarPerMarkMulti < entries[j].DollarPerMarkMulti
	})
	return entries
}

func valueOr(v *float64) float64 {
	if v == nil {
		return math.MaxFloat64
	}
	return *v
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
