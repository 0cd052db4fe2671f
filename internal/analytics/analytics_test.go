// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbrain/core/internal/domain"
)

func ptr(v float64) *float64 { return &v }
func id(v int64) *int64      { return &v }

func TestCalculatePriceTargetsInsufficientSample(t *testing.T) {
	listings := []domain.Listing{{CPUID: id(1), AdjustedPriceUSD: ptr(100)}}

	pt := CalculatePriceTargets(listings, 1)

	assert.Equal(t, ConfidenceInsufficient, pt.Confidence)
	assert.Nil(t, pt.Good)
}

func TestCalculatePriceTargetsComputesBand(t *testing.T) {
	listings := []domain.Listing{
		{CPUID: id(1), AdjustedPriceUSD: ptr(100)},
		{CPUID: id(1), AdjustedPriceUSD: ptr(200)},
		{CPUID: id(1), AdjustedPriceUSD: ptr(300)},
	}

	pt := CalculatePriceTargets(listings, 1)

	require.NotNil(t, pt.Good)
	assert.Equal(t, 200.0, *pt.Good)
	assert.Equal(t, 3, pt.SampleSize)
	assert.Equal(t, ConfidenceLow, pt.Confidence)
	assert.Less(t, *pt.Great, *pt.Good)
	assert.Greater(t, *pt.Fair, *pt.Good)
}

func TestCalculatePriceTargetsConfidenceScalesWithSampleSize(t *testing.T) {
	var listings []domain.Listing
	for i := 0; i < 10; i++ {
		listings = append(listings, domain.Listing{CPUID: id(1), AdjustedPriceUSD: ptr(float64(100 + i))})
	}

	pt := CalculatePriceTargets(listings, 1)
	assert.Equal(t, ConfidenceHigh, pt.Confidence)
}

func TestCalculatePerformanceValueMissingBenchmarksReturnsEmpty(t *testing.T) {
	pv := CalculatePerformanceValue(nil, domain.CPU{ID: 1})
	assert.Nil(t, pv.DollarPerMarkMulti)
}

func TestCalculatePerformanceValueRanksAgainstOtherCPUs(t *testing.T) {
	cheap := domain.CPU{ID: 1, CPUMarkSingle: 1000, CPUMarkMulti: 10000}
	expensive := domain.CPU{ID: 2, CPUMarkSingle: 1000, CPUMarkMulti: 10000}

	listings := []domain.Listing{
		{CPUID: id(1), AdjustedPriceUSD: ptr(100), ScoreCPUMulti: ptr(10000.0)},
		{CPUID: id(2), AdjustedPriceUSD: ptr(500), ScoreCPUMulti: ptr(10000.0)},
	}

	pvCheap := CalculatePerformanceValue(listings, cheap)
	pvExpensive := CalculatePerformanceValue(listings, expensive)

	require.NotNil(t, pvCheap.Percentile)
	require.NotNil(t, pvExpensive.Percentile)
	assert.Less(t, *pvCheap.Percentile, *pvExpensive.Percentile)
	assert.Equal(t, RatingExcellent, *pvCheap.Rating)
}

func TestCPULeaderboardPicksCheapestPerCPU(t *testing.T) {
	listings := []domain.Listing{
		{ID: 1, CPUID: id(1), AdjustedPriceUSD: ptr(300), ScoreCPUMulti: ptr(10000.0), DollarPerCPUMark: ptr(0.03)},
		{ID: 2, CPUID: id(1), AdjustedPriceUSD: ptr(200), ScoreCPUMulti: ptr(10000.0), DollarPerCPUMark: ptr(0.02)},
	}
	cpus := map[int64]domain.CPU{1: {ID: 1, Name: "Test CPU"}}

	entries := CPULeaderboard(listings, cpus)

	require.Len(t, entries, 1)
	assert.Equal(t, int64(2), entries[0].CheapestListingID)
	assert.Equal(t, "Test CPU", entries[0].CPUName)
}
