// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbrain/core/internal/domain"
)

// TestApplyAdjustedRatio checks adjusted-ratio figures with
// price=1000, cpu_mark_multi=20000, total_adjustment=-82.
func TestApplyAdjustedRatio(t *testing.T) {
	price := 1000.0
	listing := &domain.Listing{
		PriceUSD: &price,
		RamGB:    16,
		ValuationBreakdown: &domain.ValuationBreakdown{
			TotalAdjustment: -82,
		},
	}
	cpu := &domain.CPU{CPUMarkMulti: 20000}

	require.NoError(t, Apply(listing, cpu, nil, nil))

	require.NotNil(t, listing.DollarPerCPUMarkMulti)
	assert.InDelta(t, 0.05, *listing.DollarPerCPUMarkMulti, 1e-9)

	require.NotNil(t, listing.DollarPerCPUMarkMultiAdjusted)
	assert.InDelta(t, 0.0541, *listing.DollarPerCPUMarkMultiAdjusted, 1e-4)
}

func TestApplyNoPriceErrors(t *testing.T) {
	listing := &domain.Listing{}
	assert.ErrorIs(t, Apply(listing, nil, nil, nil), ErrNoPrice)
}

func TestApplySkipsZeroBenchmark(t *testing.T) {
	price := 500.0
	listing := &domain.Listing{PriceUSD: &price}
	cpu := &domain.CPU{CPUMarkMulti: 0, CPUMarkSingle: 0}

	require.NoError(t, Apply(listing, cpu, nil, nil))
	assert.Nil(t, listing.DollarPerCPUMarkMulti)
	assert.Nil(t, listing.DollarPerCPUMarkSingle)
	assert.Nil(t, listing.PerfPerWatt)
}

func TestComputeGPUScoreAppleBlend(t *testing.T) {
	metal := 45000.0
	score := ComputeGPUScore(10000, &metal, true)
	assert.InDelta(t, 10000*0.4+45000*0.6, score, 1e-9)
}

func TestComputeGPUScoreNonApplePassesThrough(t *testing.T) {
	metal := 45000.0
	score := ComputeGPUScore(10000, &metal, false)
	assert.Equal(t, 10000.0, score)
}

func TestComputeCompositeMissingComponentsZero(t *testing.T) {
	weights := domain.ScoringWeights{"cpu_mark_multi": 1.0, "gpu_score": 2.0}
	score := ComputeComposite(weights, Vector{CPUMarkMulti: 100})
	assert.Equal(t, 100.0, score)
}
