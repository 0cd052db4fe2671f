// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/events"
)

func TestCompletePartialImportFillsMissingFieldAndFlipsQuality(t *testing.T) {
	n := fullListing()
	n.CPUModel = ""
	n.ExtractedFields["cpu_model"] = false
	p, store, _ := newPipeline(t, &stubAdapter{name: "ebay", result: n})

	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	require.Equal(t, domain.QualityPartial, listing.Quality)

	completed, err := p.CompletePartialImport(context.Background(), listing.ID, map[string]any{
		"cpu_model": "Intel Core i5-10500",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QualityFull, completed.Quality)
	assert.Empty(t, completed.MissingFields)
	assert.Equal(t, domain.FieldManual, completed.ExtractionMetadata["cpu_model"])
	assert.NotNil(t, completed.CPUID)

	stored, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QualityFull, stored.Quality)
}

func TestCompletePartialImportRejectsFullQualityListing(t *testing.T) {
	p, _, _ := newPipeline(t, &stubAdapter{name: "ebay", result: fullListing()})
	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	require.Equal(t, domain.QualityFull, listing.Quality)

	_, err = p.CompletePartialImport(context.Background(), listing.ID, map[string]any{"ram_gb": 32})
	assert.Error(t, err)
}

func TestCompletePartialImportLeavesUnaddressedFieldsMissing(t *testing.T) {
	n := fullListing()
	n.CPUModel = ""
	n.ExtractedFields["cpu_model"] = false
	n.RamGB = 0
	n.ExtractedFields["ram_gb"] = false
	p, _, _ := newPipeline(t, &stubAdapter{name: "ebay", result: n})

	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"cpu_model", "ram_gb"}, listing.MissingFields)

	completed, err := p.CompletePartialImport(context.Background(), listing.ID, map[string]any{
		"cpu_model": "Intel Core i5-10500",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.QualityPartial, completed.Quality)
	assert.Equal(t, []string{"ram_gb"}, completed.MissingFields)
}

func TestCompletePartialImportFillsMissingPriceAndValues(t *testing.T) {
	n := fullListing()
	n.PriceUSD = nil
	n.ExtractedFields["price"] = false
	p, store, _ := newPipeline(t, &stubAdapter{name: "ebay", result: n})

	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	require.Equal(t, domain.QualityPartial, listing.Quality)
	require.Nil(t, listing.PriceUSD)

	completed, err := p.CompletePartialImport(context.Background(), listing.ID, map[string]any{
		"price": 199.99,
	})
	require.NoError(t, err)
	require.NotNil(t, completed.PriceUSD)
	assert.Equal(t, 199.99, *completed.PriceUSD)
	assert.NotNil(t, completed.AdjustedPriceUSD)
	assert.Equal(t, domain.QualityFull, completed.Quality)

	stored, err := store.GetListing(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.PriceUSD)
}

var _ events.Publisher = (*events.Recording)(nil)
