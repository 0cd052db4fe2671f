// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbrain/core/internal/adapters/base"
	"github.com/dealbrain/core/internal/adapters/router"
	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/events"
)

type stubAdapter struct {
	name   string
	result *base.NormalizedListing
	err    error
}

func (s *stubAdapter) Name() string                        { return s.name }
func (s *stubAdapter) Priority() int                        { return 1 }
func (s *stubAdapter) SupportsURL(url string) bool           { return true }
func (s *stubAdapter) Extract(ctx context.Context, url string) (*base.NormalizedListing, error) {
	return s.result, s.err
}

func price(v float64) *float64 { return &v }

func fullListing() *base.NormalizedListing {
	return &base.NormalizedListing{
		Title:        "Dell OptiPlex 7090",
		PriceUSD:     price(250),
		Condition:    "used",
		Marketplace:  "ebay",
		VendorItemID: "123",
		CPUModel:     "Intel Core i5-10500",
		RamGB:        16,
		StorageGB:    512,
		StorageType:  "ssd",
		Attributes:   map[string]any{},
		ExtractedFields: map[string]bool{
			"price": true, "cpu_model": true, "ram_gb": true, "storage_gb": true,
		},
	}
}

func newPipeline(t *testing.T, adapter *stubAdapter) (*Pipeline, *fakeStore, *events.Recording) {
	t.Helper()
	r := router.New()
	r.Register(adapter)
	store := newFakeStore()
	rec := &events.Recording{}
	return New(r, store, rec, nil), store, rec
}

func TestIngestURLCreatesFullQualityListing(t *testing.T) {
	p, store, rec := newPipeline(t, &stubAdapter{name: "ebay", result: fullListing()})

	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	assert.Equal(t, domain.QualityFull, listing.Quality)
	assert.Empty(t, listing.MissingFields)
	assert.NotNil(t, listing.CPUID)
	assert.NotNil(t, listing.RamSpecID)
	assert.NotNil(t, listing.PrimaryStorageID)
	assert.Len(t, store.listings, 1)
	assert.Len(t, rec.Events, 1)
	assert.Equal(t, events.ListingCreated, rec.Events[0].Type)
}

func TestIngestURLMarksPartialOnMissingFields(t *testing.T) {
	n := fullListing()
	n.CPUModel = ""
	n.ExtractedFields["cpu_model"] = false

	p, _, _ := newPipeline(t, &stubAdapter{name: "ebay", result: n})

	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	assert.Equal(t, domain.QualityPartial, listing.Quality)
	assert.Contains(t, listing.MissingFields, "cpu_model")
	assert.Equal(t, domain.FieldExtractionFailed, listing.ExtractionMetadata["cpu_model"])
	assert.Nil(t, listing.CPUID)
}

func TestIngestURLMarksPartialOnMissingPrice(t *testing.T) {
	n := fullListing()
	n.PriceUSD = nil
	n.ExtractedFields["price"] = false

	p, _, _ := newPipeline(t, &stubAdapter{name: "ebay", result: n})

	listing, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)
	assert.Equal(t, domain.QualityPartial, listing.Quality)
	assert.Contains(t, listing.MissingFields, "price")
	assert.Nil(t, listing.PriceUSD)
	assert.Nil(t, listing.AdjustedPriceUSD)
}

func TestIngestURLUpdatesExistingOnVendorIDMatch(t *testing.T) {
	p, store, rec := newPipeline(t, &stubAdapter{name: "ebay", result: fullListing()})

	first, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)

	second, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.listings, 1)
	assert.Len(t, rec.Events, 2)
	assert.Equal(t, events.ListingUpdated, rec.Events[1].Type)
}

func TestIngestURLPropagatesExtractionError(t *testing.T) {
	p, _, _ := newPipeline(t, &stubAdapter{name: "ebay", err: assertErr("boom")})

	_, err := p.IngestURL(context.Background(), "https://www.ebay.com/itm/123")
	assert.Error(t, err)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
