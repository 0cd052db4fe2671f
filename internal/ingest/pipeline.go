// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/dealbrain/core/internal/adapters/base"
	"github.com/dealbrain/core/internal/adapters/router"
	"github.com/dealbrain/core/internal/catalog"
	"github.com/dealbrain/core/internal/dedup"
	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/events"
	"github.com/dealbrain/core/internal/logging"
	"github.com/dealbrain/core/internal/metrics"
	"github.com/dealbrain/core/internal/observability"
	"github.com/dealbrain/core/internal/valuation"
)

// trackedFields lists the extraction fields whose absence marks a
// listing quality=partial rather than full. "price" is included
// because an adapter may legitimately return a title with no
// parseable price; that still persists, just as partial.
var trackedFields = []string{"price", "cpu_model", "ram_gb", "storage_gb"}

// Pipeline runs one listing URL through extraction, dedup, catalog
// resolution, persistence, and valuation. It holds no per-request state
// and is safe for concurrent use across goroutines pulling from the
// same worker pool.
type Pipeline struct {
	Router *router.Router
	Store  Store
	Events events.Publisher
	Logger *logging.Logger
}

// New builds a Pipeline. events may be events.NoOp{} when no bus is
// configured.
func New(r *router.Router, store Store, pub events.Publisher, logger *logging.Logger) *Pipeline {
	return &Pipeline{Router: r, Store: store, Events: pub, Logger: logger}
}

// IngestURL runs the full pipeline for a single URL: extract, dedup,
// resolve catalog rows, persist, value, and publish a listing event. A
// listing missing optional fields still persists with quality=partial
// rather than failing outright; only an extraction or persistence
// failure returns an error.
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string) (*domain.Listing, error) {
	start := time.Now()
	normalized, adapterName, err := p.Router.Extract(ctx, rawURL)
	observability.ObserveAdapterCall(adapterOrUnknown(adapterName), outcomeOf(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("ingest: extract %s: %w", rawURL, err)
	}

	dedupResult, err := dedup.FindDuplicate(ctx, p.Store, normalized)
	if err != nil {
		return nil, fmt.Errorf("ingest: dedup check: %w", err)
	}

	cpu, gpu, ramSpec, storage, err := p.resolveCatalog(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("ingest: catalog resolution: %w", err)
	}

	quality, missingFields, extractionMeta := classify(normalized)

	var listing *domain.Listing
	created := false
	if dedupResult.Matched {
		listing, err = p.Store.GetListing(ctx, dedupResult.MatchedID)
		if err != nil {
			return nil, fmt.Errorf("ingest: load duplicate listing: %w", err)
		}
		applyNormalized(listing, normalized, rawURL, dedupResult.Hash, quality, missingFields, extractionMeta)
	} else {
		listing = &domain.Listing{}
		applyNormalized(listing, normalized, rawURL, dedupResult.Hash, quality, missingFields, extractionMeta)
		created = true
	}

	if cpu != nil {
		listing.CPUID = &cpu.ID
	}
	if gpu != nil {
		listing.GPUID = &gpu.ID
	}
	if ramSpec != nil {
		listing.RamSpecID = &ramSpec.ID
	}
	if storage != nil {
		listing.PrimaryStorageID = &storage.ID
	}

	if err := p.value(ctx, listing, cpu, gpu, ramSpec, storage); err != nil && p.Logger != nil {
		p.Logger.Warn(fmt.Sprintf("%d", listing.ID), "", "valuation skipped", map[string]any{"error": err.Error()})
	}

	if created {
		if err := p.Store.CreateListing(ctx, listing); err != nil {
			return nil, fmt.Errorf("ingest: create listing: %w", err)
		}
		p.Events.Publish(ctx, events.ListingCreated, events.ListingCreatedData{
			ListingID: listing.ID, Timestamp: time.Now().UTC(),
		})
	} else {
		if err := p.Store.UpdateListing(ctx, listing); err != nil {
			return nil, fmt.Errorf("ingest: update listing: %w", err)
		}
		if err := p.Store.TouchLastSeen(ctx, listing.ID); err != nil && p.Logger != nil {
			p.Logger.Warn(fmt.Sprintf("%d", listing.ID), "", "touch last seen failed", map[string]any{"error": err.Error()})
		}
		p.Events.Publish(ctx, events.ListingUpdated, events.ListingUpdatedData{
			ListingID: listing.ID, Timestamp: time.Now().UTC(),
		})
	}

	return listing, nil
}

// value runs ruleset selection and evaluation for listing, setting its
// ValuationBreakdown/AdjustedPriceUSD, then derives the $/mark and
// composite performance metrics. Errors are non-fatal to ingestion: a
// listing with no price gets metrics.ErrNoPrice and no breakdown or
// metrics are computed for it; a listing with no matching ruleset gets a
// zero-adjustment breakdown and metrics from its unadjusted price.
func (p *Pipeline) value(ctx context.Context, listing *domain.Listing, cpu *domain.CPU, gpu *domain.GPU, ramSpec *domain.RamSpec, storage *domain.StorageProfile) error {
	if listing.PriceUSD == nil {
		return metrics.ErrNoPrice
	}

	fieldCtx := &valuation.Context{Listing: listing, CPU: cpu, GPU: gpu, RamSpec: ramSpec, Storage: storage}

	start := time.Now()
	ruleset, err := valuation.SelectRuleset(ctx, p.Store, listing, fieldCtx)
	if err != nil {
		return fmt.Errorf("select ruleset: %w", err)
	}

	var breakdown *domain.ValuationBreakdown
	if ruleset == nil {
		breakdown = valuation.ZeroBreakdown(*listing.PriceUSD)
	} else {
		breakdown = valuation.Evaluate(*ruleset, fieldCtx, *listing.PriceUSD)
	}
	observability.ObserveRuleEvaluation(time.Since(start))

	listing.ValuationBreakdown = breakdown
	listing.AdjustedPriceUSD = ptr(breakdown.AdjustedPrice)

	return metrics.Apply(listing, cpu, gpu, nil)
}

// resolveCatalog resolves or creates the CPU/GPU/RAM/storage rows a
// normalized extraction references, skipping any descriptor the adapter
// left empty.
func (p *Pipeline) resolveCatalog(ctx context.Context, n *base.NormalizedListing) (*domain.CPU, *domain.GPU, *domain.RamSpec, *domain.StorageProfile, error) {
	var cpu *domain.CPU
	var gpu *domain.GPU
	var ramSpec *domain.RamSpec
	var storage *domain.StorageProfile

	if n.CPUModel != "" {
		c, err := catalog.GetOrCreateCPU(ctx, p.Store, n.CPUModel)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		cpu = &c
	}
	if n.GPUModel != "" {
		g, err := catalog.GetOrCreateGPU(ctx, p.Store, n.GPUModel)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		gpu = &g
	}
	if n.RamGB > 0 {
		r, err := catalog.GetOrCreateRamSpec(ctx, p.Store, catalog.RamSpecInput{TotalCapacityGB: n.RamGB})
		if err != nil {
			return nil, nil, nil, nil, err
		}
		ramSpec = &r
	}
	if n.StorageGB > 0 {
		s, err := catalog.GetOrCreateStorageProfile(ctx, p.Store, catalog.StorageInput{Medium: n.StorageType, CapacityGB: n.StorageGB})
		if err != nil {
			return nil, nil, nil, nil, err
		}
		storage = &s
	}

	return cpu, gpu, ramSpec, storage, nil
}

// classify decides a new extraction's Quality, MissingFields, and
// ExtractionMetadata bag from the adapter's reported ExtractedFields.
func classify(n *base.NormalizedListing) (domain.Quality, []string, map[string]domain.FieldState) {
	meta := make(map[string]domain.FieldState, len(trackedFields))
	var missing []string

	for _, field := range trackedFields {
		if n.ExtractedFields[field] {
			meta[field] = domain.FieldExtracted
		} else {
			meta[field] = domain.FieldExtractionFailed
			missing = append(missing, field)
		}
	}

	quality := domain.QualityFull
	if len(missing) > 0 {
		quality = domain.QualityPartial
	}
	return quality, missing, meta
}

// applyNormalized copies a normalized extraction's fields onto listing,
// overwriting anything a previous extraction set for the same
// (marketplace, vendor_item_id)/hash identity.
func applyNormalized(listing *domain.Listing, n *base.NormalizedListing, url, hash string, quality domain.Quality, missing []string, meta map[string]domain.FieldState) {
	listing.Title = n.Title
	listing.ListingURL = url
	listing.Seller = n.Seller
	listing.PriceUSD = n.PriceUSD
	listing.Condition = domain.ItemCondition(n.Condition)
	listing.Status = "active"
	listing.Marketplace = domain.Marketplace(n.Marketplace)
	listing.VendorItemID = n.VendorItemID
	listing.DedupHash = hash
	listing.RamGB = n.RamGB
	listing.PrimaryStorageGB = n.StorageGB
	listing.PrimaryStorageType = n.StorageType
	listing.Attributes = n.Attributes
	listing.Quality = quality
	listing.MissingFields = missing
	listing.ExtractionMetadata = meta
	listing.LastSeenAt = time.Now().UTC()
}

func adapterOrUnknown(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

func outcomeOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func ptr(v float64) *float64 { return &v }
