// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dealbrain/core/internal/catalog"
	"github.com/dealbrain/core/internal/dberrors"
	"github.com/dealbrain/core/internal/domain"
)

// fieldSetters maps a manual-completion field name to the function that
// applies its value onto the listing. Unknown keys in the fields map are
// ignored rather than erroring, since a caller may submit a superset of
// what a given listing is missing.
var fieldSetters = map[string]func(*domain.Listing, any){
	"price": func(l *domain.Listing, v any) {
		if f, ok := toFloat(v); ok && f > 0 {
			l.PriceUSD = &f
		}
	},
	"cpu_model": func(l *domain.Listing, v any) {
		if s, ok := v.(string); ok {
			l.Attributes["cpu_model"] = s
		}
	},
	"ram_gb": func(l *domain.Listing, v any) {
		if n, ok := toInt(v); ok {
			l.RamGB = n
		}
	},
	"storage_gb": func(l *domain.Listing, v any) {
		if n, ok := toInt(v); ok {
			l.PrimaryStorageGB = n
		}
	},
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// CompletePartialImport fills in fields a partial-import listing is
// missing, re-runs catalog resolution and valuation for whichever
// component fields changed, and flips Quality to full once no tracked
// field remains missing. It does not change a full-quality listing.
func (p *Pipeline) CompletePartialImport(ctx context.Context, listingID int64, fields map[string]any) (*domain.Listing, error) {
	listing, err := p.Store.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("ingest: load listing %d: %w", listingID, err)
	}
	if listing.Quality != domain.QualityPartial {
		return nil, fmt.Errorf("%w: listing %d is not partial", dberrors.ErrValidation, listingID)
	}
	if listing.Attributes == nil {
		listing.Attributes = make(map[string]any)
	}

	remaining := listing.MissingFields[:0:0]
	for _, field := range listing.MissingFields {
		if v, ok := fields[field]; ok {
			if field == "price" {
				if f, ok := toFloat(v); !ok || f <= 0 {
					return nil, fmt.Errorf("%w: price must be a positive number", dberrors.ErrValidation)
				}
			}
			if setter, known := fieldSetters[field]; known {
				setter(listing, v)
			}
			if listing.ExtractionMetadata == nil {
				listing.ExtractionMetadata = make(map[string]domain.FieldState)
			}
			listing.ExtractionMetadata[field] = domain.FieldManual
			continue
		}
		remaining = append(remaining, field)
	}
	listing.MissingFields = remaining

	var cpu *domain.CPU
	var gpu *domain.GPU
	var ramSpec *domain.RamSpec
	var storage *domain.StorageProfile

	if cpuModel, ok := listing.Attributes["cpu_model"].(string); ok && cpuModel != "" {
		c, err := catalog.GetOrCreateCPU(ctx, p.Store, cpuModel)
		if err != nil {
			return nil, fmt.Errorf("ingest: resolve cpu: %w", err)
		}
		cpu = &c
		listing.CPUID = &c.ID
	} else if listing.CPUID != nil {
		c, err := p.Store.GetCPU(ctx, *listing.CPUID)
		if err == nil {
			cpu = &c
		}
	}
	if listing.RamGB > 0 {
		r, err := catalog.GetOrCreateRamSpec(ctx, p.Store, catalog.RamSpecInput{TotalCapacityGB: listing.RamGB})
		if err != nil {
			return nil, fmt.Errorf("ingest: resolve ram spec: %w", err)
		}
		ramSpec = &r
		listing.RamSpecID = &r.ID
	}
	if listing.PrimaryStorageGB > 0 {
		s, err := catalog.GetOrCreateStorageProfile(ctx, p.Store, catalog.StorageInput{
			Medium: listing.PrimaryStorageType, CapacityGB: listing.PrimaryStorageGB,
		})
		if err != nil {
			return nil, fmt.Errorf("ingest: resolve storage profile: %w", err)
		}
		storage = &s
		listing.PrimaryStorageID = &s.ID
	}
	if listing.GPUID != nil {
		g, err := p.Store.GetGPU(ctx, *listing.GPUID)
		if err == nil {
			gpu = &g
		}
	}

	if len(remaining) == 0 {
		listing.Quality = domain.QualityFull
	}

	if err := p.value(ctx, listing, cpu, gpu, ramSpec, storage); err != nil && p.Logger != nil {
		p.Logger.Warn(fmt.Sprintf("%d", listing.ID), "", "valuation skipped on partial completion", map[string]any{"error": err.Error()})
	}

	if err := p.Store.UpdateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("ingest: persist completed listing: %w", err)
	}

	return listing, nil
}
