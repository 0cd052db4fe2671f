// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/events"
)

// Recalculate reruns ruleset selection, valuation, and metric derivation
// for an already-persisted listing, without touching extraction or
// catalog resolution. It's the unit of work the recalculation queue's
// workers run in response to a ruleset/rule/field edit.
//
// RamSpec and StorageProfile aren't reloaded by ID (Store exposes no
// such lookup, only find-by-tuple during ingestion), so a recalculation
// triggered purely by a rule change runs with those fields as nil in
// valuation.Context. Rule conditions on ram_spec.* or storage_profile.*
// fields won't match during a recalculation pass; conditions on listing
// fields (including ram_gb and primary_storage_gb), CPU, and GPU still do.
func (p *Pipeline) Recalculate(ctx context.Context, listingID int64) error {
	listing, err := p.Store.GetListing(ctx, listingID)
	if err != nil {
		return fmt.Errorf("ingest: load listing %d: %w", listingID, err)
	}

	var cpu *domain.CPU
	if listing.CPUID != nil {
		c, err := p.Store.GetCPU(ctx, *listing.CPUID)
		if err == nil {
			cpu = &c
		}
	}
	var gpu *domain.GPU
	if listing.GPUID != nil {
		g, err := p.Store.GetGPU(ctx, *listing.GPUID)
		if err == nil {
			gpu = &g
		}
	}

	if err := p.value(ctx, listing, cpu, gpu, nil, nil); err != nil {
		return fmt.Errorf("ingest: recalculate listing %d: %w", listingID, err)
	}

	if err := p.Store.UpdateListing(ctx, listing); err != nil {
		return fmt.Errorf("ingest: persist recalculated listing %d: %w", listingID, err)
	}

	p.Events.Publish(ctx, events.ValuationRecalculated, events.ValuationRecalculatedData{
		ListingIDs: []int64{listingID}, Timestamp: time.Now().UTC(),
	})
	return nil
}
