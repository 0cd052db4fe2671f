// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"

	"github.com/dealbrain/core/internal/catalog"
	"github.com/dealbrain/core/internal/dedup"
	"github.com/dealbrain/core/internal/domain"
	"github.com/dealbrain/core/internal/valuation"
)

// Store is the persistence surface the pipeline needs, composed from the
// narrower interfaces internal/dedup, internal/catalog, and
// internal/valuation each depend on. internal/storage/postgres's
// Repository satisfies this structurally.
type Store interface {
	dedup.Store
	catalog.Store
	valuation.Provider

	CreateListing(ctx context.Context, l *domain.Listing) error
	UpdateListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id int64) (*domain.Listing, error)
	TouchLastSeen(ctx context.Context, id int64) error
	GetCPU(ctx context.Context, id int64) (domain.CPU, error)
	GetGPU(ctx context.Context, id int64) (domain.GPU, error)
}
