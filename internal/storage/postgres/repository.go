// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package postgres persists listings, catalog rows, and valuation
// rulesets. Repository is the interface the rest of the service depends
// on; PostgresRepository is the production implementation and
// NoOpRepository a stand-in for tests that don't need real storage.
package postgres

import (
	"context"

	"github.com/dealbrain/core/internal/domain"
)

// ListOptions is the keyset-pagination request shape for ListListings.
type ListOptions struct {
	Cursor   string
	Limit    int
	SortBy   string
	SortDesc bool
	Filters  map[string]any
}

// ListResult carries a page of listings plus the cursor to request the
// next page, empty when exhausted.
type ListResult struct {
	Listings   []domain.Listing
	NextCursor string
}

// Repository is the persistence surface the ingestion pipeline, the
// valuation engine, and the HTTP API all depend on.
type Repository interface {
	// Listings.
	CreateListing(ctx context.Context, l *domain.Listing) error
	UpdateListing(ctx context.Context, l *domain.Listing) error
	GetListing(ctx context.Context, id int64) (*domain.Listing, error)
	ListListings(ctx context.Context, opts ListOptions) (ListResult, error)
	FindByVendorID(ctx context.Context, marketplace, vendorItemID string) (int64, bool, error)
	FindByHash(ctx context.Context, hash string) (int64, bool, error)
	TouchLastSeen(ctx context.Context, id int64) error

	// Catalog.
	FindRamSpec(ctx context.Context, tuple [5]any) (domain.RamSpec, bool, error)
	CreateRamSpec(ctx context.Context, spec domain.RamSpec) (domain.RamSpec, error)
	FindStorageProfile(ctx context.Context, tuple [4]any) (domain.StorageProfile, bool, error)
	CreateStorageProfile(ctx context.Context, profile domain.StorageProfile) (domain.StorageProfile, error)
	FindCPUByName(ctx context.Context, name string) (domain.CPU, bool, error)
	CreateCPU(ctx context.Context, cpu domain.CPU) (domain.CPU, error)
	GetCPU(ctx context.Context, id int64) (domain.CPU, error)
	FindGPUByName(ctx context.Context, name string) (domain.GPU, bool, error)
	CreateGPU(ctx context.Context, gpu domain.GPU) (domain.GPU, error)
	GetGPU(ctx context.Context, id int64) (domain.GPU, error)

	// Valuation.
	GetActiveRuleset(ctx context.Context, profileID *int64) (domain.ValuationRuleset, error)
	GetRuleset(ctx context.Context, id int64) (domain.ValuationRuleset, error)
	ActiveRulesets(ctx context.Context) ([]domain.ValuationRuleset, error)
	ListingIDsForRuleset(ctx context.Context, rulesetID int64) ([]int64, error)
	RecordRuleAudit(ctx context.Context, audit domain.RuleAudit) error

	// Baseline.
	RulesetBySourceHash(ctx context.Context, hash string) (*domain.ValuationRuleset, error)
	CreateRuleset(ctx context.Context, rs *domain.ValuationRuleset) (int64, error)
	DeactivateOtherBaselines(ctx context.Context, keepRulesetID int64) error

	// Aggregates.
	CountListings(ctx context.Context, filters map[string]any) (int64, error)

	Ping(ctx context.Context) error
}
