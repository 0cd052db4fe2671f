// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package postgres

import (
	"context"

	"github.com/dealbrain/core/internal/dberrors"
	"github.com/dealbrain/core/internal/domain"
)

// NoOpRepository is an in-memory Repository stand-in for tests that
// exercise the ingestion or valuation pipeline without a database.
// It is not safe for concurrent use.
type NoOpRepository struct {
	Listings         map[int64]domain.Listing
	Rulesets         map[int64]domain.ValuationRuleset
	RulesetsByHash   map[string]int64
	Audits           []domain.RuleAudit
	CPUs             map[int64]domain.CPU
	GPUs             map[int64]domain.GPU
	nextListingID    int64
	nextRulesetID    int64
}

var _ Repository = (*NoOpRepository)(nil)

func NewNoOpRepository() *NoOpRepository {
	return &NoOpRepository{
		Listings:       make(map[int64]domain.Listing),
		Rulesets:       make(map[int64]domain.ValuationRuleset),
		RulesetsByHash: make(map[string]int64),
		CPUs:           make(map[int64]domain.CPU),
		GPUs:           make(map[int64]domain.GPU),
	}
}

func (n *NoOpRepository) Ping(ctx context.Context) error { return nil }

func (n *NoOpRepository) CreateListing(ctx context.Context, l *domain.Listing) error {
	n.nextListingID++
	l.ID = n.nextListingID
	n.Listings[l.ID] = *l
	return nil
}

func (n *NoOpRepository) UpdateListing(ctx context.Context, l *domain.Listing) error {
	if _, ok := n.Listings[l.ID]; !ok {
		return dberrors.ErrNotFound
	}
	n.Listings[l.ID] = *l
	return nil
}

func (n *NoOpRepository) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	l, ok := n.Listings[id]
	if !ok {
		return nil, dberrors.ErrNotFound
	}
	return &l, nil
}

func (n *NoOpRepository) ListListings(ctx context.Context, opts ListOptions) (ListResult, error) {
	var out []domain.Listing
	for _, l := range n.Listings {
		out = append(out, l)
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return ListResult{Listings: out}, nil
}

func (n *NoOpRepository) FindByVendorID(ctx context.Context, marketplace, vendorItemID string) (int64, bool, error) {
	for _, l := range n.Listings {
		if string(l.Marketplace) == marketplace && l.VendorItemID == vendorItemID {
			return l.ID, true, nil
		}
	}
	return 0, false, nil
}

func (n *NoOpRepository) FindByHash(ctx context.Context, hash string) (int64, bool, error) {
	for _, l := range n.Listings {
		if l.DedupHash == hash {
			return l.ID, true, nil
		}
	}
	return 0, false, nil
}

func (n *NoOpRepository) TouchLastSeen(ctx context.Context, id int64) error {
	l, ok := n.Listings[id]
	if !ok {
		return dberrors.ErrNotFound
	}
	n.Listings[id] = l
	return nil
}

func (n *NoOpRepository) FindRamSpec(ctx context.Context, tuple [5]any) (domain.RamSpec, bool, error) {
	return domain.RamSpec{}, false, nil
}

func (n *NoOpRepository) CreateRamSpec(ctx context.Context, spec domain.RamSpec) (domain.RamSpec, error) {
	return spec, nil
}

func (n *NoOpRepository) FindStorageProfile(ctx context.Context, tuple [4]any) (domain.StorageProfile, bool, error) {
	return domain.StorageProfile{}, false, nil
}

func (n *NoOpRepository) CreateStorageProfile(ctx context.Context, profile domain.StorageProfile) (domain.StorageProfile, error) {
	return profile, nil
}

func (n *NoOpRepository) FindCPUByName(ctx context.Context, name string) (domain.CPU, bool, error) {
	for _, c := range n.CPUs {
		if c.Name == name {
			return c, true, nil
		}
	}
	return domain.CPU{}, false, nil
}

func (n *NoOpRepository) CreateCPU(ctx context.Context, cpu domain.CPU) (domain.CPU, error) {
	cpu.ID = int64(len(n.CPUs) + 1)
	n.CPUs[cpu.ID] = cpu
	return cpu, nil
}

func (n *NoOpRepository) GetCPU(ctx context.Context, id int64) (domain.CPU, error) {
	c, ok := n.CPUs[id]
	if !ok {
		return domain.CPU{}, dberrors.ErrNotFound
	}
	return c, nil
}

func (n *NoOpRepository) FindGPUByName(ctx context.Context, name string) (domain.GPU, bool, error) {
	for _, g := range n.GPUs {
		if g.Name == name {
			return g, true, nil
		}
	}
	return domain.GPU{}, false, nil
}

func (n *NoOpRepository) CreateGPU(ctx context.Context, gpu domain.GPU) (domain.GPU, error) {
	gpu.ID = int64(len(n.GPUs) + 1)
	n.GPUs[gpu.ID] = gpu
	return gpu, nil
}

func (n *NoOpRepository) GetGPU(ctx context.Context, id int64) (domain.GPU, error) {
	g, ok := n.GPUs[id]
	if !ok {
		return domain.GPU{}, dberrors.ErrNotFound
	}
	return g, nil
}

func (n *NoOpRepository) GetActiveRuleset(ctx context.Context, profileID *int64) (domain.ValuationRuleset, error) {
	for _, rs := range n.Rulesets {
		if rs.Active && rs.IsDefault {
			return rs, nil
		}
	}
	return domain.ValuationRuleset{}, dberrors.ErrNotFound
}

func (n *NoOpRepository) GetRuleset(ctx context.Context, id int64) (domain.ValuationRuleset, error) {
	rs, ok := n.Rulesets[id]
	if !ok {
		return domain.ValuationRuleset{}, dberrors.ErrNotFound
	}
	return rs, nil
}

func (n *NoOpRepository) ActiveRulesets(ctx context.Context) ([]domain.ValuationRuleset, error) {
	var out []domain.ValuationRuleset
	for _, rs := range n.Rulesets {
		if rs.Active {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (n *NoOpRepository) ListingIDsForRuleset(ctx context.Context, rulesetID int64) ([]int64, error) {
	var ids []int64
	for _, l := range n.Listings {
		if l.RulesetID != nil && *l.RulesetID == rulesetID {
			ids = append(ids, l.ID)
		}
	}
	return ids, nil
}

func (n *NoOpRepository) RecordRuleAudit(ctx context.Context, audit domain.RuleAudit) error {
	n.Audits = append(n.Audits, audit)
	return nil
}

func (n *NoOpRepository) RulesetBySourceHash(ctx context.Context, hash string) (*domain.ValuationRuleset, error) {
	id, ok := n.RulesetsByHash[hash]
	if !ok {
		return nil, nil
	}
	rs := n.Rulesets[id]
	return &rs, nil
}

func (n *NoOpRepository) CreateRuleset(ctx context.Context, rs *domain.ValuationRuleset) (int64, error) {
	n.nextRulesetID++
	rs.ID = n.nextRulesetID
	n.Rulesets[rs.ID] = *rs
	if hash := rs.SourceHash(); hash != "" {
		n.RulesetsByHash[hash] = rs.ID
	}
	return rs.ID, nil
}

func (n *NoOpRepository) DeactivateOtherBaselines(ctx context.Context, keepRulesetID int64) error {
	for id, rs := range n.Rulesets {
		if id != keepRulesetID && rs.IsSystemBaseline() {
			rs.Active = false
			n.Rulesets[id] = rs
		}
	}
	return nil
}

func (n *NoOpRepository) CountListings(ctx context.Context, filters map[string]any) (int64, error) {
	return int64(len(n.Listings)), nil
}
