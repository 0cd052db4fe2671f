// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package ingest

import (
	"context"
	"fmt"

	"github.com/dealbrain/core/internal/dberrors"
	"github.com/dealbrain/core/internal/domain"
)

// fakeStore is an in-memory Store used across the ingest package's
// tests. Not concurrency-safe; each test builds its own instance.
type fakeStore struct {
	listings    map[int64]*domain.Listing
	byVendor    map[string]int64
	byHash      map[string]int64
	cpus        map[int64]domain.CPU
	cpusByName  map[string]int64
	gpus        map[int64]domain.GPU
	gpusByName  map[string]int64
	ramSpecs    map[[5]any]domain.RamSpec
	storage     map[[4]any]domain.StorageProfile
	rulesets    map[int64]domain.ValuationRuleset
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings:   make(map[int64]*domain.Listing),
		byVendor:   make(map[string]int64),
		byHash:     make(map[string]int64),
		cpus:       make(map[int64]domain.CPU),
		cpusByName: make(map[string]int64),
		gpus:       make(map[int64]domain.GPU),
		gpusByName: make(map[string]int64),
		ramSpecs:   make(map[[5]any]domain.RamSpec),
		storage:    make(map[[4]any]domain.StorageProfile),
		rulesets:   make(map[int64]domain.ValuationRuleset),
	}
}

func (s *fakeStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) FindByVendorID(ctx context.Context, marketplace, vendorItemID string) (int64, bool, error) {
	id, ok := s.byVendor[marketplace+"|"+vendorItemID]
	return id, ok, nil
}

func (s *fakeStore) FindByHash(ctx context.Context, hash string) (int64, bool, error) {
	id, ok := s.byHash[hash]
	return id, ok, nil
}

func (s *fakeStore) FindRamSpec(ctx context.Context, tuple [5]any) (domain.RamSpec, bool, error) {
	r, ok := s.ramSpecs[tuple]
	return r, ok, nil
}

func (s *fakeStore) CreateRamSpec(ctx context.Context, spec domain.RamSpec) (domain.RamSpec, error) {
	spec.ID = s.allocID()
	s.ramSpecs[spec.Tuple()] = spec
	return spec, nil
}

func (s *fakeStore) FindStorageProfile(ctx context.Context, tuple [4]any) (domain.StorageProfile, bool, error) {
	p, ok := s.storage[tuple]
	return p, ok, nil
}

func (s *fakeStore) CreateStorageProfile(ctx context.Context, profile domain.StorageProfile) (domain.StorageProfile, error) {
	profile.ID = s.allocID()
	s.storage[profile.Tuple()] = profile
	return profile, nil
}

func (s *fakeStore) FindCPUByName(ctx context.Context, name string) (domain.CPU, bool, error) {
	id, ok := s.cpusByName[name]
	if !ok {
		return domain.CPU{}, false, nil
	}
	return s.cpus[id], true, nil
}

func (s *fakeStore) CreateCPU(ctx context.Context, cpu domain.CPU) (domain.CPU, error) {
	cpu.ID = s.allocID()
	s.cpus[cpu.ID] = cpu
	s.cpusByName[cpu.Name] = cpu.ID
	return cpu, nil
}

func (s *fakeStore) FindGPUByName(ctx context.Context, name string) (domain.GPU, bool, error) {
	id, ok := s.gpusByName[name]
	if !ok {
		return domain.GPU{}, false, nil
	}
	return s.gpus[id], true, nil
}

func (s *fakeStore) CreateGPU(ctx context.Context, gpu domain.GPU) (domain.GPU, error) {
	gpu.ID = s.allocID()
	s.gpus[gpu.ID] = gpu
	s.gpusByName[gpu.Name] = gpu.ID
	return gpu, nil
}

func (s *fakeStore) GetRuleset(ctx context.Context, id int64) (domain.ValuationRuleset, error) {
	rs, ok := s.rulesets[id]
	if !ok {
		return domain.ValuationRuleset{}, fmt.Errorf("%w: ruleset %d", dberrors.ErrNotFound, id)
	}
	return rs, nil
}

func (s *fakeStore) ActiveRulesets(ctx context.Context) ([]domain.ValuationRuleset, error) {
	var out []domain.ValuationRuleset
	for _, rs := range s.rulesets {
		out = append(out, rs)
	}
	return out, nil
}

func (s *fakeStore) CreateListing(ctx context.Context, l *domain.Listing) error {
	l.ID = s.allocID()
	cp := *l
	s.listings[l.ID] = &cp
	if l.Marketplace != "" && l.VendorItemID != "" {
		s.byVendor[string(l.Marketplace)+"|"+l.VendorItemID] = l.ID
	}
	if l.DedupHash != "" {
		s.byHash[l.DedupHash] = l.ID
	}
	return nil
}

func (s *fakeStore) UpdateListing(ctx context.Context, l *domain.Listing) error {
	if _, ok := s.listings[l.ID]; !ok {
		return fmt.Errorf("%w: listing %d", dberrors.ErrNotFound, l.ID)
	}
	cp := *l
	s.listings[l.ID] = &cp
	return nil
}

func (s *fakeStore) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, fmt.Errorf("%w: listing %d", dberrors.ErrNotFound, id)
	}
	cp := *l
	return &cp, nil
}

func (s *fakeStore) TouchLastSeen(ctx context.Context, id int64) error {
	if _, ok := s.listings[id]; !ok {
		return fmt.Errorf("%w: listing %d", dberrors.ErrNotFound, id)
	}
	return nil
}

func (s *fakeStore) GetCPU(ctx context.Context, id int64) (domain.CPU, error) {
	c, ok := s.cpus[id]
	if !ok {
		return domain.CPU{}, fmt.Errorf("%w: cpu %d", dberrors.ErrNotFound, id)
	}
	return c, nil
}

func (s *fakeStore) GetGPU(ctx context.Context, id int64) (domain.GPU, error) {
	g, ok := s.gpus[id]
	if !ok {
		return domain.GPU{}, fmt.Errorf("%w: gpu %d", dberrors.ErrNotFound, id)
	}
	return g, nil
}
