// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package baseline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbrain/core/internal/domain"
)

type fakeStore struct {
	byHash  map[string]*domain.ValuationRuleset
	created []*domain.ValuationRuleset
	nextID  int64
	deactivated int64
}

func (s *fakeStore) RulesetBySourceHash(ctx context.Context, hash string) (*domain.ValuationRuleset, error) {
	return s.byHash[hash], nil
}

func (s *fakeStore) CreateRuleset(ctx context.Context, rs *domain.ValuationRuleset) (int64, error) {
	s.nextID++
	s.created = append(s.created, rs)
	return s.nextID, nil
}

func (s *fakeStore) DeactivateOtherBaselines(ctx context.Context, keepRulesetID int64) error {
	s.deactivated = keepRulesetID
	return nil
}

const sampleDoc = `{
  "schema_version": "2026.1",
  "generated_at": "2026-01-01T00:00:00Z",
  "entities": {
    "cpu": [
      {"id": "cpu_mark_multi", "proper_name": "CPU Mark (multi)", "unit": "usd", "field_type": "fixed", "default_value": 0}
    ],
    "ram_spec": [
      {"id": "ram_type", "proper_name": "RAM Type", "unit": "multiplier", "field_type": "enum_multiplier",
       "valuation_buckets": {"ddr5": 1.1, "ddr4": 1.0}}
    ]
  }
}`

func TestLoadMaterializesNewBaseline(t *testing.T) {
	store := &fakeStore{byHash: map[string]*domain.ValuationRuleset{}}

	rs, err := Load(context.Background(), store, []byte(sampleDoc), "s3://bucket/baseline.json")
	require.NoError(t, err)
	require.NotNil(t, rs)

	assert.True(t, rs.IsSystemBaseline())
	assert.Equal(t, int64(1), rs.ID)
	assert.Len(t, rs.Groups, 2)
	assert.Equal(t, int64(1), store.deactivated)
}

func TestLoadIsIdempotentOnMatchingHash(t *testing.T) {
	hash, err := Hash([]byte(sampleDoc))
	require.NoError(t, err)

	existing := &domain.ValuationRuleset{ID: 99, Metadata: map[string]any{"system_baseline": true, "source_hash": hash}}
	store := &fakeStore{byHash: map[string]*domain.ValuationRuleset{hash: existing}}

	rs, err := Load(context.Background(), store, []byte(sampleDoc), "s3://bucket/baseline.json")
	require.NoError(t, err)
	assert.Equal(t, int64(99), rs.ID)
	assert.Empty(t, store.created)
}

func TestHashIsOrderInsensitive(t *testing.T) {
	reordered := `{"entities": {"cpu": [{"id": "cpu_mark_multi", "proper_name": "CPU Mark (multi)", "unit": "usd", "field_type": "fixed", "default_value": 0}], "ram_spec": [{"id": "ram_type", "proper_name": "RAM Type", "unit": "multiplier", "field_type": "enum_multiplier", "valuation_buckets": {"ddr4": 1.0, "ddr5": 1.1}}]}, "generated_at": "2026-01-01T00:00:00Z", "schema_version": "2026.1"}`

	h1, err := Hash([]byte(sampleDoc))
	require.NoError(t, err)
	h2, err := Hash([]byte(reordered))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
