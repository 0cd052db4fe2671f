package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealbrain/core/internal/adapters/base"
)

func price(v float64) *float64 { return &v }

func TestGenerateHashConsistency(t *testing.T) {
	a := &base.NormalizedListing{Title: "Gaming PC Intel i7", PriceUSD: price(599.99), Seller: "TechStore", Marketplace: "other", Condition: "used"}
	b := &base.NormalizedListing{Title: "Gaming PC Intel i7", PriceUSD: price(599.99), Seller: "TechStore", Marketplace: "other", Condition: "used"}
	assert.Equal(t, GenerateHash(a), GenerateHash(b))
	assert.Len(t, GenerateHash(a), 64)
}

func TestGenerateHashCaseInsensitive(t *testing.T) {
	a := &base.NormalizedListing{Title: "Gaming PC", PriceUSD: price(599.99), Seller: "Store", Marketplace: "other", Condition: "used"}
	b := &base.NormalizedListing{Title: "GAMING PC", PriceUSD: price(599.99), Seller: "store", Marketplace: "other", Condition: "used"}
	assert.Equal(t, GenerateHash(a), GenerateHash(b))
}

func TestGenerateHashPunctuationNormalized(t *testing.T) {
	a := &base.NormalizedListing{Title: "Gaming-PC!", PriceUSD: price(599.99), Seller: "Store", Marketplace: "other", Condition: "used"}
	b := &base.NormalizedListing{Title: "GamingPC", PriceUSD: price(599.99), Seller: "Store", Marketplace: "other", Condition: "used"}
	c := &base.NormalizedListing{Title: "Gaming PC", PriceUSD: price(599.99), Seller: "Store", Marketplace: "other", Condition: "used"}

	assert.Equal(t, GenerateHash(a), GenerateHash(b))
	assert.NotEqual(t, GenerateHash(a), GenerateHash(c))
}

func TestGenerateHashDifferentData(t *testing.T) {
	a := &base.NormalizedListing{Title: "Gaming PC", PriceUSD: price(599.99), Seller: "Store", Marketplace: "other", Condition: "used"}
	b := &base.NormalizedListing{Title: "Different PC", PriceUSD: price(599.99), Seller: "Store", Marketplace: "other", Condition: "used"}
	assert.NotEqual(t, GenerateHash(a), GenerateHash(b))
}

type stubStore struct {
	vendorMatch map[string]int64
	hashMatch   map[string]int64
}

func (s *stubStore) FindByVendorID(ctx context.Context, marketplace, vendorItemID string) (int64, bool, error) {
	id, ok := s.vendorMatch[marketplace+"|"+vendorItemID]
	return id, ok, nil
}

func (s *stubStore) FindByHash(ctx context.Context, hash string) (int64, bool, error) {
	id, ok := s.hashMatch[hash]
	return id, ok, nil
}

func TestFindDuplicateVendorIDTakesPriority(t *testing.T) {
	n := &base.NormalizedListing{Title: "x", PriceUSD: price(1), Marketplace: "ebay", VendorItemID: "123"}
	hash := GenerateHash(n)
	store := &stubStore{
		vendorMatch: map[string]int64{"ebay|123": 1},
		hashMatch:   map[string]int64{hash: 2},
	}

	result, err := FindDuplicate(context.Background(), store, n)
	assert.NoError(t, err)
	assert.True(t, result.Matched)
	assert.True(t, result.MatchedByVendorID)
	assert.Equal(t, int64(1), result.MatchedID)
}

func TestFindDuplicateFallsBackToHash(t *testing.T) {
	n := &base.NormalizedListing{Title: "x", PriceUSD: price(1), Marketplace: "other"}
	hash := GenerateHash(n)
	store := &stubStore{hashMatch: map[string]int64{hash: 7}}

	result, err := FindDuplicate(context.Background(), store, n)
	assert.NoError(t, err)
	assert.True(t, result.Matched)
	assert.False(t, result.MatchedByVendorID)
	assert.Equal(t, int64(7), result.MatchedID)
}

func TestFindDuplicateNoMatch(t *testing.T) {
	n := &base.NormalizedListing{Title: "x", PriceUSD: price(1), Marketplace: "other"}
	store := &stubStore{}

	result, err := FindDuplicate(context.Background(), store, n)
	assert.NoError(t, err)
	assert.False(t, result.Matched)
}
