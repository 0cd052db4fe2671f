package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealbrain/core/internal/adapterrors"
	"github.com/dealbrain/core/internal/adapters/base"
)

type stubAdapter struct {
	name     string
	domains  []string
	priority int
	result   *base.NormalizedListing
	err      error
}

func (s *stubAdapter) Name() string     { return s.name }
func (s *stubAdapter) Priority() int    { return s.priority }
func (s *stubAdapter) SupportsURL(url string) bool {
	if len(s.domains) == 1 && s.domains[0] == "*" {
		return true
	}
	for _, d := range s.domains {
		if contains(url, d) {
			return true
		}
	}
	return false
}
func (s *stubAdapter) Extract(ctx context.Context, url string) (*base.NormalizedListing, error) {
	return s.result, s.err
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (s == sub || (len(s) > len(sub) && indexOf(s, sub) >= 0))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func price(v float64) *float64 { return &v }

func TestSelectAdapterPicksHighestPriority(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{name: "jsonld", domains: []string{"*"}, priority: 5})
	r.Register(&stubAdapter{name: "ebay", domains: []string{"ebay.com"}, priority: 1})

	a, err := r.SelectAdapter("https://www.ebay.com/itm/123")
	assert.NoError(t, err)
	assert.Equal(t, "ebay", a.Name())
}

func TestSelectAdapterNoMatch(t *testing.T) {
	r := New()
	_, err := r.SelectAdapter("https://example.com")
	assert.True(t, adapterrors.Is(err, adapterrors.NoAdapterFound))
}

func TestExtractFallsThroughOnFailure(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{name: "ebay", domains: []string{"ebay.com"}, priority: 1, err: adapterrors.New(adapterrors.ParseError, "bad id", nil)})
	r.Register(&stubAdapter{name: "jsonld", domains: []string{"*"}, priority: 5, result: &base.NormalizedListing{Title: "x", PriceUSD: price(10)}})

	listing, name, err := r.Extract(context.Background(), "https://www.ebay.com/itm/123")
	assert.NoError(t, err)
	assert.Equal(t, "jsonld", name)
	assert.Equal(t, "x", listing.Title)
}

func TestExtractRejectsIncompleteResult(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{name: "jsonld", domains: []string{"*"}, priority: 5, result: &base.NormalizedListing{Title: ""}})

	_, _, err := r.Extract(context.Background(), "https://example.com")
	assert.True(t, adapterrors.Is(err, adapterrors.InvalidSchema))
}

func TestNormalizeDomain(t *testing.T) {
	assert.Equal(t, "ebay.com", NormalizeDomain("www.ebay.com"))
	assert.Equal(t, "ebay.com", NormalizeDomain("m.ebay.com"))
	assert.Equal(t, "ebay.co.uk", NormalizeDomain("ebay.co.uk"))
}
