package adapterrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	assert.True(t, Timeout.Retryable())
	assert.True(t, NetworkError.Retryable())
	assert.True(t, RateLimited.Retryable())
	assert.False(t, ItemNotFound.Retryable())
	assert.False(t, InvalidSchema.Retryable())
	assert.False(t, ParseError.Retryable())
	assert.False(t, NoStructuredData.Retryable())
	assert.False(t, AdapterDisabled.Retryable())
	assert.False(t, NoAdapterFound.Retryable())
}

func TestErrorMessage(t *testing.T) {
	err := New(ParseError, "could not parse item id", map[string]any{"url": "https://ebay.com/itm/x"})
	assert.Equal(t, "PARSE_ERROR: could not parse item id", err.Error())
	assert.Equal(t, "https://ebay.com/itm/x", err.Metadata["url"])
}

func TestIs(t *testing.T) {
	err := New(RateLimited, "slow down", nil)
	assert.True(t, Is(err, RateLimited))
	assert.False(t, Is(err, Timeout))
	assert.False(t, Is(assert.AnError, RateLimited))
}
