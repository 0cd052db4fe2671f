// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaultsWhenUnset(t *testing.T) {
	t.Setenv("INGESTION_EBAY_ENABLED", "false")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.False(t, cfg.Adapters["ebay"].Enabled)
	assert.Equal(t, 8, cfg.Adapters["jsonld"].TimeoutS)
}

func TestLoadFromEnvRequiresEbayAPIKeyWhenEnabled(t *testing.T) {
	t.Setenv("INGESTION_EBAY_ENABLED", "true")
	t.Setenv("INGESTION_EBAY_API_KEY", "")

	_, err := LoadFromEnv("")
	assert.Error(t, err)
}

func TestLoadFromEnvReadsAPIKey(t *testing.T) {
	t.Setenv("INGESTION_EBAY_ENABLED", "true")
	t.Setenv("INGESTION_EBAY_API_KEY", "secret-token")

	cfg, err := LoadFromEnv("")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Adapters["ebay"].APIKey)
}

func TestEnvKeyUppercasesAndUnderscores(t *testing.T) {
	assert.Equal(t, "INGESTION_EBAY_TIMEOUT_S", envKey("ingestion.ebay.timeout_s"))
}
