// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := Cursor{ID: 42, SortValue: "2026-01-01T00:00:00Z"}
	encoded, err := Encode(c)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestDecodeEmptyCursorIsZeroValue(t *testing.T) {
	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, decoded)
}

func TestDecodeMalformedCursorIsValidationError(t *testing.T) {
	_, err := Decode("not-valid-base64!!")
	assert.Error(t, err)
}

func TestValidateLimitBounds(t *testing.T) {
	_, err := Validate("", 0, "id", false)
	assert.Error(t, err)

	_, err = Validate("", 501, "id", false)
	assert.Error(t, err)

	_, err = Validate("", 500, "id", false)
	assert.NoError(t, err)
}

func TestValidateSortByPattern(t *testing.T) {
	_, err := Validate("", 10, "Created_At", false)
	assert.Error(t, err)

	_, err = Validate("", 10, "created_at", false)
	assert.NoError(t, err)
}

func TestPageWalksAllRowsExactlyOnce(t *testing.T) {
	type row struct {
		id  int64
		sv  string
	}
	all := []row{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}, {5, "e"}}
	idOf := func(r row) int64 { return r.id }
	svOf := func(r row) string { return r.sv }

	var seen []int64
	limit := 2
	start := 0
	for {
		end := start + limit + 1
		if end > len(all) {
			end = len(all)
		}
		window := all[start:end]
		items, _, hasNext, err := Page(window, limit, idOf, svOf)
		require.NoError(t, err)
		for _, it := range items {
			seen = append(seen, it.id)
		}
		start += len(items)
		if !hasNext || start >= len(all) {
			break
		}
	}

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, seen)
}
