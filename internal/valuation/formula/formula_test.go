// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArithmetic(t *testing.T) {
	expr, err := Parse("2 + 3 * (4 - 1) / 3")
	require.NoError(t, err)

	v, err := expr.Eval(nil)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v, 1e-9)
}

func TestEvalFieldReference(t *testing.T) {
	expr, err := Parse("ram_spec.total_capacity_gb * -2")
	require.NoError(t, err)

	resolve := func(path string) (float64, bool) {
		if path == "ram_spec.total_capacity_gb" {
			return 16, true
		}
		return 0, false
	}

	v, err := expr.Eval(resolve)
	require.NoError(t, err)
	assert.Equal(t, -32.0, v)
}

func TestEvalUnresolvedField(t *testing.T) {
	expr, err := Parse("missing_field + 1")
	require.NoError(t, err)

	_, err = expr.Eval(func(string) (float64, bool) { return 0, false })
	assert.Error(t, err)
}

func TestEvalFunctions(t *testing.T) {
	cases := map[string]float64{
		"min(2, 5)":           2,
		"max(2, 5)":           5,
		"abs(-4)":             4,
		"floor(4.7)":          4,
		"ceil(4.2)":           5,
		"round(4.5)":          5,
		"clamp(10, 0, 5)":     5,
		"clamp(-10, 0, 5)":    0,
		"clamp(3, 0, 5)":      3,
	}
	for src, want := range cases {
		expr, err := Parse(src)
		require.NoError(t, err, src)
		got, err := expr.Eval(nil)
		require.NoError(t, err, src)
		assert.InDelta(t, want, got, 1e-9, src)
	}
}

func TestDivisionByZero(t *testing.T) {
	expr, err := Parse("1 / 0")
	require.NoError(t, err)
	_, err = expr.Eval(nil)
	assert.Error(t, err)
}

func TestValidateRejectsMalformed(t *testing.T) {
	cases := []string{
		"1 + ",
		"(1 + 2",
		"unknown_func(1)",
		"min(1)",
		"1 $ 2",
	}
	for _, src := range cases {
		assert.Error(t, Validate(src), src)
	}
}

func TestValidateAcceptsFieldReferencesUnconditionally(t *testing.T) {
	assert.NoError(t, Validate("cpu.cpu_mark_multi / 100 + ram_gb"))
}

func TestParseNoEval(t *testing.T) {
	expr, err := Parse("100")
	require.NoError(t, err)
	assert.Equal(t, "100", expr.String())
}
