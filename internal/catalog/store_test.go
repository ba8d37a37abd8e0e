package catalog

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  Harina PAN ")
	require.NoError(t, err)
	assert.Equal(t, "Harina PAN", name)

	name, err = NormalizeName(" Az\xfacar ")
	require.NoError(t, err)
	assert.Equal(t, "Az\uFFFDcar", name)

	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := NormalizeName(in)
		assert.True(t, errors.Is(err, ErrValidation), "input %q", in)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"float", 2.5, "2.5", true},
		{"int", 3, "3", true},
		{"json number", json.Number("12.75"), "12.75", true},
		{"numeric string", " 4.10 ", "4.1", true},
		{"nil", nil, "0", false},
		{"empty string", "", "0", false},
		{"garbage", "abc", "0", false},
		{"negative", -1.5, "0", false},
		{"slice", []int{1}, "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestNormalizePrice(t *testing.T) {
	assert.True(t, NormalizePrice(decimal.NewFromInt(-3)).IsZero())
	assert.True(t, NormalizePrice(decimal.NewFromFloat(1.25)).Equal(decimal.NewFromFloat(1.25)))
}

func TestMatchesFilter(t *testing.T) {
	assert.True(t, MatchesFilter("Harina PAN", ""))
	assert.True(t, MatchesFilter("Harina PAN", "harina"))
	assert.True(t, MatchesFilter("Harina PAN", "PAN"))
	assert.False(t, MatchesFilter("Harina PAN", "arroz"))
}
