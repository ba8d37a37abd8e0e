package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStampAdvances(t *testing.T) {
	m := NewManual(time.Date(2026, 10, 17, 9, 30, 5, 0, time.UTC))
	first := Stamp(m)
	m.Advance(time.Second)

	assert.Equal(t, "20261017_093005", first)
	assert.Equal(t, "20261017_093006", Stamp(m))
	assert.Less(t, first, Stamp(m))
}

func TestParseStamp(t *testing.T) {
	got, ok := ParseStamp("backup_20261017_093005.json", "backup_")
	require.True(t, ok)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.October, got.Month())
	assert.Equal(t, 5, got.Second())

	for _, base := range []string{
		"backup_notes.json",
		"backup_2026.json",
		"export_20261017_093005.json",
		"backup_20261317_093005.json",
	} {
		_, ok := ParseStamp(base, "backup_")
		assert.False(t, ok, base)
	}
}
