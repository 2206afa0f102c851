package dates_test

import (
	"testing"
	"time"

	"orderconsole/internal/dates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := dates.NewNormalizer(time.UTC)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "rfc3339 midnight", raw: "2024-03-01T00:00:00Z", want: "2024-03-01"},
		{name: "rfc3339 late in day", raw: "2024-03-01T23:59:59Z", want: "2024-03-01"},
		{name: "rfc3339 with nanos", raw: "2024-03-01T10:11:12.123456789Z", want: "2024-03-01"},
		{name: "flask jsonify", raw: "Fri, 01 Mar 2024 00:00:00 GMT", want: "2024-03-01"},
		{name: "already normalized", raw: "2024-03-01", want: "2024-03-01"},
		{name: "zone-less timestamp", raw: "2024-03-01T08:30:00", want: "2024-03-01"},
		{name: "space separated", raw: "2024-12-31 18:00:00", want: "2024-12-31"},
		{name: "us form", raw: "02/21/2022", want: "2022-02-21"},
		{name: "zero padding", raw: "2024-01-05T00:00:00Z", want: "2024-01-05"},
		{name: "surrounding whitespace", raw: "  2024-03-01 ", want: "2024-03-01"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizer_UsesLocalCalendar(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	n := dates.NewNormalizer(newYork)

	// 02:00 UTC is still the previous evening in New York.
	got, err := n.Normalize("2024-03-01T02:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got)

	tokyo := dates.NewNormalizer(time.FixedZone("JST", 9*60*60))
	got, err = tokyo.Normalize("2024-02-29T20:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got)
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := dates.NewNormalizer(time.FixedZone("UTC-7", -7*60*60))
	for _, raw := range []string{
		"2024-03-01T00:00:00Z",
		"2024-03-01T12:00:00+05:00",
		"Sun, 10 Nov 2024 23:00:00 GMT",
		"2024-07-04",
	} {
		once, err := n.Normalize(raw)
		require.NoError(t, err)
		twice, err := n.Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, raw)
	}
}

func TestNormalizer_Invalid(t *testing.T) {
	n := dates.NewNormalizer(time.UTC)
	for _, raw := range []string{"", "   ", "yesterday", "2024-13-45", "null"} {
		got, err := n.Normalize(raw)
		assert.ErrorIs(t, err, dates.ErrInvalidDate, raw)
		assert.Empty(t, got)
	}
}

func TestNormalizer_NilUsesLocal(t *testing.T) {
	var n *dates.Normalizer
	got, err := n.Normalize("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got)
}

func TestParse_ZoneLessUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	got, err := dates.Parse("2024-03-01", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 1, got.Day())
}
