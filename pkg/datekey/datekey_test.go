package datekey

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToKey_UsesLocalComponents(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	// 00:30 in Madrid is still the previous day in UTC
	lateNight := time.Date(2025, 3, 10, 0, 30, 0, 0, madrid)

	assert.Equal(t, Key("2025-03-10"), ToKey(lateNight))
	assert.Equal(t, Key("2025-03-09"), ToKey(lateNight.UTC()))
}

func TestToKey_ZeroPads(t *testing.T) {
	assert.Equal(t, Key("0987-01-05"), ToKey(time.Date(987, 1, 5, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, Key("2025-12-31"), ToKey(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)))
}

func TestFromKey_ReturnsLocalMidnight(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	got, err := FromKey("2024-02-29", madrid)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, madrid), got)
	assert.Equal(t, madrid, got.Location())
}

func TestFromKey_RejectsMalformed(t *testing.T) {
	for _, key := range []Key{"", "2025-3-10", "2025-03-1", "20250310", "2025-02-30", "2025-13-01", "abcd-ef-gh", "2025-03-10T00:00"} {
		t.Run(string(key), func(t *testing.T) {
			_, err := FromKey(key, time.UTC)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestRoundTrip_AllDays1900To2100(t *testing.T) {
	locations := []string{"UTC", "Europe/Madrid", "America/Sao_Paulo"}
	for _, name := range locations {
		loc, err := time.LoadLocation(name)
		require.NoError(t, err)

		t.Run(name, func(t *testing.T) {
			for d := time.Date(1900, 1, 1, 15, 0, 0, 0, loc); d.Year() <= 2100; d = d.AddDate(0, 0, 1) {
				back, err := FromKey(ToKey(d), loc)
				require.NoError(t, err)
				if !back.Equal(StartOfDay(d)) {
					t.Fatalf("round trip of %s gave %s", d, back)
				}
			}
		})
	}
}

func TestRoundTrip_LeapDay(t *testing.T) {
	d := time.Date(2024, 2, 29, 18, 45, 0, 0, time.Local)
	back, err := FromKey(ToKey(d), time.Local)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local), back)
}

func TestParse(t *testing.T) {
	k, err := Parse("2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, Key("2025-01-31"), k)
	assert.True(t, k.Valid())

	_, err = Parse("2025-1-31")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, Key("2023-02-29").Valid())
}

func TestKeyOrderingMatchesChronology(t *testing.T) {
	assert.True(t, Key("2024-12-31") < Key("2025-01-01"))
	assert.True(t, Key("2025-02-09") < Key("2025-02-10"))
	assert.True(t, Key("2025-09-30") < Key("2025-10-01"))
}

func TestAddDays(t *testing.T) {
	testCases := []struct {
		from Key
		n    int
		want Key
	}{
		{"2025-03-10", 1, "2025-03-11"},
		{"2024-02-28", 1, "2024-02-29"},
		{"2025-02-28", 1, "2025-03-01"},
		{"2025-12-31", 1, "2026-01-01"},
		{"2025-01-01", -1, "2024-12-31"},
		{"2025-03-30", 0, "2025-03-30"},
	}
	for _, tc := range testCases {
		got, err := tc.from.AddDays(tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s %+d", tc.from, tc.n)
	}
}

func TestDaysUntil(t *testing.T) {
	n, err := Key("2025-03-10").DaysUntil("2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Key("2024-01-01").DaysUntil("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, 366, n)

	n, err = Key("2025-03-12").DaysUntil("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, -2, n)
}

func TestDayBoundaries(t *testing.T) {
	d := time.Date(2025, 3, 10, 13, 14, 15, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), StartOfDay(d))
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 999000000, time.UTC), EndOfDay(d))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), FirstOfMonth(d))
}
