//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"sosiego-api/internal/domain/reservation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Run("parses ISO date", func(t *testing.T) {
		d, err := reservation.ParseDate("2026-06-10")
		require.NoError(t, err)
		assert.Equal(t, "2026-06-10", d.String())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := []string{"", "10/06/2026", "2026-6-1", "2026-13-01", "not a date"}
		for _, in := range cases {
			_, err := reservation.ParseDate(in)
			assert.Error(t, err, "input %q", in)
		}
	})
}

func TestDateOf(t *testing.T) {
	t.Run("reduces timestamp to its calendar day", func(t *testing.T) {
		ts := time.Date(2026, time.June, 10, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, "2026-06-10", reservation.DateOf(ts).String())
	})

	t.Run("uses the timestamp's own location", func(t *testing.T) {
		// 2026-06-10 23:00 in UTC-3 is 2026-06-11 02:00 UTC; the local day wins
		loc := time.FixedZone("ART", -3*60*60)
		ts := time.Date(2026, time.June, 10, 23, 0, 0, 0, loc)
		assert.Equal(t, "2026-06-10", reservation.DateOf(ts).String())
	})
}

func TestNewStay(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		stay, err := reservation.NewStay(
			reservation.NewDate(2026, time.June, 10),
			reservation.NewDate(2026, time.June, 15),
		)
		require.NoError(t, err)
		assert.Equal(t, 5, stay.Nights())
	})

	t.Run("check-out equal to check-in", func(t *testing.T) {
		_, err := reservation.NewStay(
			reservation.NewDate(2026, time.June, 10),
			reservation.NewDate(2026, time.June, 10),
		)
		require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
	})

	t.Run("check-out before check-in", func(t *testing.T) {
		_, err := reservation.NewStay(
			reservation.NewDate(2026, time.June, 15),
			reservation.NewDate(2026, time.June, 10),
		)
		require.ErrorIs(t, err, reservation.ErrInvalidDateRange)
	})
}

func TestStayOverlaps(t *testing.T) {
	mustStay := func(inDay, outDay int) reservation.Stay {
		stay, err := reservation.NewStay(
			reservation.NewDate(2026, time.June, inDay),
			reservation.NewDate(2026, time.June, outDay),
		)
		require.NoError(t, err)
		return stay
	}

	cases := []struct {
		name     string
		a, b     reservation.Stay
		overlaps bool
	}{
		{name: "partial overlap", a: mustStay(10, 15), b: mustStay(14, 20), overlaps: true},
		{name: "contained interval", a: mustStay(10, 20), b: mustStay(12, 14), overlaps: true},
		{name: "identical interval", a: mustStay(10, 15), b: mustStay(10, 15), overlaps: true},
		{name: "adjacent same-day turnover", a: mustStay(10, 15), b: mustStay(15, 20), overlaps: false},
		{name: "disjoint", a: mustStay(10, 12), b: mustStay(20, 25), overlaps: false},
		{name: "single night against its check-out day", a: mustStay(10, 11), b: mustStay(11, 12), overlaps: false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.overlaps, c.a.Overlaps(c.b))
			// overlap is symmetric
			assert.Equal(t, c.overlaps, c.b.Overlaps(c.a))
		})
	}
}

func TestStayContains(t *testing.T) {
	stay, err := reservation.NewStay(
		reservation.NewDate(2026, time.June, 10),
		reservation.NewDate(2026, time.June, 15),
	)
	require.NoError(t, err)

	assert.True(t, stay.Contains(reservation.NewDate(2026, time.June, 10)), "check-in day is occupied")
	assert.True(t, stay.Contains(reservation.NewDate(2026, time.June, 14)), "last night is occupied")
	assert.False(t, stay.Contains(reservation.NewDate(2026, time.June, 15)), "check-out day is free")
	assert.False(t, stay.Contains(reservation.NewDate(2026, time.June, 9)))
}

func TestStayNights(t *testing.T) {
	cases := []struct {
		name           string
		inDay, outDay  int
		expectedNights int
	}{
		{name: "single night", inDay: 10, outDay: 11, expectedNights: 1},
		{name: "five nights", inDay: 10, outDay: 15, expectedNights: 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			stay, err := reservation.NewStay(
				reservation.NewDate(2026, time.June, c.inDay),
				reservation.NewDate(2026, time.June, c.outDay),
			)
			require.NoError(t, err)
			assert.Equal(t, c.expectedNights, stay.Nights())
		})
	}
}
