//go:build unit

package reservation_test

import (
	"regexp"
	"testing"
	"time"

	"sosiego-api/internal/domain/reservation"

	"github.com/stretchr/testify/assert"
)

var codePattern = regexp.MustCompile(`^CC\d{8}[A-Z0-9]{4}$`)

func TestGenerateConfirmationCode(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 30, 45, 0, time.UTC)

	t.Run("format", func(t *testing.T) {
		code := reservation.GenerateConfirmationCode(now)
		assert.Len(t, code, 14)
		assert.Regexp(t, codePattern, code)
	})

	t.Run("embeds the clock's trailing digits", func(t *testing.T) {
		code := reservation.GenerateConfirmationCode(now)
		want := now.UnixMilli() % 100000000
		assert.Contains(t, code, "CC", code)
		assert.Equal(t, want, mustParseDigits(t, code[2:10]))
	})

	t.Run("random suffix varies", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 50; i++ {
			seen[reservation.GenerateConfirmationCode(now)] = true
		}
		// Same timestamp, so only the suffix distinguishes codes. 50 draws
		// over a 36^4 space colliding down to a single value is effectively
		// impossible.
		assert.Greater(t, len(seen), 1)
	})

	t.Run("no duplicates across a 10k batch", func(t *testing.T) {
		seen := make(map[string]bool, 10000)
		at := now
		for i := 0; i < 10000; i++ {
			code := reservation.GenerateConfirmationCode(at)
			assert.False(t, seen[code], "duplicate code %s at draw %d", code, i)
			seen[code] = true
			at = at.Add(time.Millisecond)
		}
	})
}

func mustParseDigits(t *testing.T, s string) int64 {
	t.Helper()
	var n int64
	for _, r := range s {
		assert.True(t, r >= '0' && r <= '9')
		n = n*10 + int64(r-'0')
	}
	return n
}
