package invoices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusUnpaid, StatusProcessing}, {StatusUnpaid, StatusPaid}, {StatusUnpaid, StatusCancelled},
		{StatusUnpaid, StatusExpired}, {StatusProcessing, StatusPaid}, {StatusProcessing, StatusCancelled},
		{StatusProcessing, StatusExpired}, {StatusPaid, StatusDone},
	}
	all := []Status{StatusUnpaid, StatusProcessing, StatusPaid, StatusDone, StatusExpired, StatusCancelled}

	count := 0
	for _, from := range all {
		for _, to := range all {
			if CanTransition(from, to) {
				count++
			}
		}
	}
	assert.Equal(t, len(allowed), count)
	for _, edge := range allowed {
		assert.True(t, CanTransition(edge[0], edge[1]), "%s -> %s", edge[0], edge[1])
	}
	assert.False(t, CanTransition("BOGUS", StatusPaid))
}

func TestStatusHelpers(t *testing.T) {
	st, ok := ParseStatus(" cancelled ")
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, st)
	_, ok = ParseStatus("SHIPPED")
	assert.False(t, ok)

	assert.True(t, StatusDone.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
	assert.True(t, StatusProcessing.IsOpen())
}

func TestNewCode(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewCode(now)
		require.NoError(t, err)
		assert.Regexp(t, `^INV-20260314-[A-Z0-9]{6}$`, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
	assert.False(t, ValidCode("INV-2026-ABC"))
}
