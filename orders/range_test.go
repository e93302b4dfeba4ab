package orders_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/store-insights/internal/errors"
	"github.com/jrsteele09/store-insights/orders"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	t.Run("missing bound disables filter", func(t *testing.T) {
		r, err := orders.ParseRange("2024-01-01", "")
		require.NoError(t, err)
		require.False(t, r.Active())
		require.True(t, r.Contains(time.Now()))
	})

	t.Run("date only end covers whole day", func(t *testing.T) {
		r, err := orders.ParseRange("2024-01-01", "2024-01-31")
		require.NoError(t, err)
		require.True(t, r.Active())
		require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.From)
		require.True(t, r.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
		require.False(t, r.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("rfc3339 bounds are exact", func(t *testing.T) {
		r, err := orders.ParseRange("2024-01-01T10:00:00Z", "2024-01-01T12:00:00+01:00")
		require.NoError(t, err)
		require.True(t, r.Contains(time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)))
		require.False(t, r.Contains(time.Date(2024, 1, 1, 11, 0, 1, 0, time.UTC)))
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := orders.ParseRange("yesterday", "2024-01-01")
		require.ErrorIs(t, err, errors.ErrInvalidDate)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := orders.ParseRange("2024-02-01", "2024-01-01")
		require.ErrorIs(t, err, errors.ErrInvalidDate)
	})
}
