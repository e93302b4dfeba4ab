package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, err := c.Get(ctx, "t1", 0, "stats")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "t1", 0, "stats", []byte(`{"a":1}`)))
	require.NoError(t, c.Set(ctx, "t2", 0, "stats", []byte(`{"b":2}`)))

	got, err := c.Get(ctx, "t1", 0, "stats")
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, c.Invalidate(ctx, "t1"))
	version, err := c.Version(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
	_, err = c.Get(ctx, "t1", version, "stats")
	require.ErrorIs(t, err, ErrMiss)

	got, err = c.Get(ctx, "t2", 0, "stats")
	require.NoError(t, err)
	require.Equal(t, `{"b":2}`, string(got))
}

func TestMemory_SetAfterInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	before, err := c.Version(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "t1"))
	require.NoError(t, c.Set(ctx, "t1", before, "stats", []byte("old")))

	after, err := c.Version(ctx, "t1")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	_, err = c.Get(ctx, "t1", after, "stats")
	require.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "t1", before, "stats")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(30 * time.Second)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "t1", 0, "top:5", []byte("x")))
	now = now.Add(29 * time.Second)
	_, err := c.Get(ctx, "t1", 0, "top:5")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "t1", 0, "top:5")
	require.ErrorIs(t, err, ErrMiss)
}

func TestMemory_SetSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Second)
	c.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, c.Set(ctx, "t1", 0, fmt.Sprintf("trend:%d:%d", i, i+1), []byte("x")))
	}
	require.NoError(t, c.Set(ctx, "t2", 0, "stats", []byte("x")))
	require.Len(t, c.tenants["t1"].entries, 1000)

	now = now.Add(time.Hour)
	require.NoError(t, c.Set(ctx, "t1", 0, "stats", []byte("y")))
	require.Len(t, c.tenants["t1"].entries, 1)
	require.Empty(t, c.tenants["t2"].entries)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "t", 0, "k", value))
	value[0] = 'z'

	got, err := c.Get(ctx, "t", 0, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New(context.Background(), Options{TTL: time.Second})
	require.NoError(t, err)
	_, ok := c.(*Memory)
	require.True(t, ok)
}
