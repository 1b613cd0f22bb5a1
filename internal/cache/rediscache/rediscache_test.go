package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_Del(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Del(ctx, "a", "b"))
	require.NoError(t, c.Del(ctx))
	require.False(t, mr.Exists("a"))
	require.False(t, mr.Exists("b"))
}

func TestRedisCache_Incr(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	ctx := context.Background()

	n, err := c.Incr(ctx, "dayview:gen")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "dayview:gen")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// the counter is readable as bytes
	b, ok, err := c.Get(ctx, "dayview:gen")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", string(b))
}

func TestRedisCache_Errors(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	require.NoError(t, c.Ping(context.Background()))
	mr.Close()

	ctx := context.Background()
	_, _, err := c.Get(ctx, "k")
	require.Error(t, err)
	require.Error(t, c.Set(ctx, "k", []byte("v"), 0))
	_, err = c.Incr(ctx, "k")
	require.Error(t, err)
	require.NoError(t, c.Close())
}
