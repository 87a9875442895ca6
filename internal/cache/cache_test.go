package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+mr.Addr(), "moamoa:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestSetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "shop:keyboard", []item{{Title: "키보드", Price: 59000}}, time.Minute))
	assert.True(t, mr.Exists("moamoa:shop:keyboard"))

	var got []item
	ok, err := c.Get(ctx, "shop:keyboard", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []item{{Title: "키보드", Price: 59000}}, got)
}

func TestMissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got item
	ok, err := c.Get(ctx, "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "short", item{Title: "a"}, time.Second))
	mr.FastForward(2 * time.Second)

	ok, err = c.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", item{}, 0))
	require.NoError(t, c.Delete(ctx, "k"))

	ok, err := c.Get(ctx, "k", &item{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCorruptValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("moamoa:bad", "{not json"))

	_, err := c.Get(context.Background(), "bad", &item{})
	assert.Error(t, err)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "://nope", "")
	assert.Error(t, err)
}
