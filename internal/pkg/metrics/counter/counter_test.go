package counter

import (
	"context"
	"errors"
	"testing"

	"github.com/picme-app/picme/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	client := cache.GetClient()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	client.Del(ctx, postViewsKey)
	t.Cleanup(func() {
		client.Del(ctx, postViewsKey)
	})
	return client
}

func TestFlushKeepsViewsCountedDuringWrite(t *testing.T) {
	client := testClient(t)

	require.NoError(t, AddPostView(7))
	require.NoError(t, AddPostView(7))

	var flushed []int64
	err := flush(client, func(id uint64, delta int64) error {
		// A view arriving while the row update runs must survive the flush.
		require.NoError(t, AddPostView(uint(id)))
		flushed = append(flushed, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, flushed)

	remaining, err := client.HGet(context.Background(), postViewsKey, "7").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", remaining)
}

func TestFlushKeepsCounterWhenWriteFails(t *testing.T) {
	client := testClient(t)

	require.NoError(t, AddPostView(9))

	err := flush(client, func(id uint64, delta int64) error {
		return errors.New("connection refused")
	})
	require.NoError(t, err)

	remaining, err := client.HGet(context.Background(), postViewsKey, "9").Result()
	require.NoError(t, err)
	assert.Equal(t, "1", remaining)
}

func TestFlushDropsInvalidFields(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, postViewsKey, "not-a-post", 3).Err())
	require.NoError(t, client.HSet(ctx, postViewsKey, "11", "garbage").Err())

	err := flush(client, func(id uint64, delta int64) error {
		t.Fatalf("unexpected write for post %d", id)
		return nil
	})
	require.NoError(t, err)

	fields, err := client.HGetAll(ctx, postViewsKey).Result()
	require.NoError(t, err)
	assert.Empty(t, fields)
}
