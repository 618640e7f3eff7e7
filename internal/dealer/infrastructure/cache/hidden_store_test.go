package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/leadmarket/pkg/cache"
)

func newTestStore(t *testing.T) (*hiddenLeadStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &hiddenLeadStore{redis: cache.NewFromClient(client)}, mr
}

func TestHiddenLeadStore_HideAndList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Hide(ctx, 7, 101))
	require.NoError(t, store.Hide(ctx, 7, 102))
	// 重复隐藏是幂等的
	require.NoError(t, store.Hide(ctx, 7, 101))

	ids, err := store.Hidden(ctx, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{101, 102}, ids)

	// 其他 dealer 的列表互不影响
	others, err := store.Hidden(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestHiddenLeadStore_Unhide(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Hide(ctx, 7, 101))
	require.NoError(t, store.Unhide(ctx, 7, 101))
	// 未隐藏的 lead 取消隐藏无副作用
	require.NoError(t, store.Unhide(ctx, 7, 999))

	ids, err := store.Hidden(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestHiddenLeadStore_SkipsCorruptMembers(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Hide(ctx, 7, 101))
	_, err := mr.SetAdd("dealer:7:hidden_leads", "not-a-number")
	require.NoError(t, err)

	ids, err := store.Hidden(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint{101}, ids)
}
