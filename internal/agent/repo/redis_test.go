package repo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivy-assistant/server/internal/agent/model"
	errx "github.com/ivy-assistant/server/internal/core/error"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisStore(rdb)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	_, store := setupTestRedis(t)

	b, ok, err := store.Load(context.Background(), "conversation:nope:state")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, b)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", []byte(`{"a":1}`), time.Minute))

	b, ok, err := store.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(b))
	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestRedisStore_ZeroTTLKeepsKey(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "profile", []byte("x"), 0))
	mr.FastForward(48 * time.Hour)

	_, ok, err := store.Load(ctx, "profile")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_ExpiredKeyIsAbsent(t *testing.T) {
	mr, store := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "conv", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err := store.Load(ctx, "conv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_BackendFailureIsStorageError(t *testing.T) {
	mr, store := setupTestRedis(t)
	mr.SetError("LOADING")

	_, _, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, errx.KindStorage, errx.KindOf(err))
}

func TestStateRepository_RoundTripThroughRedis(t *testing.T) {
	_, store := setupTestRedis(t)
	ctx := context.Background()
	r := NewStateRepository(store, model.ConversationConfig{TTL: time.Hour})

	s, err := r.LoadConversation(ctx, "c1")
	require.NoError(t, err)
	require.Empty(t, s.Stack)

	s.Push(model.NewFrame(model.DialogMainMenu, nil))
	s.Push(model.StackFrame{
		DialogID:      model.DialogWeatherLocale,
		Cursor:        1,
		Local:         map[string]any{"phase": "prompting_city", "country": "BE"},
		PendingPrompt: model.PromptCity,
	})
	s.TurnCounter = 3
	require.NoError(t, r.SaveConversation(ctx, s))

	got, err := r.LoadConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []model.DialogID{model.DialogMainMenu, model.DialogWeatherLocale}, got.DialogIDs())
	assert.Equal(t, int64(3), got.TurnCounter)
	assert.Equal(t, model.PromptCity, got.Top().PendingPrompt)
	assert.Equal(t, "BE", got.Top().Local["country"])
}
