package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return NewRedisStore(client), mr, cleanup
}

func newSession(ttl time.Duration) Session {
	now := time.Now().UTC().Truncate(time.Second)
	return Session{
		ID:        uuid.NewString(),
		AdminID:   uuid.New(),
		Username:  "admin",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestRedisStore_SaveGetDelete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	s := newSession(time.Hour)
	require.NoError(t, store.Save(ctx, s))
	assert.True(t, mr.Exists(sessionKey(s.ID)))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Username, got.Username)
	assert.Equal(t, s.AdminID, got.AdminID)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ExpiresWithToken(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	s := newSession(10 * time.Minute)
	require.NoError(t, store.Save(ctx, s))

	ttl := mr.TTL(sessionKey(s.ID))
	assert.True(t, ttl > 9*time.Minute && ttl <= 10*time.Minute, "ttl %s", ttl)

	mr.FastForward(11 * time.Minute)
	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_RejectsExpiredSession(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	err := store.Save(context.Background(), newSession(-time.Minute))
	assert.Error(t, err)
}

func TestRedisStore_InvalidPayload(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(sessionKey("broken"), "{not json"))
	_, err := store.Get(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DropsExpired(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	m.now = func() time.Time { return now }

	s := newSession(time.Minute)
	s.ExpiresAt = now.Add(time.Minute)
	require.NoError(t, m.Save(ctx, s))

	_, err := m.Get(ctx, s.ID)
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
