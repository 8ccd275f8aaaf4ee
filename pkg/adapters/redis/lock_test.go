package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/memory"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/adapters/redis"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/domain"
	"github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "resource1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:resource1"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:resource1"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:") // Same prefix -> contention
	ctx := context.Background()
	key := "shared-resource"

	unlock1, err := locker1.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker2.Lock(ctxTimeout, key, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, key, 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()
	assert.True(t, mr.Exists("test:lock:shared-resource"))
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldHolder(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlockOld, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	unlockNew, err := locker.Lock(ctx, "k", 5*time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, unlockOld(ctx), redis.ErrLockNotHeld)
	assert.True(t, mr.Exists("test:lock:k"), "new holder keeps the lock")
	require.NoError(t, unlockNew(ctx))
}

func TestRedisLocker_WithManager(t *testing.T) {
	_, client := newClient(t)
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(redis.NewLocker(client, "test:")))
	ctx := context.Background()

	s, err := mgr.UpdateOrCreate(ctx, "u1", func(s *domain.Session) (*domain.Session, error) {
		s.Fields["a"] = "b"
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", s.Fields["a"])

	keys, err := client.Keys(ctx, "test:lock:*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys, "lock released after the update")
}
