package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"otp-verification/internal/data/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	redisKey       = "otp:verification:a@x.com"
	redisRetention = 24 * time.Hour
)

func newRedisRepo(t *testing.T) (repository.VerificationRepository, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return repository.NewRedisVerificationRepository(rdb, redisRetention, zaptest.NewLogger(t)), m
}

func TestRedisVerification_FindMissing(t *testing.T) {
	repo, _ := newRedisRepo(t)

	rec, err := repo.FindByEmail(context.Background(), "a@x.com")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRedisVerification_FindCorrupt(t *testing.T) {
	repo, m := newRedisRepo(t)
	require.NoError(t, m.Set(redisKey, "{not json"))

	_, err := repo.FindByEmail(context.Background(), "a@x.com")

	assert.ErrorContains(t, err, "decode verification")
}

func TestRedisVerification_UpsertReplaces(t *testing.T) {
	repo, m := newRedisRepo(t)
	ctx := context.Background()

	first := newRecord("a@x.com")
	require.NoError(t, repo.Upsert(ctx, first))
	assert.EqualValues(t, 1, first.Version)

	first.Attempts = 3
	require.NoError(t, repo.CompareAndSwap(ctx, first, 1))

	second := newRecord("a@x.com")
	second.Attempts = 4
	second.Verified = true
	require.NoError(t, repo.Upsert(ctx, second))
	assert.EqualValues(t, 3, second.Version)

	got, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.EqualValues(t, 3, got.Version)
	assert.Zero(t, got.Attempts)
	assert.False(t, got.Verified)

	ttl := m.TTL(redisKey)
	assert.Greater(t, ttl, redisRetention)
	assert.LessOrEqual(t, ttl, redisRetention+10*time.Minute)
}

func TestRedisVerification_CompareAndSwap(t *testing.T) {
	repo, m := newRedisRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, newRecord("a@x.com")))
	ttl := m.TTL(redisKey)

	a, _ := repo.FindByEmail(ctx, "a@x.com")
	b, _ := repo.FindByEmail(ctx, "a@x.com")

	a.Attempts++
	require.NoError(t, repo.CompareAndSwap(ctx, a, a.Version))
	assert.EqualValues(t, 2, a.Version)
	assert.Equal(t, ttl, m.TTL(redisKey), "compare-and-swap keeps the key TTL")

	b.Attempts++
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, b, b.Version), repository.ErrVersionConflict)

	got, _ := repo.FindByEmail(ctx, "a@x.com")
	assert.Equal(t, 1, got.Attempts)
	assert.EqualValues(t, 2, got.Version)
}

func TestRedisVerification_CompareAndSwapMissing(t *testing.T) {
	repo, _ := newRedisRepo(t)

	err := repo.CompareAndSwap(context.Background(), newRecord("a@x.com"), 1)

	assert.ErrorIs(t, err, repository.ErrVersionConflict)
}

func TestRedisVerification_CompareAndSwapAfterReissue(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, newRecord("a@x.com")))
	stale, _ := repo.FindByEmail(ctx, "a@x.com")

	// Same version number, different issuance.
	fresh := newRecord("a@x.com")
	require.NoError(t, repo.Upsert(ctx, fresh))
	stale.Version = fresh.Version

	stale.Verified = true
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, stale, stale.Version), repository.ErrVersionConflict)

	got, _ := repo.FindByEmail(ctx, "a@x.com")
	assert.Equal(t, fresh.ID, got.ID)
	assert.False(t, got.Verified)
}

func TestRedisVerification_ConcurrentFailedAttempts(t *testing.T) {
	repo, _ := newRedisRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, newRecord("a@x.com")))

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = incrementAttempts(ctx, repo, "a@x.com")
		}()
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	got, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, n, got.Attempts)
	assert.EqualValues(t, n+1, got.Version)
}

// incrementAttempts records one failed attempt, rereading on conflict.
func incrementAttempts(ctx context.Context, repo repository.VerificationRepository, email string) error {
	for range 100 {
		rec, err := repo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		rec.Attempts++
		err = repo.CompareAndSwap(ctx, rec, rec.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		return err
	}
	return repository.ErrVersionConflict
}
