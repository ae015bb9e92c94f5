package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"otp-verification/internal/data/entity"
	"otp-verification/internal/data/repository"
	"otp-verification/internal/testutil"
	"otp-verification/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issue(t *testing.T, f *fixture, email string) string {
	t.Helper()
	_, err := f.svc.Issue.Issue(context.Background(), email)
	require.NoError(t, err)
	return f.notifier.LastCode(t, email)
}

func record(t *testing.T, f *fixture, email string) *entity.VerificationRecord {
	t.Helper()
	rec, err := f.repo.Verification.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestVerify_WorkedExample(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	ctx := context.Background()

	code := issue(t, f, "a@x.com")

	f.clock.Advance(10 * time.Second)
	err := f.svc.Verify.Verify(ctx, "a@x.com", testutil.WrongCode(code))
	require.ErrorIs(t, err, usecase.ErrInvalidCode)
	assert.Equal(t, 1, record(t, f, "a@x.com").Attempts)

	f.clock.Advance(10 * time.Second)
	require.NoError(t, f.svc.Verify.Verify(ctx, "a@x.com", code))
	assert.True(t, record(t, f, "a@x.com").Verified)

	f.clock.Advance(10 * time.Second)
	err = f.svc.Verify.Verify(ctx, "a@x.com", code)
	require.ErrorIs(t, err, usecase.ErrAlreadyVerified)
	assert.Equal(t, 1, record(t, f, "a@x.com").Attempts)
}

func TestVerify_LockoutAfterMaxAttempts(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	ctx := context.Background()

	code := issue(t, f, "a@x.com")
	wrong := testutil.WrongCode(code)

	for i := 1; i <= 5; i++ {
		err := f.svc.Verify.Verify(ctx, "a@x.com", wrong)
		require.ErrorIs(t, err, usecase.ErrInvalidCode)
		assert.Equal(t, i, record(t, f, "a@x.com").Attempts)
	}

	// Even the right code is refused now, and the counter does not move.
	err := f.svc.Verify.Verify(ctx, "a@x.com", code)
	require.ErrorIs(t, err, usecase.ErrTooManyAttempts)

	rec := record(t, f, "a@x.com")
	assert.Equal(t, 5, rec.Attempts)
	assert.False(t, rec.Verified)
}

func TestVerify_ReissueClearsLockout(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	ctx := context.Background()

	code := issue(t, f, "a@x.com")
	for range 5 {
		_ = f.svc.Verify.Verify(ctx, "a@x.com", testutil.WrongCode(code))
	}

	f.clock.Advance(2 * time.Minute)
	fresh := issue(t, f, "a@x.com")

	rec := record(t, f, "a@x.com")
	assert.Zero(t, rec.Attempts)
	assert.False(t, rec.Verified)
	assert.NoError(t, f.svc.Verify.Verify(ctx, "a@x.com", fresh))
}

func TestVerify_OldCodeInvalidAfterReissue(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	ctx := context.Background()

	old := issue(t, f, "a@x.com")
	f.clock.Advance(2 * time.Minute)
	fresh := issue(t, f, "a@x.com")
	if old == fresh {
		t.Skip("codes collided")
	}

	err := f.svc.Verify.Verify(ctx, "a@x.com", old)
	assert.ErrorIs(t, err, usecase.ErrInvalidCode)
}

func TestVerify_Expiry(t *testing.T) {
	t.Run("at the deadline", func(t *testing.T) {
		f := newFixture(t, testutil.NewConfig())
		code := issue(t, f, "a@x.com")

		f.clock.Advance(10 * time.Minute)

		assert.NoError(t, f.svc.Verify.Verify(context.Background(), "a@x.com", code))
	})

	t.Run("past the deadline", func(t *testing.T) {
		f := newFixture(t, testutil.NewConfig())
		code := issue(t, f, "a@x.com")

		f.clock.Advance(10*time.Minute + time.Second)
		err := f.svc.Verify.Verify(context.Background(), "a@x.com", code)

		require.ErrorIs(t, err, usecase.ErrExpired)
		assert.Zero(t, record(t, f, "a@x.com").Attempts)
	})
}

func TestVerify_NotFound(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())

	err := f.svc.Verify.Verify(context.Background(), "nobody@x.com", "123456")

	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestVerify_InvalidInput(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())

	cases := []struct{ email, code string }{
		{"", "123456"},
		{"a@x.com", ""},
		{"  ", "  "},
	}
	for _, tc := range cases {
		err := f.svc.Verify.Verify(context.Background(), tc.email, tc.code)
		assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	}
}

func TestVerify_MalformedCodeCountsAsAttempt(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	issue(t, f, "a@x.com")

	err := f.svc.Verify.Verify(context.Background(), "a@x.com", "abc")

	require.ErrorIs(t, err, usecase.ErrInvalidCode)
	assert.Equal(t, 1, record(t, f, "a@x.com").Attempts)
}

func verifyConcurrently(f *fixture, n int, code string) []error {
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = f.svc.Verify.Verify(context.Background(), "a@x.com", code)
		}()
	}
	close(start)
	wg.Wait()

	return errs
}

func count(errs []error, target error) int {
	n := 0
	for _, err := range errs {
		if (target == nil && err == nil) || (target != nil && errors.Is(err, target)) {
			n++
		}
	}
	return n
}

func TestVerify_ConcurrentWrongCodesAreAllCounted(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	code := issue(t, f, "a@x.com")

	errs := verifyConcurrently(f, 5, testutil.WrongCode(code))

	assert.Equal(t, 5, count(errs, usecase.ErrInvalidCode))
	assert.Equal(t, 5, record(t, f, "a@x.com").Attempts)
}

func TestVerify_ConcurrentWrongCodesStopAtLimit(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	code := issue(t, f, "a@x.com")

	errs := verifyConcurrently(f, 20, testutil.WrongCode(code))

	assert.Equal(t, 5, count(errs, usecase.ErrInvalidCode))
	assert.Equal(t, 15, count(errs, usecase.ErrTooManyAttempts))
	assert.Equal(t, 5, record(t, f, "a@x.com").Attempts)
}

func TestVerify_ConcurrentCorrectCodesVerifyOnce(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	code := issue(t, f, "a@x.com")

	errs := verifyConcurrently(f, 8, code)

	assert.Equal(t, 1, count(errs, nil))
	assert.Equal(t, 7, count(errs, usecase.ErrAlreadyVerified))
	assert.True(t, record(t, f, "a@x.com").Verified)
}

// failingSwap reads through to the wrapped store but cannot write.
type failingSwap struct {
	repository.VerificationRepository
}

func (failingSwap) CompareAndSwap(context.Context, *entity.VerificationRecord, int64) error {
	return errors.New("connection reset")
}

func TestVerify_StoreFailureIsUnavailable(t *testing.T) {
	f := newFixture(t, testutil.NewConfig())
	code := issue(t, f, "a@x.com")
	f.repo.Verification = failingSwap{f.repo.Verification}

	err := f.svc.Verify.Verify(context.Background(), "a@x.com", testutil.WrongCode(code))

	require.ErrorIs(t, err, usecase.ErrUnavailable)
	assert.NotErrorIs(t, err, usecase.ErrInvalidCode)
}
