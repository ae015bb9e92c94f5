package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"otp-verification/internal/data/entity"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const verificationKeyPrefix = "otp:verification:"

type redisVerificationRepository struct {
	rdb       redis.UniversalClient
	retention time.Duration
	log       *zap.Logger
}

// NewRedisVerificationRepository stores records as JSON under one key per
// email. Keys expire retention after the code does; Redis owns cleanup.
func NewRedisVerificationRepository(rdb redis.UniversalClient, retention time.Duration, log *zap.Logger) VerificationRepository {
	return &redisVerificationRepository{
		rdb:       rdb,
		retention: retention,
		log:       log.With(zap.String("repository", "verification_redis")),
	}
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func verificationKey(email string) string {
	return verificationKeyPrefix + email
}

func (r *redisVerificationRepository) Upsert(ctx context.Context, rec *entity.VerificationRecord) error {
	key := verificationKey(rec.Email)

	txf := func(tx *redis.Tx) error {
		var version int64 = 1
		old, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if old != nil {
			version = old.Version + 1
		}

		next := rec.Clone()
		next.Verified = false
		next.Attempts = 0
		next.Version = version

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode verification: %w", err)
		}

		ttl := time.Until(next.ExpiresAt) + r.retention
		if ttl <= 0 {
			ttl = r.retention
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		if err != nil {
			return err
		}

		*rec = *next
		return nil
	}

	// Concurrent issues race; last write wins, so retry until one commit lands.
	for i := 0; i < 5; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			r.log.Error("Failed to upsert verification",
				zap.Error(err),
				zap.String("email", rec.Email),
			)
			return fmt.Errorf("upsert verification for %s: %w", rec.Email, err)
		}
		return nil
	}

	return fmt.Errorf("upsert verification for %s: %w", rec.Email, ErrVersionConflict)
}

func (r *redisVerificationRepository) FindByEmail(ctx context.Context, email string) (*entity.VerificationRecord, error) {
	rec, err := r.load(ctx, r.rdb, verificationKey(email))
	if err != nil {
		r.log.Error("Failed to find verification",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find verification for %s: %w", email, err)
	}
	return rec, nil
}

func (r *redisVerificationRepository) CompareAndSwap(ctx context.Context, rec *entity.VerificationRecord, expectedVersion int64) error {
	key := verificationKey(rec.Email)

	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if current == nil || current.ID != rec.ID || current.Version != expectedVersion {
			return ErrVersionConflict
		}

		current.Verified = rec.Verified
		current.Attempts = rec.Attempts
		current.Version = expectedVersion + 1
		current.UpdatedAt = time.Now()

		data, err := json.Marshal(current)
		if err != nil {
			return fmt.Errorf("encode verification: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, data, redis.SetArgs{KeepTTL: true})
			return nil
		})
		if err != nil {
			return err
		}

		rec.Version = current.Version
		rec.UpdatedAt = current.UpdatedAt
		return nil
	}

	err := r.rdb.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, ErrVersionConflict):
		return ErrVersionConflict
	default:
		r.log.Error("Failed to update verification",
			zap.Error(err),
			zap.String("email", rec.Email),
			zap.Int64("version", expectedVersion),
		)
		return fmt.Errorf("update verification for %s: %w", rec.Email, err)
	}
}

func (r *redisVerificationRepository) load(ctx context.Context, c redisGetter, key string) (*entity.VerificationRecord, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec entity.VerificationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode verification: %w", err)
	}
	return &rec, nil
}
