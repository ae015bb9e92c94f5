package repository

import (
	"context"
	"sync"
	"time"

	"otp-verification/internal/data/entity"
)

// MemoryVerificationRepository keeps records in a map guarded by one mutex.
// It is enough for a single-process deployment.
type MemoryVerificationRepository struct {
	mu      sync.Mutex
	records map[string]*entity.VerificationRecord
}

func NewMemoryVerificationRepository() *MemoryVerificationRepository {
	return &MemoryVerificationRepository{
		records: make(map[string]*entity.VerificationRecord),
	}
}

func (r *MemoryVerificationRepository) Upsert(ctx context.Context, rec *entity.VerificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var version int64 = 1
	if old, ok := r.records[rec.Email]; ok {
		version = old.Version + 1
	}

	rec.Verified = false
	rec.Attempts = 0
	rec.Version = version
	r.records[rec.Email] = rec.Clone()
	return nil
}

func (r *MemoryVerificationRepository) FindByEmail(ctx context.Context, email string) (*entity.VerificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.records[email].Clone(), nil
}

func (r *MemoryVerificationRepository) CompareAndSwap(ctx context.Context, rec *entity.VerificationRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.records[rec.Email]
	if !ok || current.ID != rec.ID || current.Version != expectedVersion {
		return ErrVersionConflict
	}

	current.Verified = rec.Verified
	current.Attempts = rec.Attempts
	current.Version = expectedVersion + 1
	current.UpdatedAt = time.Now()

	rec.Version = current.Version
	rec.UpdatedAt = current.UpdatedAt
	return nil
}
