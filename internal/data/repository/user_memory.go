package repository

import (
	"context"
	"sync"
	"time"

	"otp-verification/internal/data/entity"
	"otp-verification/pkg/utils"

	"github.com/google/uuid"
)

// MemoryUserRepository is an in-process identity directory. It backs the
// memory store driver and tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewMemoryUserRepository(emails ...string) *MemoryUserRepository {
	r := &MemoryUserRepository{users: make(map[string]*entity.User, len(emails))}
	for _, e := range emails {
		r.Add(e)
	}
	return r
}

// Add registers a committed account.
func (r *MemoryUserRepository) Add(email string) {
	now := time.Now()
	email = utils.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[email] = &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email: email,
	}
}

// Delete soft-deletes the account, freeing the email for a new signup.
func (r *MemoryUserRepository) Delete(email string) {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[utils.NormalizeEmail(email)]; ok {
		u.DeletedAt = &now
	}
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[email]
	return ok && u.DeletedAt == nil, nil
}
