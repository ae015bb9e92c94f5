package entity

import (
	"time"
)

// VerificationRecord is the single pending-verification state kept per
// normalized email. A new issuance replaces it wholesale.
type VerificationRecord struct {
	BaseNoDelete
	Email     string    `db:"email" json:"email"`
	CodeHash  string    `db:"code_hash" json:"code_hash"`
	IssuedAt  time.Time `db:"issued_at" json:"issued_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Verified  bool      `db:"verified" json:"verified"`
	Attempts  int       `db:"attempts" json:"attempts"`
	Version   int64     `db:"version" json:"version"`
}

// IsExpired reports whether now is strictly past ExpiresAt.
func (v *VerificationRecord) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// IsLocked reports whether the failure limit has been reached.
func (v *VerificationRecord) IsLocked(maxAttempts int) bool {
	return v.Attempts >= maxAttempts
}

// Clone returns a copy safe to hand out of a store.
func (v *VerificationRecord) Clone() *VerificationRecord {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
