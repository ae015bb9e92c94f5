package database

import (
	"context"
	"fmt"
)

// The users table belongs to the account service; only email_verifications
// is owned here.
const verificationSchema = `
	CREATE TABLE IF NOT EXISTS email_verifications (
		id          UUID        NOT NULL,
		email       TEXT        PRIMARY KEY,
		code_hash   TEXT        NOT NULL,
		issued_at   TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		verified    BOOLEAN     NOT NULL DEFAULT false,
		attempts    INTEGER     NOT NULL DEFAULT 0 CHECK (attempts >= 0),
		version     BIGINT      NOT NULL DEFAULT 1,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_email_verifications_expires_at
		ON email_verifications (expires_at);
`

// EnsureSchema creates the verification table when it is missing.
func EnsureSchema(ctx context.Context, db PgxIface) error {
	if _, err := db.Exec(ctx, verificationSchema); err != nil {
		return fmt.Errorf("ensure verification schema: %w", err)
	}
	return nil
}
