package usecase

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeLength = 6
	codeMin    = 100000
	codeSpan   = 900000 // codes fall in [100000, 999999]
)

// generateCode returns a uniformly random 6-digit code. The range starts at
// 100000 so there is never a leading zero to lose.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}

func hashCode(code string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return string(hash), nil
}

// wellFormed reports whether code could have been issued at all. Anything
// else is a mismatch without paying for a bcrypt comparison.
func wellFormed(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// matchCode compares a submitted code against the stored digest. A mismatch
// is (false, nil); a corrupt digest is an error.
func matchCode(hash, code string) (bool, error) {
	if !wellFormed(code) {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
	switch err {
	case nil:
		return true, nil
	case bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, fmt.Errorf("compare otp: %w", err)
	}
}
