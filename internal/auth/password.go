// PASSWORD STORAGE
// Passwords are stored as bcrypt hashes only. bcrypt is deliberately slow
// and salts every hash with fresh random bytes, so equal passwords produce
// different hashes and the salt lives inside the hash string itself.
//
// Hash format:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor; about 250ms per hash on current
// hardware.
//
// Each step up doubles the work. Aim for 200-300ms on production hardware:
// lower makes offline cracking cheap, higher makes login slow and lets a
// burst of sign-ins saturate the CPU.
const defaultCost = 12

// PasswordService hashes and verifies passwords with bcrypt. The cost is a
// field so tests can use the minimum.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests in other packages; pass
// bcrypt.MinCost. Never use a low cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// ErrPasswordMismatch is returned by Verify for a wrong password.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// Hash returns the bcrypt hash of plaintext.
//
// bcrypt only reads the first 72 bytes of its input. Two long passwords
// sharing a 72-byte prefix would hash the same, so longer input is rejected
// instead of silently truncated. The limit is in bytes, not runes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch
// when it does not.
//
// CompareHashAndPassword reads the cost and salt back out of hash, so
// hashes made with an older cost still verify after defaultCost changes.
// The final comparison is constant time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
