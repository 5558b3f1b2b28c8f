package service

import (
	"fmt"
	"strings"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/crypto/bcrypt"

	authDomain "github.com/betshield/betshield-api/internal/auth/domain"
	apperrors "github.com/betshield/betshield-api/internal/errors"
)

const (
	// AlgorithmBcrypt selects bcrypt for new hashes.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects argon2id for new hashes.
	AlgorithmArgon2id = "argon2id"

	// bcrypt ignores everything past 72 bytes.
	bcryptMaxPasswordBytes = 72
	// Upper bound for argon2id inputs. Larger inputs are a cheap way to burn CPU.
	argon2MaxPasswordBytes = 1024

	argon2Prefix = "$argon2id$"
)

// passwordHasher writes hashes with the configured algorithm and verifies
// hashes of either algorithm, dispatching on the stored hash prefix.
type passwordHasher struct {
	algorithm  string
	bcryptCost int
	argon2     *pwdhash.PasswordHasher
}

// NewPasswordHasher creates a PasswordHasher writing algorithm hashes.
// bcryptCost is only used for bcrypt and must be within bcrypt's accepted range.
func NewPasswordHasher(algorithm string, bcryptCost int) (PasswordHasher, error) {
	if algorithm != AlgorithmBcrypt && algorithm != AlgorithmArgon2id {
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	argon2, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create argon2id hasher")
	}

	return &passwordHasher{
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
		argon2:     argon2,
	}, nil
}

// Hash hashes plain with the configured algorithm.
func (h *passwordHasher) Hash(plain string) (string, error) {
	switch h.algorithm {
	case AlgorithmArgon2id:
		if len(plain) > argon2MaxPasswordBytes {
			return "", authDomain.ErrPasswordTooLong
		}
		hashed, err := h.argon2.Hash([]byte(plain))
		if err != nil {
			return "", apperrors.Wrap(err, "failed to hash password")
		}
		return hashed, nil
	default:
		if len(plain) > bcryptMaxPasswordBytes {
			return "", authDomain.ErrPasswordTooLong
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.bcryptCost)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to hash password")
		}
		return string(hashed), nil
	}
}

// Verify compares plain against hashed.
func (h *passwordHasher) Verify(plain, hashed string) bool {
	switch {
	case strings.HasPrefix(hashed, argon2Prefix):
		if len(plain) > argon2MaxPasswordBytes {
			return false
		}
		ok, err := h.argon2.Verify([]byte(plain), hashed)
		return err == nil && ok
	case isBcryptHash(hashed):
		if len(plain) > bcryptMaxPasswordBytes {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
	default:
		return false
	}
}

func isBcryptHash(hashed string) bool {
	return strings.HasPrefix(hashed, "$2a$") ||
		strings.HasPrefix(hashed, "$2b$") ||
		strings.HasPrefix(hashed, "$2y$")
}
