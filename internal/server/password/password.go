// Package password hashes and verifies user passwords.
//
// Hashes are self-describing strings: bcrypt hashes start with "$2a$",
// argon2id hashes use the PHC layout
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<key>
//
// so a store may hold hashes of either kind and Verify picks the right one.
package password

import (
	"errors"
	"fmt"
	"strings"
)

// Algorithms accepted by New.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var (
	ErrUnknownAlgorithm = errors.New("unknown password algorithm")
	ErrInvalidParams    = errors.New("invalid password hashing parameters")
	ErrInvalidHash      = errors.New("invalid password hash")
)

// Hasher turns plaintext into a salted one-way hash and checks candidates
// against it. Verify never reports why a check failed.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Config selects the algorithm and its cost parameters.
type Config struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2idParams
}

// New validates cfg and returns the matching Hasher. The returned hasher
// also verifies hashes produced by the other algorithm, so switching the
// configured algorithm does not lock out existing users.
func New(cfg Config) (Hasher, error) {
	switch strings.ToLower(cfg.Algorithm) {
	case "", AlgorithmBcrypt:
		b, err := NewBcryptHasher(cfg.BcryptCost)
		if err != nil {
			return nil, err
		}
		return &multiHasher{primary: b, argon: NewArgon2idHasher(defaultArgon2(cfg.Argon2))}, nil
	case AlgorithmArgon2id:
		a, err := newValidatedArgon2(cfg.Argon2)
		if err != nil {
			return nil, err
		}
		return &multiHasher{primary: a, argon: a}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.Algorithm)
	}
}

// multiHasher hashes with primary and verifies by hash prefix.
type multiHasher struct {
	primary Hasher
	argon   *Argon2idHasher
}

func (m *multiHasher) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

func (m *multiHasher) Verify(plaintext, hash string) bool {
	if strings.HasPrefix(hash, "$argon2id$") {
		return m.argon.Verify(plaintext, hash)
	}
	return bcryptVerify(plaintext, hash)
}
