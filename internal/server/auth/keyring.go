package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MinSecretLength is the shortest signing secret accepted from a source.
const MinSecretLength = 8

// ErrSecretTooShort is returned when a source yields fewer than
// MinSecretLength bytes.
var ErrSecretTooShort = errors.New("signing secret too short")

// Keyring holds the process-wide signing secret. It is loaded once at
// startup and may be reloaded from its source to rotate the secret; tokens
// signed with the previous secret stop verifying after a reload.
type Keyring struct {
	mu     sync.RWMutex
	secret []byte
	source KeySource
}

// NewKeyring loads the initial secret from source.
func NewKeyring(ctx context.Context, source KeySource) (*Keyring, error) {
	k := &Keyring{source: source}
	if err := k.Reload(ctx); err != nil {
		return nil, err
	}
	return k, nil
}

// Secret returns a copy of the current secret.
func (k *Keyring) Secret() []byte {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]byte, len(k.secret))
	copy(out, k.secret)
	return out
}

// Reload replaces the secret with a fresh read from the source. On error
// the current secret stays in place.
func (k *Keyring) Reload(ctx context.Context) error {
	secret, err := k.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load signing secret: %w", err)
	}
	if len(secret) < MinSecretLength {
		return ErrSecretTooShort
	}

	k.mu.Lock()
	k.secret = secret
	k.mu.Unlock()
	return nil
}
