package keyring

import (
	"context"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required size of a sealing key in bytes.
const KeySize = chacha20poly1305.KeySize

// Sealed wraps an inner Keyring with XChaCha20-Poly1305 so values are
// encrypted at rest. The slot key is bound in as associated data, so a value
// copied between slots fails to open.
type Sealed struct {
	inner Keyring
	key   [KeySize]byte
}

// NewSealed returns a Keyring that seals values with the given 32-byte key
// before handing them to inner.
func NewSealed(inner Keyring, key [KeySize]byte) *Sealed {
	return &Sealed{inner: inner, key: key}
}

// NewSealingKey generates a fresh random sealing key.
func NewSealingKey() ([KeySize]byte, error) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("generating sealing key: %w", err)
	}
	return key, nil
}

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("keyring: sealed value for %q is truncated", key)
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("keyring: opening sealed value for %q: %w", key, err)
	}
	return plaintext, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("keyring: generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, value, []byte(key))
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}
