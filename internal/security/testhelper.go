package security

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"time"
)

// NewTestTokenProvider returns a TokenProvider backed by a fresh ECDSA P-256
// key pair. For unit tests only; every call produces a new key, so tokens do
// not validate across providers.
func NewTestTokenProvider() (*TokenProvider, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(key, key.Public(), "test-issuer", "test-audience", 15*time.Minute, 24*time.Hour), nil
}
