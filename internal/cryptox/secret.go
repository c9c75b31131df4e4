// Package cryptox holds the primitives used to issue and check submitter
// shared secrets. Secrets are never stored: only a random salt and an
// argon2id verifier derived from the secret are persisted.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

const (
	// SecretSize is the number of random bytes in a secret; the hex form is
	// twice as long (32 characters).
	SecretSize = 16
	// SaltSize is the length of the per-credential salt.
	SaltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// randRead is a test seam for crypto/rand.Read.
var randRead = rand.Read

// MakeRandHexString generates a random hexadecimal string from size random
// bytes. The result is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := randRead(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size random bytes.
func GenerateRandByteArray(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := randRead(b); err != nil {
		return nil, err
	}
	return b, nil
}

// NewSecret issues a new shared secret in its hex form.
func NewSecret() (string, error) {
	return MakeRandHexString(SecretSize)
}

// DeriveVerifier derives the argon2id verifier stored for a secret.
func DeriveVerifier(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// CheckSecret reports whether candidate matches the stored verifier. The
// comparison runs in constant time.
func CheckSecret(candidate string, salt, verifier []byte) bool {
	if len(verifier) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(DeriveVerifier(candidate, salt), verifier) == 1
}

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
