// Package service provides the cryptographic primitives behind field encryption:
// AEAD ciphers, password-based key derivation and KMS secret unwrapping.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext, nonce and tag.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce, tag []byte, err error)

	// Decrypt verifies the tag and decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, tag, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyDeriver derives field keys from a secret and salt.
type KeyDeriver interface {
	// DeriveKey returns the key for (secret, salt). Repeated calls with the same
	// inputs return the same cached key.
	DeriveKey(secret, salt []byte) (*cryptoDomain.DerivedKey, error)
}

// KMSService opens KMS keepers used to unwrap the configured secret.
type KMSService interface {
	// OpenKeeper opens a secrets.Keeper for the configured KMS provider.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
