// Package usecase implements field-level encryption on top of the crypto services.
package usecase

import (
	"context"
)

// FieldEncryptor encrypts and decrypts single field values with a bound key.
//
// Implementations are safe for concurrent use: the key is read-only and every
// Encrypt call draws its own nonce.
type FieldEncryptor interface {
	// Encrypt returns the serialized envelope for plaintext. Two calls with the
	// same plaintext never return the same envelope.
	Encrypt(ctx context.Context, plaintext string) (string, error)

	// Decrypt verifies and opens a serialized envelope. It returns
	// ErrAuthenticationFailed without any plaintext when the tag does not verify.
	Decrypt(ctx context.Context, envelope string) (string, error)
}
