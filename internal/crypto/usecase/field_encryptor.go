package usecase

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/piicrypt/internal/crypto/service"
)

// fieldEncryptor implements FieldEncryptor with an AEAD built once from the derived key.
type fieldEncryptor struct {
	cipher cryptoService.AEAD
}

// NewFieldEncryptor creates a FieldEncryptor for key. The cipher is built once
// and shared by every call.
func NewFieldEncryptor(
	aeadManager cryptoService.AEADManager,
	key *cryptoDomain.DerivedKey,
) (FieldEncryptor, error) {
	if key == nil {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	cipher, err := aeadManager.CreateCipher(key.Key, key.Algorithm)
	if err != nil {
		return nil, err
	}

	return &fieldEncryptor{cipher: cipher}, nil
}

// Encrypt seals plaintext under a fresh nonce and serializes the envelope.
func (f *fieldEncryptor) Encrypt(ctx context.Context, plaintext string) (string, error) {
	envelope, err := f.Seal([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return envelope.String(), nil
}

// Decrypt parses, verifies and opens a serialized envelope.
func (f *fieldEncryptor) Decrypt(ctx context.Context, envelope string) (string, error) {
	parsed, err := cryptoDomain.ParseEnvelope(envelope)
	if err != nil {
		return "", err
	}

	plaintext, err := f.Open(parsed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Seal encrypts plaintext and returns the envelope components.
func (f *fieldEncryptor) Seal(plaintext []byte) (cryptoDomain.Envelope, error) {
	ciphertext, nonce, tag, err := f.cipher.Encrypt(plaintext, nil)
	if err != nil {
		return cryptoDomain.Envelope{}, fmt.Errorf("%w: %v", cryptoDomain.ErrEncryptionFailed, err)
	}
	return cryptoDomain.Envelope{Ciphertext: ciphertext, Nonce: nonce, Tag: tag}, nil
}

// Open verifies the envelope tag and returns the plaintext.
func (f *fieldEncryptor) Open(envelope cryptoDomain.Envelope) ([]byte, error) {
	plaintext, err := f.cipher.Decrypt(envelope.Ciphertext, envelope.Nonce, envelope.Tag, nil)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
