package service

import (
	"fmt"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
)

// AEADManagerService builds the field cipher from a derived key. AES-256-GCM
// with a 16-byte nonce is the only algorithm: the envelope layout has no
// algorithm marker, so every envelope must decrypt under the same cipher.
type AEADManagerService struct{}

// NewAEADManager creates an AEADManagerService.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher fails with ErrInvalidKeySize unless key is KeySize bytes, and
// with ErrUnsupportedAlgorithm for anything but AES-GCM.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", cryptoDomain.ErrInvalidKeySize, len(key))
	}

	if alg != cryptoDomain.AESGCM {
		return nil, fmt.Errorf("%w: %q", cryptoDomain.ErrUnsupportedAlgorithm, alg)
	}
	return NewAESGCM(key)
}
