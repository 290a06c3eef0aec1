package domain

import "context"

// KDFParams are the key-derivation settings fixed at configuration time.
type KDFParams struct {
	KDF        KDF
	Iterations int
	KeyLength  int
}

// Validate checks the parameters against the supported KDFs and minimum work factor.
func (p KDFParams) Validate() error {
	if _, err := ParseKDF(string(p.KDF)); err != nil {
		return err
	}
	if p.KeyLength != KeySize {
		return ErrInvalidKeySize
	}
	if p.Iterations < MinIterations {
		return ErrInvalidKDFParams
	}
	return nil
}

// DerivedKey is the symmetric field key derived from a secret and salt.
// It is read-only once derived and may be shared across goroutines.
type DerivedKey struct {
	Algorithm Algorithm
	Key       []byte
}

// Close zeroes the key material.
func (k *DerivedKey) Close() {
	if k == nil {
		return
	}
	Zero(k.Key)
}

// KMSKeeper decrypts a KMS-wrapped secret. *secrets.Keeper satisfies it.
type KMSKeeper interface {
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
