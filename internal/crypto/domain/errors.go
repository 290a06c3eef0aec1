package domain

import (
	"github.com/allisson/piicrypt/internal/errors"
)

// Cryptographic operation errors.
//
// Encryption and authentication failures wrap errors.ErrNonRetryable: a job
// failing with them is dead-lettered without consuming its remaining attempts,
// since the same key and input always fail the same way.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrUnsupportedKDF indicates the requested key-derivation function is not supported.
	ErrUnsupportedKDF = errors.Wrap(errors.ErrInvalidInput, "unsupported key derivation function")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidKDFParams indicates a missing secret or salt, or a work factor below MinIterations.
	ErrInvalidKDFParams = errors.Wrap(errors.ErrInvalidInput, "invalid key derivation parameters")

	// ErrInvalidEnvelope indicates an envelope string that cannot be split or decoded.
	ErrInvalidEnvelope = errors.Wrap(errors.ErrNonRetryable, "invalid envelope")

	// ErrEncryptionFailed indicates the AEAD primitive failed while sealing a value.
	ErrEncryptionFailed = errors.Wrap(errors.ErrNonRetryable, "encryption failed")

	// ErrAuthenticationFailed indicates the authentication tag did not verify:
	// the envelope was tampered with or the key is wrong. No plaintext is released.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrNonRetryable, "authentication failed")
)
