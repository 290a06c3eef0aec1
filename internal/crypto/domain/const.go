package domain

// Algorithm represents the AEAD algorithm used to encrypt fields.
//
// Only AES-256-GCM is supported: envelopes carry a 16-byte nonce, which GCM
// accepts through cipher.NewGCMWithNonceSize while the ChaCha20-Poly1305
// family fixes the nonce at 12 or 24 bytes.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	AESGCM Algorithm = "aes-256-gcm"
)

// KDF identifies the password-based key-derivation function.
type KDF string

const (
	// PBKDF2SHA256 is PBKDF2 with HMAC-SHA256.
	PBKDF2SHA256 KDF = "pbkdf2-sha256"
	// PBKDF2SHA512 is PBKDF2 with HMAC-SHA512.
	PBKDF2SHA512 KDF = "pbkdf2-sha512"
)

const (
	// KeySize is the derived key length in bytes.
	KeySize = 32
	// NonceSize is the per-encryption random nonce length in bytes.
	NonceSize = 16
	// TagSize is the authentication tag length in bytes.
	TagSize = 16
	// MinIterations is the lowest KDF work factor accepted.
	MinIterations = 10000
	// EnvelopeDelimiter separates envelope segments. It is not part of the
	// standard base64 alphabet, so segments never need escaping.
	EnvelopeDelimiter = "_"
)

// ParseAlgorithm maps a configured algorithm identifier to an Algorithm.
// "aes-gcm" is accepted as an alias of "aes-256-gcm".
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case string(AESGCM), "aes-gcm":
		return AESGCM, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// ParseKDF maps a configured KDF identifier to a KDF.
func ParseKDF(s string) (KDF, error) {
	switch KDF(s) {
	case PBKDF2SHA256, PBKDF2SHA512:
		return KDF(s), nil
	default:
		return "", ErrUnsupportedKDF
	}
}
