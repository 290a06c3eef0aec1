package service

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"hash"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
)

// PBKDF2KeyDeriver derives field keys with PBKDF2 and caches them for the
// lifetime of the process, keyed by (secret, salt).
//
// The work factor is fixed at construction time. Cached keys are shared between
// callers and must be treated as read-only.
type PBKDF2KeyDeriver struct {
	params    cryptoDomain.KDFParams
	algorithm cryptoDomain.Algorithm

	mu    sync.Mutex
	cache map[string]*cryptoDomain.DerivedKey
}

// NewPBKDF2KeyDeriver creates a key deriver for the given parameters and cipher algorithm.
func NewPBKDF2KeyDeriver(
	params cryptoDomain.KDFParams,
	alg cryptoDomain.Algorithm,
) (*PBKDF2KeyDeriver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := cryptoDomain.ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}

	return &PBKDF2KeyDeriver{
		params:    params,
		algorithm: alg,
		cache:     make(map[string]*cryptoDomain.DerivedKey),
	}, nil
}

// DeriveKey returns the derived key for (secret, salt), computing it on first use.
func (d *PBKDF2KeyDeriver) DeriveKey(secret, salt []byte) (*cryptoDomain.DerivedKey, error) {
	if len(secret) == 0 || len(salt) == 0 {
		return nil, cryptoDomain.ErrInvalidKDFParams
	}

	cacheKey := cacheKeyFor(secret, salt)

	d.mu.Lock()
	defer d.mu.Unlock()

	if key, ok := d.cache[cacheKey]; ok {
		return key, nil
	}

	key := &cryptoDomain.DerivedKey{
		Algorithm: d.algorithm,
		Key:       pbkdf2.Key(secret, salt, d.params.Iterations, d.params.KeyLength, d.hashFunc()),
	}
	d.cache[cacheKey] = key

	return key, nil
}

// Close zeroes every cached key.
func (d *PBKDF2KeyDeriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, key := range d.cache {
		key.Close()
		delete(d.cache, k)
	}
}

func (d *PBKDF2KeyDeriver) hashFunc() func() hash.Hash {
	if d.params.KDF == cryptoDomain.PBKDF2SHA512 {
		return sha512.New
	}
	return sha256.New
}

// cacheKeyFor fingerprints the inputs so raw secrets are not kept as map keys.
func cacheKeyFor(secret, salt []byte) string {
	h := sha256.New()
	_ = binary.Write(h, binary.BigEndian, uint32(len(secret)))
	h.Write(secret)
	h.Write(salt)
	return string(h.Sum(nil))
}
