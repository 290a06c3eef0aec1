package usecase

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/piicrypt/internal/crypto/service"
	"github.com/allisson/piicrypt/internal/errors"
)

func newTestKey(t *testing.T) *cryptoDomain.DerivedKey {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return &cryptoDomain.DerivedKey{Algorithm: cryptoDomain.AESGCM, Key: key}
}

func newTestEncryptor(t *testing.T, key *cryptoDomain.DerivedKey) FieldEncryptor {
	t.Helper()
	encryptor, err := NewFieldEncryptor(cryptoService.NewAEADManager(), key)
	require.NoError(t, err)
	return encryptor
}

func TestNewFieldEncryptor(t *testing.T) {
	t.Run("nil key", func(t *testing.T) {
		_, err := NewFieldEncryptor(cryptoService.NewAEADManager(), nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		key := newTestKey(t)
		key.Algorithm = "rot13"

		_, err := NewFieldEncryptor(cryptoService.NewAEADManager(), key)
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})
}

func TestFieldEncryptor_RoundTrip(t *testing.T) {
	ctx := context.Background()
	encryptor := newTestEncryptor(t, newTestKey(t))

	plaintexts := []string{
		"김민준",
		"john.doe@example.com",
		"010-1234-5678",
		"1234",
		"",
		"a value with _ underscores _ inside",
	}

	for _, plaintext := range plaintexts {
		envelope, err := encryptor.Encrypt(ctx, plaintext)
		require.NoError(t, err)
		assert.True(t, cryptoDomain.IsEnvelope(envelope))

		decrypted, err := encryptor.Decrypt(ctx, envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestFieldEncryptor_NonceFreshness(t *testing.T) {
	ctx := context.Background()
	encryptor := newTestEncryptor(t, newTestKey(t))

	first, err := encryptor.Encrypt(ctx, "john.doe@example.com")
	require.NoError(t, err)
	second, err := encryptor.Encrypt(ctx, "john.doe@example.com")
	require.NoError(t, err)

	env1, err := cryptoDomain.ParseEnvelope(first)
	require.NoError(t, err)
	env2, err := cryptoDomain.ParseEnvelope(second)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, env1.Nonce, env2.Nonce)
	assert.NotEqual(t, env1.Ciphertext, env2.Ciphertext)
	assert.Len(t, env1.Nonce, cryptoDomain.NonceSize)
}

func TestFieldEncryptor_TamperDetection(t *testing.T) {
	ctx := context.Background()
	encryptor := newTestEncryptor(t, newTestKey(t))

	serialized, err := encryptor.Encrypt(ctx, "010-9876-5432")
	require.NoError(t, err)
	original, err := cryptoDomain.ParseEnvelope(serialized)
	require.NoError(t, err)

	components := map[string]func(env *cryptoDomain.Envelope) []byte{
		"ciphertext": func(env *cryptoDomain.Envelope) []byte { return env.Ciphertext },
		"nonce":      func(env *cryptoDomain.Envelope) []byte { return env.Nonce },
		"tag":        func(env *cryptoDomain.Envelope) []byte { return env.Tag },
	}

	for name, component := range components {
		t.Run(name, func(t *testing.T) {
			size := len(component(&original))
			for i := 0; i < size*8; i++ {
				tampered := cryptoDomain.Envelope{
					Ciphertext: append([]byte(nil), original.Ciphertext...),
					Nonce:      append([]byte(nil), original.Nonce...),
					Tag:        append([]byte(nil), original.Tag...),
				}
				component(&tampered)[i/8] ^= 1 << (i % 8)

				plaintext, err := encryptor.Decrypt(ctx, tampered.String())
				require.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed, "bit %d", i)
				assert.Empty(t, plaintext)
			}
		})
	}
}

func TestFieldEncryptor_Decrypt_Errors(t *testing.T) {
	ctx := context.Background()
	encryptor := newTestEncryptor(t, newTestKey(t))

	t.Run("wrong key", func(t *testing.T) {
		envelope, err := encryptor.Encrypt(ctx, "secret")
		require.NoError(t, err)

		other := newTestEncryptor(t, newTestKey(t))
		_, err = other.Decrypt(ctx, envelope)
		assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
		assert.False(t, errors.IsRetryable(err))
	})

	t.Run("malformed envelope", func(t *testing.T) {
		_, err := encryptor.Decrypt(ctx, "plain text value")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidEnvelope)
	})
}

func TestFieldEncryptor_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	encryptor := newTestEncryptor(t, newTestKey(t))

	const n = 64
	envelopes := make([]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			envelope, err := encryptor.Encrypt(ctx, "same plaintext")
			assert.NoError(t, err)
			envelopes[i] = envelope
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, envelope := range envelopes {
		_, dup := seen[envelope]
		assert.False(t, dup, "envelope repeated")
		seen[envelope] = struct{}{}

		decrypted, err := encryptor.Decrypt(ctx, envelope)
		require.NoError(t, err)
		assert.Equal(t, "same plaintext", decrypted)
	}
}
