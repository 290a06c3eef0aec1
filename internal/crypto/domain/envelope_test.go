package domain

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/piicrypt/internal/errors"
)

func testEnvelope() Envelope {
	return Envelope{
		Ciphertext: []byte("ciphertext-bytes"),
		Nonce:      bytes.Repeat([]byte{0x01}, NonceSize),
		Tag:        bytes.Repeat([]byte{0x02}, TagSize),
	}
}

func TestEnvelope_String(t *testing.T) {
	env := testEnvelope()

	s := env.String()
	parts := strings.Split(s, EnvelopeDelimiter)
	require.Len(t, parts, 3)
	assert.Equal(t, base64.StdEncoding.EncodeToString(env.Ciphertext), parts[0])
	assert.Equal(t, base64.StdEncoding.EncodeToString(env.Nonce), parts[1])
	assert.Equal(t, base64.StdEncoding.EncodeToString(env.Tag), parts[2])
}

func TestParseEnvelope(t *testing.T) {
	t.Run("parses serialized envelope", func(t *testing.T) {
		env := testEnvelope()

		parsed, err := ParseEnvelope(env.String())
		require.NoError(t, err)
		assert.Equal(t, env, parsed)
	})

	t.Run("empty ciphertext is allowed", func(t *testing.T) {
		env := testEnvelope()
		env.Ciphertext = []byte{}

		parsed, err := ParseEnvelope(env.String())
		require.NoError(t, err)
		assert.Empty(t, parsed.Ciphertext)
	})

	invalid := map[string]string{
		"plaintext":          "john.doe@example.com",
		"two segments":       "YQ==_YQ==",
		"four segments":      "YQ==_YQ==_YQ==_YQ==",
		"bad ciphertext":     "!!!_" + base64.StdEncoding.EncodeToString(make([]byte, NonceSize)) + "_" + base64.StdEncoding.EncodeToString(make([]byte, TagSize)),
		"short nonce":        "YQ==_" + base64.StdEncoding.EncodeToString(make([]byte, 12)) + "_" + base64.StdEncoding.EncodeToString(make([]byte, TagSize)),
		"short tag":          "YQ==_" + base64.StdEncoding.EncodeToString(make([]byte, NonceSize)) + "_" + base64.StdEncoding.EncodeToString(make([]byte, 8)),
		"url-safe alphabet":  "YQ==_" + base64.URLEncoding.EncodeToString(bytes.Repeat([]byte{0xff}, NonceSize)) + "_" + base64.StdEncoding.EncodeToString(make([]byte, TagSize)),
		"empty string":       "",
	}
	for name, input := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := ParseEnvelope(input)
			assert.ErrorIs(t, err, ErrInvalidEnvelope)
			assert.False(t, errors.IsRetryable(err))
			assert.False(t, IsEnvelope(input))
		})
	}
}

func TestEnvelopeDelimiter_NotInBase64Alphabet(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	assert.NotContains(t, base64.StdEncoding.EncodeToString(data), EnvelopeDelimiter)
}
