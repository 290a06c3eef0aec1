package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Envelope bundles everything needed to decrypt a field later.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// String serializes the envelope as base64(ciphertext)_base64(nonce)_base64(tag).
func (e Envelope) String() string {
	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(e.Ciphertext),
		base64.StdEncoding.EncodeToString(e.Nonce),
		base64.StdEncoding.EncodeToString(e.Tag),
	}, EnvelopeDelimiter)
}

// ParseEnvelope splits and decodes a serialized envelope. It requires exactly
// three segments, a NonceSize nonce and a TagSize tag.
func ParseEnvelope(s string) (Envelope, error) {
	parts := strings.Split(s, EnvelopeDelimiter)
	if len(parts) != 3 {
		return Envelope{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrInvalidEnvelope, len(parts))
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: ciphertext: %v", ErrInvalidEnvelope, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: nonce: %v", ErrInvalidEnvelope, err)
	}
	tag, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: tag: %v", ErrInvalidEnvelope, err)
	}

	if len(nonce) != NonceSize {
		return Envelope{}, fmt.Errorf("%w: nonce must be %d bytes", ErrInvalidEnvelope, NonceSize)
	}
	if len(tag) != TagSize {
		return Envelope{}, fmt.Errorf("%w: tag must be %d bytes", ErrInvalidEnvelope, TagSize)
	}

	return Envelope{Ciphertext: ciphertext, Nonce: nonce, Tag: tag}, nil
}

// IsEnvelope reports whether s parses as an envelope.
func IsEnvelope(s string) bool {
	_, err := ParseEnvelope(s)
	return err == nil
}
