package usecase

import (
	"context"
	"time"

	"github.com/allisson/piicrypt/internal/metrics"
)

// fieldEncryptorWithMetrics decorates FieldEncryptor with metrics instrumentation.
type fieldEncryptorWithMetrics struct {
	next    FieldEncryptor
	metrics metrics.BusinessMetrics
}

// NewFieldEncryptorWithMetrics wraps a FieldEncryptor with metrics recording.
func NewFieldEncryptorWithMetrics(encryptor FieldEncryptor, m metrics.BusinessMetrics) FieldEncryptor {
	return &fieldEncryptorWithMetrics{
		next:    encryptor,
		metrics: m,
	}
}

// Encrypt records metrics for field encryption operations.
func (f *fieldEncryptorWithMetrics) Encrypt(ctx context.Context, plaintext string) (string, error) {
	start := time.Now()
	envelope, err := f.next.Encrypt(ctx, plaintext)

	metrics.Observe(ctx, f.metrics, metrics.DomainCrypto, "field_encrypt", start, err)
	return envelope, err
}

// Decrypt records metrics for field decryption operations.
func (f *fieldEncryptorWithMetrics) Decrypt(ctx context.Context, envelope string) (string, error) {
	start := time.Now()
	plaintext, err := f.next.Decrypt(ctx, envelope)

	metrics.Observe(ctx, f.metrics, metrics.DomainCrypto, "field_decrypt", start, err)
	return plaintext, err
}
