package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	"github.com/allisson/piicrypt/internal/metrics"
)

// mockBusinessMetrics is a mock implementation of metrics.BusinessMetrics for testing.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

var _ metrics.BusinessMetrics = (*mockBusinessMetrics)(nil)

func TestFieldEncryptorWithMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RecordsSuccessMetrics", func(t *testing.T) {
		mockMetrics := &mockBusinessMetrics{}
		mockMetrics.On("RecordOperation", ctx, "crypto", "field_encrypt", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "crypto", "field_encrypt", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		decorator := NewFieldEncryptorWithMetrics(newTestEncryptor(t, newTestKey(t)), mockMetrics)

		envelope, err := decorator.Encrypt(ctx, "value")
		require.NoError(t, err)
		assert.True(t, cryptoDomain.IsEnvelope(envelope))
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Error_RecordsErrorMetrics", func(t *testing.T) {
		mockMetrics := &mockBusinessMetrics{}
		mockMetrics.On("RecordOperation", ctx, "crypto", "field_decrypt", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "crypto", "field_decrypt", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		decorator := NewFieldEncryptorWithMetrics(newTestEncryptor(t, newTestKey(t)), mockMetrics)

		_, err := decorator.Decrypt(ctx, "not-an-envelope")
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidEnvelope)
		mockMetrics.AssertExpectations(t)
	})
}
