package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/piicrypt/internal/crypto/service"
	cryptoUsecase "github.com/allisson/piicrypt/internal/crypto/usecase"
	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
	"github.com/allisson/piicrypt/internal/encryption/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEncryptor(t *testing.T) cryptoUsecase.FieldEncryptor {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	encryptor, err := cryptoUsecase.NewFieldEncryptor(
		cryptoService.NewAEADManager(),
		&cryptoDomain.DerivedKey{Algorithm: cryptoDomain.AESGCM, Key: key},
	)
	require.NoError(t, err)
	return encryptor
}

func testRecords(n int) []customerDomain.CustomerRecord {
	out := make([]customerDomain.CustomerRecord, n)
	for i := range out {
		out[i] = customerDomain.CustomerRecord{
			ID:             fmt.Sprintf("c-%05d", i),
			Name:           fmt.Sprintf("Customer %d", i),
			Email:          fmt.Sprintf("customer%d@example.com", i),
			Phone:          fmt.Sprintf("010-%04d-0000", i%10000),
			SSNLast4:       fmt.Sprintf("%04d", i%10000),
			Address:        "Seoul",
			AccountBalance: float64(i),
			IsVIP:          i%10 == 0,
		}
	}
	return out
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, summary Summary) error {
	return m.Called(ctx, summary).Error(0)
}

// memoryBatchRepository keeps artifacts in a map.
type memoryBatchRepository struct {
	mu      sync.Mutex
	saved   map[int]domain.Batch
	writes  int
	deletes int
	saveErr error
}

func newMemoryBatchRepository() *memoryBatchRepository {
	return &memoryBatchRepository{saved: make(map[int]domain.Batch)}
}

func (r *memoryBatchRepository) Save(ctx context.Context, batch domain.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[batch.BatchIndex] = batch
	return nil
}

func (r *memoryBatchRepository) Load(ctx context.Context, batchIndex int) (domain.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[batchIndex], nil
}

func (r *memoryBatchRepository) Delete(ctx context.Context, batchIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.saved, batchIndex)
	return nil
}

func (r *memoryBatchRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}
