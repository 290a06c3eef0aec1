package commands

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/piicrypt/internal/crypto/service"
	cryptoUsecase "github.com/allisson/piicrypt/internal/crypto/usecase"
	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
	encryptionDomain "github.com/allisson/piicrypt/internal/encryption/domain"
	jobDomain "github.com/allisson/piicrypt/internal/job/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecords(n int) []customerDomain.CustomerRecord {
	out := make([]customerDomain.CustomerRecord, n)
	for i := range out {
		out[i] = customerDomain.CustomerRecord{
			ID:       fmt.Sprintf("c-%d", i),
			Name:     fmt.Sprintf("Customer %d", i),
			Email:    fmt.Sprintf("c%d@example.com", i),
			Phone:    "010-0000-0000",
			SSNLast4: "1234",
		}
	}
	return out
}

func recordsJSON(t *testing.T, records []customerDomain.CustomerRecord) []byte {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	return data
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

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(
	ctx context.Context,
	records []customerDomain.CustomerRecord,
) ([]uuid.UUID, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockPoolRunner is a mock implementation of PoolRunner
type MockPoolRunner struct {
	mock.Mock
}

func (m *MockPoolRunner) Run(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockStatsReader is a mock implementation of StatsReader
type MockStatsReader struct {
	mock.Mock
}

func (m *MockStatsReader) Stats(ctx context.Context) (map[jobDomain.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[jobDomain.Status]int), args.Error(1)
}

// MockOutboxUseCase is a mock implementation of outboxUsecase.UseCase
type MockOutboxUseCase struct {
	mock.Mock
}

func (m *MockOutboxUseCase) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOutboxUseCase) ProcessEvents(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type staticProgress encryptionDomain.Progress

func (p staticProgress) Snapshot() encryptionDomain.Progress {
	return encryptionDomain.Progress(p)
}
