package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/piicrypt/internal/database"
	encryptionUsecase "github.com/allisson/piicrypt/internal/encryption/usecase"
	"github.com/allisson/piicrypt/internal/outbox/domain"
	"github.com/allisson/piicrypt/internal/outbox/repository"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockEventProcessor is a mock implementation of EventProcessor
type MockEventProcessor struct {
	mock.Mock
}

func (m *MockEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func testConfig() Config {
	return Config{Interval: 5 * time.Second, BatchSize: 10, MaxRetries: 3}
}

func completedEvent(t *testing.T, summary encryptionUsecase.Summary) *domain.OutboxEvent {
	t.Helper()
	event, err := domain.NewOutboxEvent(domain.EventTypeEncryptionCompleted, summary, time.Now().UTC())
	require.NoError(t, err)
	return event
}

func TestNewOutboxUseCase(t *testing.T) {
	config := testConfig()
	uc := NewOutboxUseCase(config, &MockTxManager{}, &MockOutboxEventRepository{}, &MockEventProcessor{}, nil)

	assert.NotNil(t, uc)
	assert.Equal(t, config, uc.config)
}

func TestOutboxUseCase_Start_ContextCancellation(t *testing.T) {
	uc := NewOutboxUseCase(testConfig(), &MockTxManager{}, &MockOutboxEventRepository{}, &MockEventProcessor{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uc.Start(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestOutboxUseCase_Start_ProcessesOnTick(t *testing.T) {
	repo := repository.NewMemoryOutboxEventRepository()
	event := completedEvent(t, encryptionUsecase.Summary{Total: 1, Completed: 1})
	require.NoError(t, repo.Create(context.Background(), event))

	processor := &MockEventProcessor{}
	processed := make(chan struct{})
	processor.On("Process", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(processed) }).
		Return(nil).
		Once()

	config := testConfig()
	config.Interval = time.Millisecond
	uc := NewOutboxUseCase(config, database.NewMemoryTxManager(), repo, processor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- uc.Start(ctx) }()

	select {
	case <-processed:
	case <-time.After(5 * time.Second):
		t.Fatal("event was not processed")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	processor.AssertExpectations(t)
}

func TestOutboxUseCase_ProcessEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("marks delivered events processed", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}
		event := completedEvent(t, encryptionUsecase.Summary{Total: 2, Completed: 2})

		txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", ctx, event).Return(nil).Once()
		outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil
		})).Return(nil).Once()

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)
		require.NoError(t, uc.ProcessEvents(ctx))

		txManager.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		processor.AssertExpectations(t)
	})

	t.Run("no pending events", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}

		txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{}, nil).Once()

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)
		require.NoError(t, uc.ProcessEvents(ctx))
		processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	})

	t.Run("failed delivery is retried until max retries", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}
		event := completedEvent(t, encryptionUsecase.Summary{})
		event.Retries = 2

		txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", ctx, event).Return(errors.New("webhook down")).Once()
		outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusFailed && e.Retries == 3 &&
				e.LastError != nil && *e.LastError == "webhook down"
		})).Return(nil).Once()

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)
		require.NoError(t, uc.ProcessEvents(ctx))
		outboxRepo.AssertExpectations(t)
	})

	t.Run("repository error aborts the transaction", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}

		txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("GetPendingEvents", ctx, 10).Return(nil, errors.New("db down")).Once()

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, &MockEventProcessor{}, nil)
		assert.EqualError(t, uc.ProcessEvents(ctx), "db down")
	})

	t.Run("update error aborts the transaction", func(t *testing.T) {
		txManager := &MockTxManager{}
		outboxRepo := &MockOutboxEventRepository{}
		processor := &MockEventProcessor{}
		event := completedEvent(t, encryptionUsecase.Summary{})

		txManager.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("GetPendingEvents", ctx, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", ctx, event).Return(nil).Once()
		outboxRepo.On("Update", ctx, event).Return(errors.New("db down")).Once()

		uc := NewOutboxUseCase(testConfig(), txManager, outboxRepo, processor, nil)
		assert.EqualError(t, uc.ProcessEvents(ctx), "db down")
	})
}

func TestDefaultEventProcessor_Process(t *testing.T) {
	ctx := context.Background()

	newProcessor := func() (*DefaultEventProcessor, *bytes.Buffer) {
		var buf bytes.Buffer
		return NewDefaultEventProcessor(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
	}

	t.Run("successful run is logged at info", func(t *testing.T) {
		processor, buf := newProcessor()
		event := completedEvent(t, encryptionUsecase.Summary{Total: 200, Completed: 200, RecordsEncrypted: 20000})

		require.NoError(t, processor.Process(ctx, event))
		assert.Contains(t, buf.String(), `"level":"INFO"`)
		assert.Contains(t, buf.String(), `"records_encrypted":20000`)
	})

	t.Run("run with failures is logged at warn", func(t *testing.T) {
		processor, buf := newProcessor()
		event := completedEvent(t, encryptionUsecase.Summary{Total: 2, Completed: 1, Failed: 1, FailedBatches: []int{1}})

		require.NoError(t, processor.Process(ctx, event))
		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), `"failed_batches":[1]`)
	})

	t.Run("malformed payload", func(t *testing.T) {
		processor, _ := newProcessor()
		event := &domain.OutboxEvent{EventType: domain.EventTypeEncryptionCompleted, Payload: "{"}

		assert.Error(t, processor.Process(ctx, event))
	})

	t.Run("unknown event type", func(t *testing.T) {
		processor, buf := newProcessor()
		event := &domain.OutboxEvent{EventType: "user.created", Payload: "{}"}

		require.NoError(t, processor.Process(ctx, event))
		assert.Contains(t, buf.String(), "unknown event type")
	})
}

func TestOutboxNotifier_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("writes completion event", func(t *testing.T) {
		repo := repository.NewMemoryOutboxEventRepository()
		notifier := NewOutboxNotifier(database.NewMemoryTxManager(), repo)

		require.NoError(t, notifier.Notify(ctx, encryptionUsecase.Summary{Total: 3, Completed: 3}))

		events, err := repo.GetPendingEvents(ctx, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventTypeEncryptionCompleted, events[0].EventType)
		assert.JSONEq(t,
			`{"total":3,"completed":3,"failed":0,"records_encrypted":0,"failed_batches":[],"duration":0}`,
			events[0].Payload,
		)
	})

	t.Run("transaction error", func(t *testing.T) {
		txManager := &MockTxManager{}
		txManager.On("WithTx", ctx, mock.Anything).Return(errors.New("tx failed")).Once()

		err := NewOutboxNotifier(txManager, &MockOutboxEventRepository{}).Notify(ctx, encryptionUsecase.Summary{})
		assert.EqualError(t, err, "tx failed")
	})
}
