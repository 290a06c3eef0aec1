package usecase

import (
	"context"
	"time"

	"github.com/allisson/piicrypt/internal/database"
	encryptionUsecase "github.com/allisson/piicrypt/internal/encryption/usecase"
	"github.com/allisson/piicrypt/internal/outbox/domain"
)

// OutboxNotifier records the completion signal as an outbox event so it
// survives a crash between completion and delivery.
type OutboxNotifier struct {
	txManager  database.TxManager
	outboxRepo OutboxEventRepository
}

// NewOutboxNotifier creates an OutboxNotifier.
func NewOutboxNotifier(txManager database.TxManager, outboxRepo OutboxEventRepository) *OutboxNotifier {
	return &OutboxNotifier{txManager: txManager, outboxRepo: outboxRepo}
}

// Notify writes an encryption.completed event.
func (n *OutboxNotifier) Notify(ctx context.Context, summary encryptionUsecase.Summary) error {
	if summary.FailedBatches == nil {
		summary.FailedBatches = []int{}
	}

	event, err := domain.NewOutboxEvent(domain.EventTypeEncryptionCompleted, summary, time.Now().UTC())
	if err != nil {
		return err
	}

	return n.txManager.WithTx(ctx, func(ctx context.Context) error {
		return n.outboxRepo.Create(ctx, event)
	})
}
