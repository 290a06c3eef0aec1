package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/outbox/domain"
)

// MemoryOutboxEventRepository keeps outbox events in process memory for the
// memory queue backend.
type MemoryOutboxEventRepository struct {
	mu     sync.Mutex
	events map[uuid.UUID]*domain.OutboxEvent
	order  []uuid.UUID
}

// NewMemoryOutboxEventRepository creates an empty MemoryOutboxEventRepository.
func NewMemoryOutboxEventRepository() *MemoryOutboxEventRepository {
	return &MemoryOutboxEventRepository{events: make(map[uuid.UUID]*domain.OutboxEvent)}
}

// Create stores a copy of event.
func (r *MemoryOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; ok {
		return errDuplicateEvent
	}
	stored := *event
	r.events[event.ID] = &stored
	r.order = append(r.order, event.ID)
	return nil
}

// GetPendingEvents returns copies of up to limit pending events in insertion order.
func (r *MemoryOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []*domain.OutboxEvent
	for _, id := range r.order {
		if limit > 0 && len(events) >= limit {
			break
		}
		if event := r.events[id]; event.Status == domain.OutboxEventStatusPending {
			out := *event
			events = append(events, &out)
		}
	}
	return events, nil
}

// Update replaces the stored event.
func (r *MemoryOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; !ok {
		return ErrOutboxEventNotFound
	}
	stored := *event
	r.events[event.ID] = &stored
	return nil
}
