package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/job/domain"
)

// MemoryJobRepository keeps jobs in process memory. It is meant for local runs
// and tests, paired with database.NewMemoryTxManager which serializes the
// use case's transactional blocks. Jobs are copied on the way in and out so
// callers never alias stored state.
type MemoryJobRepository struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*domain.Job
	order []uuid.UUID
}

// NewMemoryJobRepository creates an empty MemoryJobRepository.
func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[uuid.UUID]*domain.Job)}
}

// CreateBulk stores all jobs or none when an id already exists.
func (r *MemoryJobRepository) CreateBulk(ctx context.Context, jobs []*domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, job := range jobs {
		if _, ok := r.jobs[job.ID]; ok {
			return errDuplicateJob
		}
	}
	for _, job := range jobs {
		r.jobs[job.ID] = cloneJob(job)
		r.order = append(r.order, job.ID)
	}
	return nil
}

// GetForUpdate returns a copy of the job.
func (r *MemoryJobRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return cloneJob(job), nil
}

// NextLeasable returns the leasable job with the earliest AvailableAt, or nil.
func (r *MemoryJobRepository) NextLeasable(ctx context.Context, now time.Time) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var next *domain.Job
	for _, id := range r.order {
		job := r.jobs[id]
		if !job.IsLeasable(now) {
			continue
		}
		if next == nil || job.AvailableAt.Before(next.AvailableAt) {
			next = job
		}
	}
	if next == nil {
		return nil, nil
	}
	return cloneJob(next), nil
}

// ListExpired returns up to limit active jobs whose lease ended at or before now.
func (r *MemoryJobRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []*domain.Job
	for _, id := range r.order {
		job := r.jobs[id]
		if job.IsExpired(now) {
			expired = append(expired, cloneJob(job))
		}
	}

	sort.SliceStable(expired, func(i, j int) bool {
		return expired[i].LeaseExpiresAt.Before(*expired[j].LeaseExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

// CountByStatus counts jobs in one status.
func (r *MemoryJobRepository) CountByStatus(ctx context.Context, status domain.Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, job := range r.jobs {
		if job.Status == status {
			count++
		}
	}
	return count, nil
}

// Stats counts jobs per status.
func (r *MemoryJobRepository) Stats(ctx context.Context) (map[domain.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[domain.Status]int, len(domain.Statuses))
	for _, status := range domain.Statuses {
		stats[status] = 0
	}
	for _, job := range r.jobs {
		stats[job.Status]++
	}
	return stats, nil
}

// List returns jobs in insertion order, optionally filtered by status.
func (r *MemoryJobRepository) List(
	ctx context.Context,
	status domain.Status,
	offset, limit int,
) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*domain.Job
	skipped := 0
	for _, id := range r.order {
		job := r.jobs[id]
		if status != "" && job.Status != status {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(jobs) >= limit {
			break
		}
		jobs = append(jobs, cloneJob(job))
	}
	return jobs, nil
}

// Update replaces the stored job.
func (r *MemoryJobRepository) Update(ctx context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func cloneJob(job *domain.Job) *domain.Job {
	c := *job
	if job.LeaseExpiresAt != nil {
		t := *job.LeaseExpiresAt
		c.LeaseExpiresAt = &t
	}
	if job.LastError != nil {
		s := *job.LastError
		c.LastError = &s
	}
	return &c
}
