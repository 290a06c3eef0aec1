// Package repository provides data persistence implementations for queue jobs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/piicrypt/internal/database"
	"github.com/allisson/piicrypt/internal/job/domain"
)

const postgresJobColumns = `id, payload, batch_index, status, attempts, max_attempts, worker_id,
	lease_expires_at, available_at, last_error, created_at, updated_at`

// PostgreSQLJobRepository handles job persistence for PostgreSQL.
type PostgreSQLJobRepository struct {
	db *sql.DB
}

// NewPostgreSQLJobRepository creates a new PostgreSQLJobRepository.
func NewPostgreSQLJobRepository(db *sql.DB) *PostgreSQLJobRepository {
	return &PostgreSQLJobRepository{db: db}
}

// CreateBulk inserts jobs one statement at a time. Callers run it inside
// TxManager.WithTx so the batch is admitted atomically.
func (r *PostgreSQLJobRepository) CreateBulk(ctx context.Context, jobs []*domain.Job) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO jobs (` + postgresJobColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, job := range jobs {
		_, err := querier.ExecContext(ctx, query, job.ID, string(job.Payload), job.BatchIndex, job.Status,
			job.Attempts, job.MaxAttempts, job.WorkerID, job.LeaseExpiresAt, job.AvailableAt,
			job.LastError, job.CreatedAt, job.UpdatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetForUpdate fetches a job and locks its row until the transaction ends.
func (r *PostgreSQLJobRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresJobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`

	job, err := scanPostgresJob(querier.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return job, err
}

// NextLeasable locks the oldest job eligible for lease at now, skipping rows
// held by concurrent workers. Returns nil when none is eligible.
func (r *PostgreSQLJobRepository) NextLeasable(ctx context.Context, now time.Time) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresJobColumns + `
			  FROM jobs
			  WHERE status = $1 OR (status = $2 AND available_at <= $3)
			  ORDER BY available_at ASC, id ASC
			  LIMIT 1
			  FOR UPDATE SKIP LOCKED`

	job, err := scanPostgresJob(
		querier.QueryRowContext(ctx, query, domain.StatusWaiting, domain.StatusDelayed, now),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// ListExpired locks up to limit active jobs whose lease ended at or before now.
func (r *PostgreSQLJobRepository) ListExpired(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + postgresJobColumns + `
			  FROM jobs
			  WHERE status = $1 AND lease_expires_at <= $2
			  ORDER BY lease_expires_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.StatusActive, now, limit)
	if err != nil {
		return nil, err
	}
	return collectPostgresJobs(rows)
}

// CountByStatus counts jobs in one status.
func (r *PostgreSQLJobRepository) CountByStatus(ctx context.Context, status domain.Status) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = $1`, status).Scan(&count)
	return count, err
}

// Stats counts jobs per status.
func (r *PostgreSQLJobRepository) Stats(ctx context.Context) (map[domain.Status]int, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	return collectStats(rows)
}

// List returns jobs ordered by creation, optionally filtered by status.
func (r *PostgreSQLJobRepository) List(
	ctx context.Context,
	status domain.Status,
	offset, limit int,
) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		query := `SELECT ` + postgresJobColumns + ` FROM jobs ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + postgresJobColumns + `
				  FROM jobs WHERE status = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`
		rows, err = querier.QueryContext(ctx, query, status, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return collectPostgresJobs(rows)
}

// Update persists every mutable column of job.
func (r *PostgreSQLJobRepository) Update(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE jobs
			  SET status = $1, attempts = $2, worker_id = $3, lease_expires_at = $4,
			      available_at = $5, last_error = $6, updated_at = $7
			  WHERE id = $8`

	result, err := querier.ExecContext(ctx, query, job.Status, job.Attempts, job.WorkerID,
		job.LeaseExpiresAt, job.AvailableAt, job.LastError, job.UpdatedAt, job.ID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgresJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var payload []byte

	err := row.Scan(&job.ID, &payload, &job.BatchIndex, &job.Status, &job.Attempts, &job.MaxAttempts,
		&job.WorkerID, &job.LeaseExpiresAt, &job.AvailableAt, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.Payload = payload
	return &job, nil
}

func collectPostgresJobs(rows *sql.Rows) ([]*domain.Job, error) {
	defer rows.Close() //nolint:errcheck

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanPostgresJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func collectStats(rows *sql.Rows) (map[domain.Status]int, error) {
	defer rows.Close() //nolint:errcheck

	stats := make(map[domain.Status]int, len(domain.Statuses))
	for _, status := range domain.Statuses {
		stats[status] = 0
	}

	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}
