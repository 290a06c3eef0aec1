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

const mysqlJobColumns = `id, payload, batch_index, status, attempts, max_attempts, worker_id,
	lease_expires_at, available_at, last_error, created_at, updated_at`

// MySQLJobRepository handles job persistence for MySQL. Timestamps are scanned
// into time.Time, so the DSN must set parseTime=true.
type MySQLJobRepository struct {
	db *sql.DB
}

// NewMySQLJobRepository creates a new MySQLJobRepository.
func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

// CreateBulk inserts jobs one statement at a time inside the caller's transaction.
func (r *MySQLJobRepository) CreateBulk(ctx context.Context, jobs []*domain.Job) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO jobs (` + mysqlJobColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, job := range jobs {
		// Convert UUID to bytes for MySQL BINARY(16)
		idBytes, err := job.ID.MarshalBinary()
		if err != nil {
			return err
		}

		_, err = querier.ExecContext(ctx, query, idBytes, string(job.Payload), job.BatchIndex, job.Status,
			job.Attempts, job.MaxAttempts, job.WorkerID, job.LeaseExpiresAt, job.AvailableAt,
			job.LastError, job.CreatedAt, job.UpdatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetForUpdate fetches a job and locks its row until the transaction ends.
func (r *MySQLJobRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + mysqlJobColumns + ` FROM jobs WHERE id = ? FOR UPDATE`

	job, err := scanMySQLJob(querier.QueryRowContext(ctx, query, idBytes))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return job, err
}

// NextLeasable locks the oldest job eligible for lease at now, skipping rows
// held by concurrent workers. Returns nil when none is eligible.
func (r *MySQLJobRepository) NextLeasable(ctx context.Context, now time.Time) (*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlJobColumns + `
			  FROM jobs
			  WHERE status = ? OR (status = ? AND available_at <= ?)
			  ORDER BY available_at ASC, id ASC
			  LIMIT 1
			  FOR UPDATE SKIP LOCKED`

	job, err := scanMySQLJob(
		querier.QueryRowContext(ctx, query, domain.StatusWaiting, domain.StatusDelayed, now),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return job, err
}

// ListExpired locks up to limit active jobs whose lease ended at or before now.
func (r *MySQLJobRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Job, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + mysqlJobColumns + `
			  FROM jobs
			  WHERE status = ? AND lease_expires_at <= ?
			  ORDER BY lease_expires_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.StatusActive, now, limit)
	if err != nil {
		return nil, err
	}
	return collectMySQLJobs(rows)
}

// CountByStatus counts jobs in one status.
func (r *MySQLJobRepository) CountByStatus(ctx context.Context, status domain.Status) (int, error) {
	querier := database.GetTx(ctx, r.db)

	var count int
	err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE status = ?`, status).Scan(&count)
	return count, err
}

// Stats counts jobs per status.
func (r *MySQLJobRepository) Stats(ctx context.Context) (map[domain.Status]int, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	return collectStats(rows)
}

// List returns jobs ordered by creation, optionally filtered by status.
func (r *MySQLJobRepository) List(
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
		query := `SELECT ` + mysqlJobColumns + ` FROM jobs ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + mysqlJobColumns + `
				  FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
		rows, err = querier.QueryContext(ctx, query, status, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return collectMySQLJobs(rows)
}

// Update persists every mutable column of job.
func (r *MySQLJobRepository) Update(ctx context.Context, job *domain.Job) error {
	querier := database.GetTx(ctx, r.db)

	idBytes, err := job.ID.MarshalBinary()
	if err != nil {
		return err
	}

	query := `UPDATE jobs
			  SET status = ?, attempts = ?, worker_id = ?, lease_expires_at = ?,
			      available_at = ?, last_error = ?, updated_at = ?
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, job.Status, job.Attempts, job.WorkerID,
		job.LeaseExpiresAt, job.AvailableAt, job.LastError, job.UpdatedAt, idBytes)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func scanMySQLJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var idBytes, payload []byte

	err := row.Scan(&idBytes, &payload, &job.BatchIndex, &job.Status, &job.Attempts, &job.MaxAttempts,
		&job.WorkerID, &job.LeaseExpiresAt, &job.AvailableAt, &job.LastError, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// Convert bytes back to UUID
	if err := job.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, err
	}

	job.Payload = payload
	return &job, nil
}

func collectMySQLJobs(rows *sql.Rows) ([]*domain.Job, error) {
	defer rows.Close() //nolint:errcheck

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanMySQLJob(rows)
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
