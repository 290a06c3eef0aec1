package repository

import "github.com/allisson/piicrypt/internal/errors"

// ErrOutboxEventNotFound indicates an update targeted an unknown event.
var ErrOutboxEventNotFound = errors.Wrap(errors.ErrNotFound, "outbox event not found")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type execResult interface {
	RowsAffected() (int64, error)
}

func checkAffected(result execResult) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOutboxEventNotFound
	}
	return nil
}

var errDuplicateEvent = errors.Wrap(errors.ErrConflict, "outbox event already exists")
