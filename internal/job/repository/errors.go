package repository

import (
	"github.com/allisson/piicrypt/internal/errors"
)

var errDuplicateJob = errors.Wrap(errors.ErrConflict, "job already exists")
