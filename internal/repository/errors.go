package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	appErrors "github.com/redditharbor/harbor-api/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps Postgres constraint violations onto domain errors so the
// store surfaces CONFLICT / REFERENCE_NOT_FOUND instead of raw driver
// failures.
func translate(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "duplicate external id")
		case pgForeignKeyViolation:
			return appErrors.Wrap(err, appErrors.ErrReferenceNotFound.Code, appErrors.ErrReferenceNotFound.Status, "referenced record does not exist")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
