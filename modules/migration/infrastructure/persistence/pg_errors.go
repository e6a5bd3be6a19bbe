package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

var (
	ErrUniqueViolation     = errors.New("unique constraint violated")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violated")
	ErrIntegrityViolation  = errors.New("integrity constraint violated")
)

// mapPgError turns constraint failures into sentinel errors carrying the constraint name
// and server detail. Anything else passes through unchanged.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var sentinel error
	switch pgErr.Code {
	case "23505": // unique_violation
		sentinel = ErrUniqueViolation
	case "23503": // foreign_key_violation
		sentinel = ErrForeignKeyViolation
	case "23514": // check_violation
		sentinel = ErrCheckViolation
	case "23000": // integrity_constraint_violation
		sentinel = ErrIntegrityViolation
	default:
		return err
	}
	if pgErr.Detail != "" {
		return pkgerrors.Wrapf(sentinel, "%s (%s)", pgErr.ConstraintName, pgErr.Detail)
	}
	return pkgerrors.Wrap(sentinel, pgErr.ConstraintName)
}
