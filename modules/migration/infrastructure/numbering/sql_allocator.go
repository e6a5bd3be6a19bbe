// Package numbering allocates document numbers from the document_sequences table.
package numbering

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

const allocateSQL = `INSERT INTO document_sequences (doc_kind, period, last_value)
VALUES ($1, $2, 1)
ON CONFLICT (doc_kind, period) DO UPDATE
	SET last_value = document_sequences.last_value + 1, updated_at = now()
RETURNING last_value`

// SQLAllocator runs every allocation as its own statement, outside the caller's transaction,
// so a rolled-back document leaves a gap instead of a reused number.
type SQLAllocator struct {
	db *sql.DB
}

func NewSQLAllocator(db *sql.DB) *SQLAllocator {
	return &SQLAllocator{db: db}
}

func (a *SQLAllocator) Allocate(ctx context.Context, kind domain.Kind, asOf time.Time) (domain.Allocation, error) {
	if _, ok := kind.LineKind(); !ok {
		return domain.Allocation{}, errors.Errorf("kind %q is not numbered", kind)
	}
	period := asOf.UTC().Year()

	var seq int64
	if err := a.db.QueryRowContext(ctx, allocateSQL, string(kind), period).Scan(&seq); err != nil {
		return domain.Allocation{}, errors.Wrapf(err, "allocate %s number for %d", kind, period)
	}
	return domain.Allocation{
		Number:   domain.FormatDocumentNumber(kind, period, seq),
		Sequence: seq,
	}, nil
}
