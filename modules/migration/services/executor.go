package services

import (
	"context"
	"fmt"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

// UpsertOp is one atomic unit of work: the parent record, its full set of child lines and an
// optional hook that runs inside the same transaction.
type UpsertOp struct {
	Record   domain.Record
	Create   bool
	LineKind domain.Kind
	Lines    []*domain.DocumentLine
	After    func(ctx context.Context) error
}

// Executor applies upserts. Child lines are never diffed: they are deleted and re-inserted.
type Executor struct {
	repo domain.Repository
}

func NewExecutor(repo domain.Repository) *Executor {
	return &Executor{repo: repo}
}

// Save writes a record without children, outside of any explicit transaction.
func (e *Executor) Save(ctx context.Context, rec domain.Record, create bool) error {
	if create {
		return e.repo.Create(ctx, rec)
	}
	return e.repo.Update(ctx, rec)
}

// Upsert runs the parent write, child replacement and hook in a single transaction.
// Any failure rolls the whole unit back.
func (e *Executor) Upsert(ctx context.Context, op UpsertOp) error {
	return e.repo.InTx(ctx, func(txCtx context.Context) error {
		if err := e.Save(txCtx, op.Record, op.Create); err != nil {
			return err
		}
		if op.LineKind != "" {
			if err := e.repo.ReplaceLines(txCtx, op.LineKind, op.Record.RecordID(), op.Lines); err != nil {
				return fmt.Errorf("replace %s: %w", op.LineKind, err)
			}
		}
		if op.After != nil {
			return op.After(txCtx)
		}
		return nil
	})
}
