package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

// upsertPlan is what a kind-specific builder hands back for a valid record.
type upsertPlan struct {
	record   domain.Record
	lineKind domain.Kind
	lines    []*domain.DocumentLine
	number   *numberRequest
	room     *domain.ProjectRoom
}

type numberRequest struct {
	preferred string
	asOf      *time.Time
}

// batchSpec describes one kind to the shared import template.
type batchSpec[T any] struct {
	kind     domain.Kind
	legacyID func(T) string
	// code returns the human-facing code checked for duplicates; nil when the kind has none.
	code func(T) string
	// build validates rec through chk and returns the write plan. A non-nil error aborts the run.
	build func(ctx context.Context, chk *recordCheck, rec T) (*upsertPlan, error)
}

type importer struct {
	rc        *RunContext
	repo      domain.Repository
	exec      *Executor
	numbering domain.Numbering
}

// runBatch imports one kind and returns the legacy ids that were written (or would be, in dry-run).
func runBatch[T any](ctx context.Context, im *importer, spec batchSpec[T], rows []T) (map[string]bool, error) {
	rc := im.rc
	summary := rc.summary(spec.kind)
	summary.Total = len(rows)
	done := make(map[string]bool, len(rows))

	if hasDuplicates(rc, spec, rows) {
		return done, nil
	}

	for _, row := range rows {
		legacyID := spec.legacyID(row)
		chk := newRecordCheck(rc, spec.kind, legacyID)
		chk.structure(row)

		plan, err := spec.build(ctx, chk, row)
		if err != nil {
			return nil, err
		}
		if !chk.ok() || plan == nil {
			continue
		}

		id := plan.record.RecordID()
		persisted, err := rc.Persisted(ctx, spec.kind, id)
		if err != nil {
			return nil, err
		}
		create := !persisted

		if rc.Apply() {
			if err := im.write(ctx, plan, create); err != nil {
				rc.addError(spec.kind, legacyID, ClassWrite, "write failed: %v", err)
				continue
			}
			rc.markPersisted(spec.kind, id)
		}
		rc.recordSuccess(spec.kind, id, create)
		done[legacyID] = true
	}
	return done, nil
}

// hasDuplicates reports every repeated legacy id and code. Codes compare case-insensitively.
func hasDuplicates[T any](rc *RunContext, spec batchSpec[T], rows []T) bool {
	fold := cases.Fold()
	seenIDs := make(map[string]struct{}, len(rows))
	seenCodes := make(map[string]struct{}, len(rows))
	dup := false
	for _, row := range rows {
		legacyID := spec.legacyID(row)
		if strings.TrimSpace(legacyID) != "" {
			if _, ok := seenIDs[legacyID]; ok {
				rc.addError(spec.kind, legacyID, ClassValidation, "duplicate legacyId: %s", legacyID)
				dup = true
			}
			seenIDs[legacyID] = struct{}{}
		}
		if spec.code == nil {
			continue
		}
		key, ok := codeKey(fold, spec.code(row))
		if !ok {
			continue
		}
		if _, dup := seenCodes[key]; dup {
			rc.addError(spec.kind, legacyID, ClassValidation, "duplicate code: %s", strings.TrimSpace(spec.code(row)))
			dup = true
		}
		seenCodes[key] = struct{}{}
	}
	return dup
}

func (im *importer) write(ctx context.Context, plan *upsertPlan, create bool) error {
	if plan.number != nil {
		if err := im.assignNumber(ctx, plan, create); err != nil {
			return err
		}
	}
	if plan.lineKind == "" && plan.room == nil {
		return im.exec.Save(ctx, plan.record, create)
	}

	op := UpsertOp{
		Record:   plan.record,
		Create:   create,
		LineKind: plan.lineKind,
		Lines:    plan.lines,
	}
	var roomOutcome domain.RoomOutcome
	if plan.room != nil {
		op.After = func(txCtx context.Context) error {
			out, err := im.repo.EnsureProjectRoom(txCtx, plan.room)
			roomOutcome = out
			return err
		}
	}
	if err := im.exec.Upsert(ctx, op); err != nil {
		return err
	}
	if plan.room != nil {
		im.rc.metrics.recordRoom(roomOutcome)
	}
	return nil
}

// assignNumber gives a new document its number and carries the stored number forward on update.
func (im *importer) assignNumber(ctx context.Context, plan *upsertPlan, create bool) error {
	doc, ok := plan.record.(domain.Numbered)
	if !ok {
		return nil
	}
	kind := plan.record.Kind()

	if !create {
		existing, err := im.repo.DocumentNumber(ctx, kind, plan.record.RecordID())
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		doc.SetDocumentNumber(existing)
		return nil
	}

	if preferred := strings.TrimSpace(plan.number.preferred); preferred != "" {
		doc.SetDocumentNumber(domain.DocumentNumber{Value: preferred})
		return nil
	}

	asOf := im.rc.StartedAt
	if plan.number.asOf != nil {
		asOf = *plan.number.asOf
	}
	alloc, err := im.numbering.Allocate(ctx, kind, asOf)
	if err != nil {
		return err
	}
	seq := alloc.Sequence
	doc.SetDocumentNumber(domain.DocumentNumber{Value: alloc.Number, Sequence: &seq})
	return nil
}
