// Package persistence is the Postgres implementation of the migration repository. Statements
// run on the transaction carried by the context, or on the pool outside of one.
package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/pkg/composables"
)

type MigrationRepository struct{}

func NewMigrationRepository() domain.Repository {
	return &MigrationRepository{}
}

func (r *MigrationRepository) Exists(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	m, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var found bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", m.table)
	if err := tx.QueryRow(ctx, query, pgUUID(id)).Scan(&found); err != nil {
		return false, errors.Wrapf(err, "exists %s", kind)
	}
	return found, nil
}

func (r *MigrationRepository) Create(ctx context.Context, rec domain.Record) error {
	m, err := tableFor(rec.Kind())
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, m.insertSQL(), m.args(rec)...); err != nil {
		return errors.Wrapf(mapPgError(err), "insert %s", m.table)
	}
	return nil
}

func (r *MigrationRepository) Update(ctx context.Context, rec domain.Record) error {
	m, err := tableFor(rec.Kind())
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, m.updateSQL(), m.args(rec)...)
	if err != nil {
		return errors.Wrapf(mapPgError(err), "update %s", m.table)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(domain.ErrNotFound, "update %s %s", m.table, rec.RecordID())
	}
	return nil
}

func (r *MigrationRepository) ReplaceLines(ctx context.Context, lineKind domain.Kind, parentID uuid.UUID, lines []*domain.DocumentLine) error {
	m, err := lineTableFor(lineKind)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", m.table, m.parentColumn)
	if _, err := tx.Exec(ctx, del, pgUUID(parentID)); err != nil {
		return errors.Wrapf(mapPgError(err), "delete %s", m.table)
	}
	if len(lines) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, m.row(l))
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{m.table}, m.columns(), pgx.CopyFromRows(rows))
	if err != nil {
		return errors.Wrapf(mapPgError(err), "copy %s", m.table)
	}
	if n != int64(len(lines)) {
		return fmt.Errorf("copy %s: wrote %d of %d rows", m.table, n, len(lines))
	}
	return nil
}

func (r *MigrationRepository) SetParent(ctx context.Context, kind domain.Kind, id uuid.UUID, parentID *uuid.UUID) error {
	m, err := tableFor(kind)
	if err != nil {
		return err
	}
	if !m.parent {
		return fmt.Errorf("%s has no parent link", kind)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET parent_id = $2, updated_at = now() WHERE id = $1", m.table)
	tag, err := tx.Exec(ctx, query, pgUUID(id), pgNullUUID(parentID))
	if err != nil {
		return errors.Wrapf(mapPgError(err), "set parent %s", m.table)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(domain.ErrNotFound, "set parent %s %s", m.table, id)
	}
	return nil
}

func (r *MigrationRepository) ParentID(ctx context.Context, kind domain.Kind, id uuid.UUID) (*uuid.UUID, error) {
	m, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if !m.parent {
		return nil, fmt.Errorf("%s has no parent link", kind)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var parentID pgtype.UUID
	query := fmt.Sprintf("SELECT parent_id FROM %s WHERE id = $1", m.table)
	if err := tx.QueryRow(ctx, query, pgUUID(id)).Scan(&parentID); err != nil {
		return nil, errors.Wrapf(mapPgError(err), "parent of %s %s", m.table, id)
	}
	if !parentID.Valid {
		return nil, nil
	}
	out := uuid.UUID(parentID.Bytes)
	return &out, nil
}

func (r *MigrationRepository) TaskProjectID(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	var projectID pgtype.UUID
	if err := tx.QueryRow(ctx, "SELECT project_id FROM tasks WHERE id = $1", pgUUID(taskID)).Scan(&projectID); err != nil {
		return uuid.Nil, mapPgError(err)
	}
	return uuid.UUID(projectID.Bytes), nil
}

func (r *MigrationRepository) DocumentNumber(ctx context.Context, kind domain.Kind, id uuid.UUID) (domain.DocumentNumber, error) {
	m, err := tableFor(kind)
	if err != nil {
		return domain.DocumentNumber{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return domain.DocumentNumber{}, err
	}

	var (
		number string
		seq    pgtype.Int8
	)
	query := fmt.Sprintf("SELECT number, number_sequence FROM %s WHERE id = $1", m.table)
	if err := tx.QueryRow(ctx, query, pgUUID(id)).Scan(&number, &seq); err != nil {
		return domain.DocumentNumber{}, mapPgError(err)
	}
	out := domain.DocumentNumber{Value: number}
	if seq.Valid {
		v := seq.Int64
		out.Sequence = &v
	}
	return out, nil
}

// EnsureProjectRoom inserts the room, revives a soft-deleted one, or leaves a live one alone.
// xmax is zero only for freshly inserted tuples.
func (r *MigrationRepository) EnsureProjectRoom(ctx context.Context, room *domain.ProjectRoom) (domain.RoomOutcome, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return "", err
	}
	var inserted bool
	err = tx.QueryRow(ctx, `
		INSERT INTO project_rooms (id, project_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id) DO UPDATE
			SET deleted_at = NULL
			WHERE project_rooms.deleted_at IS NOT NULL
		RETURNING (xmax = 0)`,
		pgUUID(room.ID), pgUUID(room.ProjectID), room.Name,
	).Scan(&inserted)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return domain.RoomUnchanged, nil
	case err != nil:
		return "", errors.Wrap(mapPgError(err), "ensure project room")
	case inserted:
		return domain.RoomCreated, nil
	default:
		return domain.RoomRevived, nil
	}
}

func (r *MigrationRepository) CountExisting(ctx context.Context, kind domain.Kind, ids []uuid.UUID) (int64, error) {
	m, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ANY($1::uuid[]) AND deleted_at IS NULL", m.table)
	return r.count(ctx, query, ids)
}

func (r *MigrationRepository) CountLines(ctx context.Context, lineKind domain.Kind, parentIDs []uuid.UUID) (int64, error) {
	m, err := lineTableFor(lineKind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ANY($1::uuid[])", m.table, m.parentColumn)
	return r.count(ctx, query, parentIDs)
}

func (r *MigrationRepository) CountProjectRooms(ctx context.Context, projectIDs []uuid.UUID) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM project_rooms WHERE project_id = ANY($1::uuid[]) AND deleted_at IS NULL", projectIDs)
}

func (r *MigrationRepository) count(ctx context.Context, query string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.QueryRow(ctx, query, uuidStrings(ids)).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}

func (r *MigrationRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InTx(ctx, fn)
}
