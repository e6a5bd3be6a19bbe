package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("record not found")

type RoomOutcome string

const (
	RoomCreated   RoomOutcome = "created"
	RoomRevived   RoomOutcome = "revived"
	RoomUnchanged RoomOutcome = "unchanged"
)

// Repository is the persisted store the importers reconcile against. Existence checks see
// soft-deleted rows; counts only see live rows.
type Repository interface {
	Exists(ctx context.Context, kind Kind, id uuid.UUID) (bool, error)
	Create(ctx context.Context, rec Record) error
	// Update overwrites every field of rec and clears its soft-delete marker.
	Update(ctx context.Context, rec Record) error
	// ReplaceLines deletes every line of lineKind owned by parentID and inserts lines.
	ReplaceLines(ctx context.Context, lineKind Kind, parentID uuid.UUID, lines []*DocumentLine) error
	SetParent(ctx context.Context, kind Kind, id uuid.UUID, parentID *uuid.UUID) error
	// ParentID returns the stored hierarchy link of a persisted project or task (nil when unset)
	// or ErrNotFound.
	ParentID(ctx context.Context, kind Kind, id uuid.UUID) (*uuid.UUID, error)
	// TaskProjectID returns the project of a persisted task or ErrNotFound.
	TaskProjectID(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error)
	// DocumentNumber returns the stored number of a persisted document or ErrNotFound.
	DocumentNumber(ctx context.Context, kind Kind, id uuid.UUID) (DocumentNumber, error)
	EnsureProjectRoom(ctx context.Context, room *ProjectRoom) (RoomOutcome, error)
	CountExisting(ctx context.Context, kind Kind, ids []uuid.UUID) (int64, error)
	CountLines(ctx context.Context, lineKind Kind, parentIDs []uuid.UUID) (int64, error)
	CountProjectRooms(ctx context.Context, projectIDs []uuid.UUID) (int64, error)
	// InTx runs fn atomically: either every write made through the returned context lands or none does.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Allocation struct {
	Number   string
	Sequence int64
}

// Numbering hands out document numbers. Every call consumes a sequence slot.
type Numbering interface {
	Allocate(ctx context.Context, kind Kind, asOf time.Time) (Allocation, error)
}
