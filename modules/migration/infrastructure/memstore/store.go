// Package memstore is an in-memory implementation of the migration repository and numbering
// contracts. It enforces the same keys, references and soft-delete rules as the Postgres schema.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrForeignKey   = errors.New("foreign key violation")
)

type Op string

const (
	OpCreate       Op = "create"
	OpUpdate       Op = "update"
	OpReplaceLines Op = "replace_lines"
	OpSetParent    Op = "set_parent"
	OpEnsureRoom   Op = "ensure_room"
)

type roomRow struct {
	room    domain.ProjectRoom
	deleted bool
}

type state struct {
	records map[domain.Kind]map[uuid.UUID]domain.Record
	deleted map[domain.Kind]map[uuid.UUID]bool
	lines   map[domain.Kind]map[uuid.UUID][]*domain.DocumentLine
	rooms   map[uuid.UUID]roomRow
}

func newState() state {
	return state{
		records: make(map[domain.Kind]map[uuid.UUID]domain.Record),
		deleted: make(map[domain.Kind]map[uuid.UUID]bool),
		lines:   make(map[domain.Kind]map[uuid.UUID][]*domain.DocumentLine),
		rooms:   make(map[uuid.UUID]roomRow),
	}
}

// clone copies the maps; records and lines are immutable once stored so pointers are shared.
func (s state) clone() state {
	out := newState()
	for k, m := range s.records {
		c := make(map[uuid.UUID]domain.Record, len(m))
		for id, r := range m {
			c[id] = r
		}
		out.records[k] = c
	}
	for k, m := range s.deleted {
		c := make(map[uuid.UUID]bool, len(m))
		for id, v := range m {
			c[id] = v
		}
		out.deleted[k] = c
	}
	for k, m := range s.lines {
		c := make(map[uuid.UUID][]*domain.DocumentLine, len(m))
		for id, v := range m {
			c[id] = v
		}
		out.lines[k] = c
	}
	for id, r := range s.rooms {
		out.rooms[id] = r
	}
	return out
}

// Store is safe for concurrent use, but InTx only isolates a single writer.
type Store struct {
	mu       sync.Mutex
	st       state
	failures map[Op]map[uuid.UUID]error
	lookups  int
}

func New() *Store {
	return &Store{
		st:       newState(),
		failures: make(map[Op]map[uuid.UUID]error),
	}
}

// FailOn makes op fail with err whenever it targets id (the parent id for OpReplaceLines,
// the project id for OpEnsureRoom).
func (s *Store) FailOn(op Op, id uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.failures[op]
	if !ok {
		m = make(map[uuid.UUID]error)
		s.failures[op] = m
	}
	m[id] = err
}

func (s *Store) injected(op Op, id uuid.UUID) error {
	return s.failures[op][id]
}

func (s *Store) Exists(_ context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	_, ok := s.st.records[kind][id]
	return ok, nil
}

// Lookups returns how many times Exists hit the store.
func (s *Store) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func (s *Store) Create(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, id := rec.Kind(), rec.RecordID()
	if err := s.injected(OpCreate, id); err != nil {
		return err
	}
	if _, ok := s.st.records[kind][id]; ok {
		return fmt.Errorf("%s %s: %w", kind, id, ErrDuplicateKey)
	}
	if err := s.checkRefs(rec); err != nil {
		return err
	}
	s.put(kind, id, cloneRecord(rec))
	return nil
}

func (s *Store) Update(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, id := rec.Kind(), rec.RecordID()
	if err := s.injected(OpUpdate, id); err != nil {
		return err
	}
	existing, ok := s.st.records[kind][id]
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	if err := s.checkRefs(rec); err != nil {
		return err
	}
	next := cloneRecord(rec)
	keepHierarchy(existing, next)
	s.put(kind, id, next)
	delete(s.st.deleted[kind], id)
	return nil
}

func (s *Store) put(kind domain.Kind, id uuid.UUID, rec domain.Record) {
	m, ok := s.st.records[kind]
	if !ok {
		m = make(map[uuid.UUID]domain.Record)
		s.st.records[kind] = m
	}
	m[id] = rec
}

func (s *Store) has(kind domain.Kind, id uuid.UUID) bool {
	_, ok := s.st.records[kind][id]
	return ok
}

func (s *Store) ReplaceLines(_ context.Context, lineKind domain.Kind, parentID uuid.UUID, lines []*domain.DocumentLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpReplaceLines, parentID); err != nil {
		return err
	}
	copied := make([]*domain.DocumentLine, 0, len(lines))
	for _, l := range lines {
		if l.TaskID != nil && !s.has(domain.KindTasks, *l.TaskID) {
			return fmt.Errorf("%s task %s: %w", lineKind, *l.TaskID, ErrForeignKey)
		}
		c := *l
		copied = append(copied, &c)
	}
	m, ok := s.st.lines[lineKind]
	if !ok {
		m = make(map[uuid.UUID][]*domain.DocumentLine)
		s.st.lines[lineKind] = m
	}
	if len(copied) == 0 {
		delete(m, parentID)
		return nil
	}
	m[parentID] = copied
	return nil
}

func (s *Store) SetParent(_ context.Context, kind domain.Kind, id uuid.UUID, parentID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpSetParent, id); err != nil {
		return err
	}
	existing, ok := s.st.records[kind][id]
	if !ok {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	if parentID != nil && !s.has(kind, *parentID) {
		return fmt.Errorf("%s parent %s: %w", kind, *parentID, ErrForeignKey)
	}
	next := cloneRecord(existing)
	switch r := next.(type) {
	case *domain.Project:
		r.ParentID = copyID(parentID)
	case *domain.Task:
		r.ParentID = copyID(parentID)
	default:
		return fmt.Errorf("%s has no parent link", kind)
	}
	s.put(kind, id, next)
	return nil
}

func (s *Store) ParentID(_ context.Context, kind domain.Kind, id uuid.UUID) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.st.records[kind][id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch r := rec.(type) {
	case *domain.Project:
		return copyID(r.ParentID), nil
	case *domain.Task:
		return copyID(r.ParentID), nil
	default:
		return nil, fmt.Errorf("%s has no parent link", kind)
	}
}

func (s *Store) TaskProjectID(_ context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.st.records[domain.KindTasks][taskID]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	return rec.(*domain.Task).ProjectID, nil
}

func (s *Store) DocumentNumber(_ context.Context, kind domain.Kind, id uuid.UUID) (domain.DocumentNumber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.st.records[kind][id]
	if !ok {
		return domain.DocumentNumber{}, domain.ErrNotFound
	}
	doc, ok := rec.(domain.Numbered)
	if !ok {
		return domain.DocumentNumber{}, fmt.Errorf("%s is not numbered", kind)
	}
	return doc.DocumentNumber(), nil
}

func (s *Store) EnsureProjectRoom(_ context.Context, room *domain.ProjectRoom) (domain.RoomOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpEnsureRoom, room.ProjectID); err != nil {
		return "", err
	}
	if !s.has(domain.KindProjects, room.ProjectID) {
		return "", fmt.Errorf("room project %s: %w", room.ProjectID, ErrForeignKey)
	}
	existing, ok := s.st.rooms[room.ProjectID]
	switch {
	case !ok:
		s.st.rooms[room.ProjectID] = roomRow{room: *room}
		return domain.RoomCreated, nil
	case existing.deleted:
		existing.deleted = false
		s.st.rooms[room.ProjectID] = existing
		return domain.RoomRevived, nil
	default:
		return domain.RoomUnchanged, nil
	}
}

func (s *Store) CountExisting(_ context.Context, kind domain.Kind, ids []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if s.has(kind, id) && !s.st.deleted[kind][id] {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountLines(_ context.Context, lineKind domain.Kind, parentIDs []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range parentIDs {
		n += int64(len(s.st.lines[lineKind][id]))
	}
	return n, nil
}

func (s *Store) CountProjectRooms(_ context.Context, projectIDs []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range projectIDs {
		if r, ok := s.st.rooms[id]; ok && !r.deleted {
			n++
		}
	}
	return n, nil
}

// InTx snapshots the state and restores it when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	saved := s.st.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.st = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// Get returns a copy of the stored record.
func (s *Store) Get(kind domain.Kind, id uuid.UUID) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.st.records[kind][id]
	if !ok {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Seed stores rec as if a previous run had written it.
func (s *Store) Seed(rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rec.Kind(), rec.RecordID(), cloneRecord(rec))
}

// SoftDelete marks a record deleted without removing it.
func (s *Store) SoftDelete(kind domain.Kind, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.deleted[kind]
	if !ok {
		m = make(map[uuid.UUID]bool)
		s.st.deleted[kind] = m
	}
	m[id] = true
}

func (s *Store) IsDeleted(kind domain.Kind, id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleted[kind][id]
}

// SoftDeleteRoom marks the room of projectID deleted.
func (s *Store) SoftDeleteRoom(projectID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.st.rooms[projectID]; ok {
		r.deleted = true
		s.st.rooms[projectID] = r
	}
}

// Room returns the room of projectID and whether it is soft-deleted.
func (s *Store) Room(projectID uuid.UUID) (domain.ProjectRoom, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.rooms[projectID]
	return r.room, r.deleted, ok
}

// Lines returns copies of the lines owned by parentID ordered by position.
func (s *Store) Lines(lineKind domain.Kind, parentID uuid.UUID) []domain.DocumentLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.st.lines[lineKind][parentID]
	out := make([]domain.DocumentLine, 0, len(stored))
	for _, l := range stored {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Count returns the number of stored records of kind, deleted ones included.
func (s *Store) Count(kind domain.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.records[kind])
}
