package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

type Mode string

const (
	ModeDryRun Mode = "dry_run"
	ModeApply  Mode = "apply"
)

// KindSummary is the per-kind line of the run summary. Total is the batch size.
type KindSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// KindWrites lists the target ids a kind created or updated during an apply run.
type KindWrites struct {
	Created []uuid.UUID `json:"created"`
	Updated []uuid.UUID `json:"updated"`
}

// RunContext carries every piece of run-scoped state. It is created per run and discarded after.
type RunContext struct {
	RunID     uuid.UUID
	Mode      Mode
	StartedAt time.Time
	Scope     []domain.Kind

	planned   PlannedSets
	exists    map[domain.Kind]map[uuid.UUID]bool
	persisted map[domain.Kind]map[uuid.UUID]bool

	errors  *ErrorList
	counts  map[domain.Kind]*KindSummary
	writes  map[domain.Kind]*KindWrites
	repo    domain.Repository
	logger  *logrus.Entry
	metrics *runMetrics
}

func newRunContext(repo domain.Repository, planned PlannedSets, opts RunOptions, logger *logrus.Entry, metrics *runMetrics) *RunContext {
	mode := ModeDryRun
	if opts.Apply {
		mode = ModeApply
	}
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &RunContext{
		RunID:     runID,
		Mode:      mode,
		StartedAt: opts.StartedAt,
		Scope:     opts.Scope,
		planned:   planned,
		exists:    make(map[domain.Kind]map[uuid.UUID]bool),
		persisted: make(map[domain.Kind]map[uuid.UUID]bool),
		errors:    &ErrorList{},
		counts:    make(map[domain.Kind]*KindSummary),
		writes:    make(map[domain.Kind]*KindWrites),
		repo:      repo,
		logger:    logger.WithField("run_id", runID.String()),
		metrics:   metrics,
	}
}

func (rc *RunContext) Apply() bool {
	return rc.Mode == ModeApply
}

// Exists answers whether a referenced id will exist once the run finishes: it is planned
// in this run or already persisted. Store answers are memoised, positive and negative.
func (rc *RunContext) Exists(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	if rc.planned.Contains(kind, id) {
		return true, nil
	}
	if v, ok := rc.exists[kind][id]; ok {
		return v, nil
	}
	found, err := rc.repo.Exists(ctx, kind, id)
	if err != nil {
		return false, fmt.Errorf("lookup %s %s: %w", kind.Label(), id, err)
	}
	cacheBool(rc.exists, kind, id, found)
	return found, nil
}

// Persisted answers whether id is already stored, which decides create versus update.
func (rc *RunContext) Persisted(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	if v, ok := rc.persisted[kind][id]; ok {
		return v, nil
	}
	found, err := rc.repo.Exists(ctx, kind, id)
	if err != nil {
		return false, fmt.Errorf("lookup %s %s: %w", kind.Label(), id, err)
	}
	cacheBool(rc.persisted, kind, id, found)
	return found, nil
}

func (rc *RunContext) markPersisted(kind domain.Kind, id uuid.UUID) {
	cacheBool(rc.persisted, kind, id, true)
}

func cacheBool(cache map[domain.Kind]map[uuid.UUID]bool, kind domain.Kind, id uuid.UUID, v bool) {
	m, ok := cache[kind]
	if !ok {
		m = make(map[uuid.UUID]bool)
		cache[kind] = m
	}
	m[id] = v
}

func (rc *RunContext) addError(kind domain.Kind, legacyID string, class ErrorClass, format string, args ...any) {
	e := ImportError{Scope: kind, LegacyID: legacyID, Message: fmt.Sprintf(format, args...), Class: class}
	rc.errors.Add(e)
	rc.metrics.recordError(kind, class)
	rc.logger.WithFields(logrus.Fields{
		"kind":      string(kind),
		"legacy_id": legacyID,
		"class":     string(class),
	}).Warn(e.Message)
}

func (rc *RunContext) summary(kind domain.Kind) *KindSummary {
	s, ok := rc.counts[kind]
	if !ok {
		s = &KindSummary{}
		rc.counts[kind] = s
	}
	return s
}

func (rc *RunContext) recordSuccess(kind domain.Kind, id uuid.UUID, created bool) {
	s := rc.summary(kind)
	if created {
		s.Created++
	} else {
		s.Updated++
	}
	rc.metrics.recordOutcome(kind, created)
	if !rc.Apply() {
		return
	}
	w, ok := rc.writes[kind]
	if !ok {
		w = &KindWrites{}
		rc.writes[kind] = w
	}
	if created {
		w.Created = append(w.Created, id)
	} else {
		w.Updated = append(w.Updated, id)
	}
}
