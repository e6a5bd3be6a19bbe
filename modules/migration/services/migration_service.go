package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
	"github.com/iota-uz/legacy-import/pkg/composables"
)

const (
	IntegrityOK      = "ok"
	IntegrityFailed  = "failed"
	IntegritySkipped = "skipped"
)

var ErrNumberingRequired = errors.New("apply mode requires a document numbering allocator")

type RunOptions struct {
	Apply     bool
	Scope     []domain.Kind
	StartedAt time.Time
	// RunID is generated when left nil.
	RunID uuid.UUID
}

// Report is the outcome of one run.
type Report struct {
	RunID      uuid.UUID
	Mode       Mode
	Scope      []domain.Kind
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     map[domain.Kind]KindSummary
	Writes     map[domain.Kind]KindWrites
	Errors     []ImportError
	Integrity  string
	// Registry holds the run's metrics for export.
	Registry *prometheus.Registry
}

func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// FirstErrors returns at most n errors in discovery order.
func (r *Report) FirstErrors(n int) []ImportError {
	l := ErrorList{items: r.Errors}
	return l.First(n)
}

func (r *Report) ErrorsByClass() map[ErrorClass]int {
	l := ErrorList{items: r.Errors}
	return l.CountByClass()
}

// MigrationService runs the importers in dependency order and verifies the result.
type MigrationService struct {
	repo      domain.Repository
	numbering domain.Numbering
	logger    *logrus.Entry
	tracer    trace.Tracer
}

// NewMigrationService wires the store and allocator. A nil logger falls back to the context logger.
func NewMigrationService(repo domain.Repository, numbering domain.Numbering, logger *logrus.Entry) *MigrationService {
	return &MigrationService{
		repo:      repo,
		numbering: numbering,
		logger:    logger,
		tracer:    otel.Tracer("legacy-import/migration"),
	}
}

// Run imports snap. Record-level problems end up in the report; the returned error is reserved for
// failures that make continuing pointless (store unreachable, cancelled context).
func (s *MigrationService) Run(ctx context.Context, snap *snapshot.Snapshot, opts RunOptions) (*Report, error) {
	if opts.Apply && s.numbering == nil {
		return nil, ErrNumberingRequired
	}
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now().UTC()
	}
	if len(opts.Scope) == 0 {
		opts.Scope = append([]domain.Kind(nil), domain.Order...)
	}

	logger := s.logger
	if logger == nil {
		logger = composables.UseLogger(ctx)
	}
	reg := prometheus.NewRegistry()
	rc := newRunContext(s.repo, Plan(snap, opts.Scope), opts, logger, newRunMetrics(reg))
	im := &importer{rc: rc, repo: s.repo, exec: NewExecutor(s.repo), numbering: s.numbering}

	ctx, span := s.tracer.Start(ctx, "legacy_import.run", trace.WithAttributes(
		attribute.String("run_id", rc.RunID.String()),
		attribute.String("mode", string(rc.Mode)),
	))
	defer span.End()

	rc.logger.WithField("mode", string(rc.Mode)).Info("import started")
	for _, kind := range opts.Scope {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.runKind(ctx, im, kind, snap); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("import %s: %w", kind, err)
		}
	}

	integrity := IntegritySkipped
	if rc.Apply() && rc.errors.Len() == 0 {
		if err := verify(ctx, rc, s.repo, snap); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("verify: %w", err)
		}
		integrity = IntegrityOK
		if rc.errors.Len() > 0 {
			integrity = IntegrityFailed
		}
	}

	report := &Report{
		RunID:      rc.RunID,
		Mode:       rc.Mode,
		Scope:      opts.Scope,
		StartedAt:  opts.StartedAt,
		FinishedAt: time.Now().UTC(),
		Counts:     make(map[domain.Kind]KindSummary, len(opts.Scope)),
		Writes:     make(map[domain.Kind]KindWrites, len(rc.writes)),
		Errors:     rc.errors.All(),
		Integrity:  integrity,
		Registry:   reg,
	}
	for _, kind := range opts.Scope {
		report.Counts[kind] = *rc.summary(kind)
	}
	for kind, w := range rc.writes {
		report.Writes[kind] = *w
	}

	rc.logger.WithFields(logrus.Fields{
		"errors":    len(report.Errors),
		"integrity": integrity,
	}).Info("import finished")
	return report, nil
}

func (s *MigrationService) runKind(ctx context.Context, im *importer, kind domain.Kind, snap *snapshot.Snapshot) error {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "legacy_import.kind", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.Int("records", snap.Len(kind)),
	))
	defer span.End()

	if err := im.importKind(ctx, kind, snap); err != nil {
		span.RecordError(err)
		return err
	}
	im.rc.metrics.observeKind(kind, time.Since(started))

	summary := im.rc.summary(kind)
	im.rc.logger.WithFields(logrus.Fields{
		"kind":    string(kind),
		"created": summary.Created,
		"updated": summary.Updated,
		"total":   summary.Total,
		"errors":  im.rc.errors.CountForKind(kind),
	}).Info("kind imported")
	return nil
}

func (im *importer) importKind(ctx context.Context, kind domain.Kind, snap *snapshot.Snapshot) error {
	switch kind {
	case domain.KindCustomers:
		return im.importCustomers(ctx, snap.Customers)
	case domain.KindVendors:
		return im.importVendors(ctx, snap.Vendors)
	case domain.KindProjects:
		return im.importProjects(ctx, snap.Projects)
	case domain.KindTasks:
		return im.importTasks(ctx, snap.Tasks)
	case domain.KindMilestones:
		return im.importMilestones(ctx, snap.Milestones)
	case domain.KindEstimates:
		return im.importEstimates(ctx, snap.Estimates)
	case domain.KindInvoices:
		return im.importInvoices(ctx, snap.Invoices)
	case domain.KindPurchaseOrders:
		return im.importPurchaseOrders(ctx, snap.PurchaseOrders)
	case domain.KindVendorQuotes:
		return im.importVendorQuotes(ctx, snap.VendorQuotes)
	case domain.KindVendorInvoices:
		return im.importVendorInvoices(ctx, snap.VendorInvoices)
	case domain.KindTimeEntries:
		return im.importTimeEntries(ctx, snap.TimeEntries)
	case domain.KindExpenses:
		return im.importExpenses(ctx, snap.Expenses)
	default:
		return fmt.Errorf("unsupported kind %q", kind)
	}
}
