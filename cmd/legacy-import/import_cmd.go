package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/numbering"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/persistence"
	"github.com/iota-uz/legacy-import/modules/migration/services"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
	"github.com/iota-uz/legacy-import/pkg/composables"
	"github.com/iota-uz/legacy-import/pkg/configuration"
	"github.com/iota-uz/legacy-import/pkg/metrics"
	"github.com/iota-uz/legacy-import/pkg/tracing"
)

type importOptions struct {
	inputDir    string
	outputDir   string
	only        string
	apply       bool
	reportXLSX  string
	metricsFile string
}

// importBackend is what a run writes through. The Postgres backend holds the pool and, in apply
// mode, the run lock until close is called.
type importBackend struct {
	repo      domain.Repository
	numbering domain.Numbering
	bind      func(context.Context) context.Context
	close     func()
}

type backendOpener func(ctx context.Context, conf *configuration.Configuration, apply bool) (*importBackend, error)

type importEnv struct {
	conf   *configuration.Configuration
	logger *logrus.Logger
	stdout io.Writer
	stderr io.Writer
	open   backendOpener
	now    func() time.Time
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a legacy snapshot directory (dry-run unless --apply)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			env := importEnv{
				conf:   conf,
				logger: conf.Logger(),
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
				open:   openPostgresBackend,
				now:    func() time.Time { return time.Now().UTC() },
			}
			return runImport(cmd.Context(), env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inputDir, "input", "", "Snapshot directory with one <kind>.json per batch (required)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "", "Output directory for the manifest (default: input dir)")
	cmd.Flags().StringVar(&opts.only, "only", "", "Comma separated kinds to import (default: all)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write to the database (default is dry-run)")
	cmd.Flags().StringVar(&opts.reportXLSX, "report-xlsx", "", "Write a workbook with counts and every error")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in textfile collector format")

	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runImport(ctx context.Context, env importEnv, opts importOptions) error {
	if strings.TrimSpace(opts.inputDir) == "" {
		return withCode(exitUsage, fmt.Errorf("--input is required"))
	}
	if opts.outputDir == "" {
		opts.outputDir = opts.inputDir
	}
	scope, err := domain.ParseScope(opts.only)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("invalid --only: %w", err))
	}
	if opts.apply && !env.conf.Import.ApplyConfirmed() {
		return withCode(exitSafetyNet, fmt.Errorf("refusing to apply: set IMPORT_CONFIRM_APPLY=1 to confirm"))
	}

	snap, err := snapshot.Load(opts.inputDir, scope)
	if err != nil {
		return withCode(exitValidation, err)
	}

	shutdown, err := tracing.Setup(ctx, env.conf.OpenTelemetry)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	backend, err := env.open(ctx, env.conf, opts.apply)
	if err != nil {
		var ce *cliError
		if as(err, &ce) {
			return err
		}
		return withCode(exitDB, err)
	}
	defer backend.close()

	entry := logrus.NewEntry(env.logger).WithField("input", opts.inputDir)
	ctx = composables.WithLogger(backend.bind(ctx), entry)

	svc := services.NewMigrationService(backend.repo, backend.numbering, nil)
	report, err := svc.Run(ctx, snap, services.RunOptions{
		Apply:     opts.apply,
		Scope:     scope,
		StartedAt: env.now(),
		RunID:     uuid.New(),
	})
	if err != nil {
		return withCode(exitDB, err)
	}

	if opts.apply {
		if _, err := writeManifest(opts.outputDir, opts.inputDir, report); err != nil {
			return err
		}
	}
	if opts.reportXLSX != "" {
		if err := writeReportXLSX(opts.reportXLSX, report); err != nil {
			return withCode(exitDB, fmt.Errorf("write %s: %w", opts.reportXLSX, err))
		}
	}
	if err := metrics.WriteTextfile(opts.metricsFile, report.Registry); err != nil {
		return withCode(exitDB, err)
	}
	if err := printImportSummary(env.stdout, report, env.conf.Import.ErrorLimit); err != nil {
		return err
	}

	switch {
	case report.Integrity == services.IntegrityFailed:
		return withCode(exitIntegrity, fmt.Errorf("integrity check failed: %d errors", len(report.Errors)))
	case !report.OK():
		return withCode(exitValidation, fmt.Errorf("import finished with %d errors", len(report.Errors)))
	}
	if report.Integrity == services.IntegrityOK {
		entry.WithField("run_id", report.RunID.String()).Info("integrity ok")
		fmt.Fprintln(env.stderr, "integrity ok")
	}
	return nil
}

func connectDB(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cfg, err := pgxpool.ParseConfig(conf.Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("db config: %w", err)
	}
	cfg.MaxConns = conf.Database.MaxConns
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	return pool, nil
}

func openPostgresBackend(ctx context.Context, conf *configuration.Configuration, apply bool) (*importBackend, error) {
	pool, err := connectDB(ctx, conf)
	if err != nil {
		return nil, withCode(exitDB, err)
	}

	unlock := func() {}
	if apply {
		release, err := persistence.AcquireRunLock(ctx, pool, conf.Import.LockKey)
		if err != nil {
			pool.Close()
			return nil, withCode(exitDB, err)
		}
		unlock = release
	}

	db, err := sql.Open("postgres", conf.Database.Opts)
	if err != nil {
		unlock()
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("open numbering connection: %w", err))
	}

	return &importBackend{
		repo:      persistence.NewMigrationRepository(),
		numbering: numbering.NewSQLAllocator(db),
		bind: func(ctx context.Context) context.Context {
			return composables.WithPool(ctx, pool)
		},
		close: func() {
			unlock()
			_ = db.Close()
			pool.Close()
		},
	}, nil
}

type importManifest struct {
	Version    int                                 `json:"version"`
	RunID      uuid.UUID                           `json:"runId"`
	InputDir   string                              `json:"inputDir"`
	StartedAt  time.Time                           `json:"startedAt"`
	FinishedAt time.Time                           `json:"finishedAt"`
	Kinds      map[domain.Kind]services.KindWrites `json:"kinds"`
}

// writeManifest records the target ids created and updated by an apply run.
func writeManifest(outputDir, inputDir string, report *services.Report) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", withCode(exitDB, fmt.Errorf("mkdir %s: %w", outputDir, err))
	}
	manifest := importManifest{
		Version:    1,
		RunID:      report.RunID,
		InputDir:   inputDir,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Kinds:      report.Writes,
	}
	ts := report.FinishedAt.UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("import_manifest_%s_%s.json", ts, report.RunID.String())
	path := filepath.Join(outputDir, name)
	if err := writeJSONFile(path, manifest); err != nil {
		return "", err
	}
	return path, nil
}

type importSummary struct {
	Status     string                               `json:"status"`
	RunID      string                               `json:"runId"`
	Mode       string                               `json:"mode"`
	Scope      []domain.Kind                        `json:"scope"`
	Counts     map[domain.Kind]services.KindSummary `json:"counts"`
	Errors     []services.ImportError               `json:"errors"`
	ErrorCount int                                  `json:"errorCount"`
	Integrity  string                               `json:"integrity"`
}

func buildImportSummary(report *services.Report, errorLimit int) importSummary {
	s := importSummary{
		Status:     "ok",
		RunID:      report.RunID.String(),
		Mode:       string(report.Mode),
		Scope:      report.Scope,
		Counts:     report.Counts,
		Errors:     report.FirstErrors(errorLimit),
		ErrorCount: len(report.Errors),
		Integrity:  report.Integrity,
	}
	if s.Errors == nil {
		s.Errors = []services.ImportError{}
	}
	if !report.OK() {
		s.Status = "failed"
	}
	return s
}

func printImportSummary(w io.Writer, report *services.Report, errorLimit int) error {
	return writeJSONLine(w, buildImportSummary(report, errorLimit))
}
