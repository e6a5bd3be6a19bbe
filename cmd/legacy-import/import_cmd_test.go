package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/memstore"
	"github.com/iota-uz/legacy-import/modules/migration/services"
	"github.com/iota-uz/legacy-import/pkg/configuration"
)

var cliNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type cliHarness struct {
	store  *memstore.Store
	alloc  *memstore.Allocator
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	opened int
	env    importEnv
}

func newCLIHarness(confirm string, errorLimit int) *cliHarness {
	h := &cliHarness{
		store:  memstore.New(),
		alloc:  memstore.NewAllocator(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h.env = importEnv{
		conf: &configuration.Configuration{
			Import: configuration.ImportOptions{ConfirmApply: confirm, ErrorLimit: errorLimit},
		},
		logger: logger,
		stdout: h.stdout,
		stderr: h.stderr,
		open: func(context.Context, *configuration.Configuration, bool) (*importBackend, error) {
			h.opened++
			return &importBackend{
				repo:      h.store,
				numbering: h.alloc,
				bind:      func(ctx context.Context) context.Context { return ctx },
				close:     func() {},
			}, nil
		},
		now: func() time.Time { return cliNow },
	}
	return h
}

func (h *cliHarness) summary(t *testing.T) importSummary {
	t.Helper()
	var s importSummary
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &s))
	return s
}

func writeSnapshotFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func validSnapshotDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSnapshotFile(t, dir, "customers.json", `[{"legacyId":"C1","code":"ACME","name":"Acme","currency":"USD"}]`)
	writeSnapshotFile(t, dir, "projects.json", `[{"legacyId":"P1","code":"PRJ-1","name":"Tower","customerLegacyId":"C1"}]`)
	writeSnapshotFile(t, dir, "tasks.json", `[{"legacyId":"T1","projectLegacyId":"P1","name":"Foundations"}]`)
	return dir
}

func TestRunImport_ApplyWritesManifestReportAndMetrics(t *testing.T) {
	t.Parallel()

	dir := validSnapshotDir(t)
	out := t.TempDir()
	h := newCLIHarness("yes", 50)
	opts := importOptions{
		inputDir:    dir,
		outputDir:   out,
		apply:       true,
		reportXLSX:  filepath.Join(out, "report.xlsx"),
		metricsFile: filepath.Join(out, "metrics", "import.prom"),
	}

	require.NoError(t, runImport(context.Background(), h.env, opts))

	s := h.summary(t)
	require.Equal(t, "ok", s.Status)
	require.Equal(t, "apply", s.Mode)
	require.Equal(t, services.IntegrityOK, s.Integrity)
	require.Empty(t, s.Errors)
	require.Equal(t, services.KindSummary{Created: 1, Total: 1}, s.Counts[domain.KindProjects])
	require.Equal(t, services.KindSummary{}, s.Counts[domain.KindExpenses])
	require.Contains(t, h.stderr.String(), "integrity ok")
	require.Equal(t, 3, h.store.Count(domain.KindCustomers)+h.store.Count(domain.KindProjects)+h.store.Count(domain.KindTasks))

	manifests, err := filepath.Glob(filepath.Join(out, "import_manifest_*_"+s.RunID+".json"))
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	var m importManifest
	b, err := os.ReadFile(manifests[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, &m))
	require.Equal(t, 1, m.Version)
	require.Equal(t, dir, m.InputDir)
	require.Equal(t, domain.DeriveID(domain.KindTasks, "T1"), m.Kinds[domain.KindTasks].Created[0])

	wb, err := excelize.OpenFile(opts.reportXLSX)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	require.Equal(t, []string{summarySheet, errorsSheet}, wb.GetSheetList())
	v, err := wb.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	require.Equal(t, "run_id", v)

	prom, err := os.ReadFile(opts.metricsFile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `legacy_import_records_total{kind="projects",outcome="created"} 1`)
}

func TestRunImport_DryRunDoesNotWriteManifest(t *testing.T) {
	t.Parallel()

	dir := validSnapshotDir(t)
	h := newCLIHarness("", 50)

	require.NoError(t, runImport(context.Background(), h.env, importOptions{inputDir: dir}))

	s := h.summary(t)
	require.Equal(t, "dry_run", s.Mode)
	require.Equal(t, services.IntegritySkipped, s.Integrity)
	require.Equal(t, services.KindSummary{Created: 1, Total: 1}, s.Counts[domain.KindTasks])
	require.Zero(t, h.store.Count(domain.KindTasks))
	manifests, err := filepath.Glob(filepath.Join(dir, "import_manifest_*.json"))
	require.NoError(t, err)
	require.Empty(t, manifests)
}

func TestRunImport_ApplyRequiresConfirmation(t *testing.T) {
	t.Parallel()

	for _, confirm := range []string{"", "0", "no", "maybe"} {
		h := newCLIHarness(confirm, 50)
		err := runImport(context.Background(), h.env, importOptions{inputDir: validSnapshotDir(t), apply: true})
		require.Error(t, err)
		require.Equal(t, exitSafetyNet, exitCode(err), "confirm=%q", confirm)
		require.Zero(t, h.opened)
	}
	for _, confirm := range []string{"1", "TRUE", " Yes "} {
		h := newCLIHarness(confirm, 50)
		require.NoError(t, runImport(context.Background(), h.env, importOptions{inputDir: validSnapshotDir(t), apply: true}))
	}
}

func TestRunImport_UsageAndInputErrors(t *testing.T) {
	t.Parallel()

	h := newCLIHarness("1", 50)
	err := runImport(context.Background(), h.env, importOptions{})
	require.Equal(t, exitUsage, exitCode(err))

	err = runImport(context.Background(), h.env, importOptions{inputDir: t.TempDir(), only: "projects,widgets"})
	require.Equal(t, exitUsage, exitCode(err))
	require.Contains(t, err.Error(), `unknown kind "widgets"`)

	dir := t.TempDir()
	writeSnapshotFile(t, dir, "projects.json", `[{"legacyId":`)
	err = runImport(context.Background(), h.env, importOptions{inputDir: dir})
	require.Equal(t, exitValidation, exitCode(err))
	require.Zero(t, h.opened)
}

func TestRunImport_BackendFailureIsDBExit(t *testing.T) {
	t.Parallel()

	h := newCLIHarness("", 50)
	h.env.open = func(context.Context, *configuration.Configuration, bool) (*importBackend, error) {
		return nil, errors.New("connection refused")
	}
	err := runImport(context.Background(), h.env, importOptions{inputDir: validSnapshotDir(t)})
	require.Equal(t, exitDB, exitCode(err))
	require.Empty(t, h.stdout.String())
}

func TestRunImport_RecordErrorsAreCappedInSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeSnapshotFile(t, dir, "tasks.json", `[
		{"legacyId":"T1","projectLegacyId":"P404","name":"a"},
		{"legacyId":"T2","projectLegacyId":"P404","name":"b"},
		{"legacyId":"T3","projectLegacyId":"P404","name":"c"}
	]`)
	h := newCLIHarness("", 2)
	closed := false
	open := h.env.open
	h.env.open = func(ctx context.Context, conf *configuration.Configuration, apply bool) (*importBackend, error) {
		b, err := open(ctx, conf, apply)
		if err != nil {
			return nil, err
		}
		b.close = func() { closed = true }
		return b, nil
	}

	err := runImport(context.Background(), h.env, importOptions{inputDir: dir, only: "tasks"})
	require.Equal(t, exitValidation, exitCode(err))
	require.True(t, closed)

	s := h.summary(t)
	require.Equal(t, "failed", s.Status)
	require.Equal(t, []domain.Kind{domain.KindTasks}, s.Scope)
	require.Equal(t, 3, s.ErrorCount)
	require.Len(t, s.Errors, 2)
	require.Equal(t, "T1", s.Errors[0].LegacyID)
	require.Equal(t, "project not found: P404", s.Errors[0].Message)
}

func TestWriteReportXLSX_ListsEveryError(t *testing.T) {
	t.Parallel()

	report := &services.Report{
		Mode:      services.ModeApply,
		Scope:     []domain.Kind{domain.KindVendors},
		Counts:    map[domain.Kind]services.KindSummary{domain.KindVendors: {Created: 1, Total: 4}},
		Integrity: services.IntegritySkipped,
	}
	for i := 1; i <= 3; i++ {
		report.Errors = append(report.Errors, services.ImportError{
			Scope:    domain.KindVendors,
			LegacyID: fmt.Sprintf("V%d", i),
			Message:  "name: is required",
			Class:    services.ClassValidation,
		})
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, writeReportXLSX(path, report))

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	rows, err := wb.GetRows(errorsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, []string{"vendors", "V3", "validation", "name: is required"}, rows[3])

	summary, err := wb.GetRows(summarySheet)
	require.NoError(t, err)
	require.Equal(t, []string{"vendors", "1", "0", "4", "3"}, summary[len(summary)-1])
}

func TestDeriveTargetID(t *testing.T) {
	t.Parallel()

	id, err := deriveTargetID(" Projects ", "P1")
	require.NoError(t, err)
	require.Equal(t, domain.DeriveID(domain.KindProjects, "P1"), id)

	_, err = deriveTargetID("project_rooms", "P1")
	require.Equal(t, exitUsage, exitCode(err))
	_, err = deriveTargetID("projects", " ")
	require.Equal(t, exitUsage, exitCode(err))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, 1, exitCode(errors.New("boom")))
	require.Equal(t, exitIntegrity, exitCode(fmt.Errorf("wrapped: %w", withCode(exitIntegrity, errors.New("x")))))
	require.NoError(t, withCode(exitDB, nil))
}
