package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/memstore"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

func newTestRunContext(repo domain.Repository, snap *snapshot.Snapshot, scope ...domain.Kind) *RunContext {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	opts := RunOptions{Apply: true, Scope: scope, StartedAt: runStart}
	return newRunContext(repo, Plan(snap, scope), opts, logrus.NewEntry(logger), newRunMetrics(prometheus.NewRegistry()))
}

func TestVerify_ReportsMismatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.New()

	projectID := domain.DeriveID(domain.KindProjects, "P1")
	estimateID := domain.DeriveID(domain.KindEstimates, "E1")
	taskID := domain.DeriveID(domain.KindTasks, "T1")
	store.Seed(&domain.Project{ID: projectID, LegacyID: "P1"})
	store.Seed(&domain.Task{ID: taskID, LegacyID: "T1", ProjectID: projectID})
	store.Seed(&domain.Estimate{ID: estimateID, LegacyID: "E1", ProjectID: projectID})
	store.SoftDelete(domain.KindTasks, taskID)
	require.NoError(t, store.ReplaceLines(ctx, domain.KindEstimateLines, estimateID, []*domain.DocumentLine{
		{ID: domain.LineID(domain.KindEstimateLines, "E1", 1), LineKind: domain.KindEstimateLines, ParentID: estimateID, Position: 1},
	}))

	snap := &snapshot.Snapshot{
		Projects:  []snapshot.Project{{LegacyID: "P1", Name: "A"}},
		Tasks:     []snapshot.Task{{LegacyID: "T1", ProjectLegacyID: "P1", Name: "t"}},
		Estimates: []snapshot.Estimate{{LegacyID: "E1", ProjectLegacyID: "P1", Lines: make([]snapshot.Line, 2)}},
	}
	rc := newTestRunContext(store, snap, domain.KindProjects, domain.KindTasks, domain.KindEstimates)

	require.NoError(t, verify(ctx, rc, store, snap))
	require.Equal(t, []string{
		"projects: integrity: expected 1 project_rooms, found 0",
		"tasks: integrity: expected 1 records, found 0",
		"estimates: integrity: expected 2 estimate_lines, found 1",
	}, messages(rc.errors.All()))
	require.Equal(t, map[ErrorClass]int{ClassIntegrity: 3}, rc.errors.CountByClass())
}

func TestVerify_SkipsEmptyKinds(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	snap := &snapshot.Snapshot{}
	rc := newTestRunContext(store, snap, domain.Order...)

	require.NoError(t, verify(context.Background(), rc, store, snap))
	require.Zero(t, rc.errors.Len())
}
