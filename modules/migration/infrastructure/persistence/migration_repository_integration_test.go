package persistence_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/numbering"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/persistence"
	"github.com/iota-uz/legacy-import/modules/migration/services"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
	"github.com/iota-uz/legacy-import/pkg/composables"
	"github.com/iota-uz/legacy-import/pkg/itf"
)

func integrationSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Customers: []snapshot.Customer{{Party: snapshot.Party{LegacyID: "C1", Code: "ACME", Name: "Acme"}}},
		Vendors:   []snapshot.Vendor{{Party: snapshot.Party{LegacyID: "V1", Name: "Supplies"}}},
		Projects: []snapshot.Project{
			{LegacyID: "P1", Name: "Tower", CustomerLegacyID: "C1"},
			{LegacyID: "P2", Name: "Annex", ParentLegacyID: "P1"},
		},
		Tasks: []snapshot.Task{
			{LegacyID: "T1", ProjectLegacyID: "P1", Name: "Root"},
			{LegacyID: "T2", ProjectLegacyID: "P1", ParentTaskLegacyID: "T1", Name: "Child"},
		},
		Estimates: []snapshot.Estimate{{
			LegacyID: "E1", ProjectLegacyID: "P1", IssueDate: "2024-03-01",
			Lines: []snapshot.Line{
				{Description: "Design", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100), TaxPercent: 10},
				{Description: "Survey", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(50)},
			},
		}},
		PurchaseOrders: []snapshot.PurchaseOrder{{
			LegacyID: "PO1", ProjectLegacyID: "P1", VendorLegacyID: "V1", OrderDate: "2024-02-01",
			Lines: []snapshot.Line{{Quantity: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(7), TaskLegacyID: "T1", ExpenseLegacyID: "X1"}},
		}},
		Expenses: []snapshot.Expense{{LegacyID: "X1", ProjectLegacyID: "P1", Amount: decimal.NewFromInt(21)}},
	}
}

func TestMigrationRepository_ApplyTwice(t *testing.T) {
	db := itf.NewDatabase(t)
	ctx := composables.WithPool(context.Background(), db.Pool)

	repo := persistence.NewMigrationRepository()
	svc := services.NewMigrationService(repo, numbering.NewSQLAllocator(db.SQLDB), nil)
	snap := integrationSnapshot()

	first, err := svc.Run(ctx, snap, services.RunOptions{Apply: true})
	require.NoError(t, err)
	require.Empty(t, first.Errors)
	require.Equal(t, services.IntegrityOK, first.Integrity)
	require.Equal(t, 2, first.Counts[domain.KindProjects].Created)

	estimateID := domain.DeriveID(domain.KindEstimates, "E1")
	number, err := repo.DocumentNumber(ctx, domain.KindEstimates, estimateID)
	require.NoError(t, err)
	require.Equal(t, "EST-2024-00001", number.Value)

	projectID, err := repo.TaskProjectID(ctx, domain.DeriveID(domain.KindTasks, "T2"))
	require.NoError(t, err)
	require.Equal(t, domain.DeriveID(domain.KindProjects, "P1"), projectID)

	parentID, err := repo.ParentID(ctx, domain.KindTasks, domain.DeriveID(domain.KindTasks, "T2"))
	require.NoError(t, err)
	require.Equal(t, domain.DeriveID(domain.KindTasks, "T1"), *parentID)
	parentID, err = repo.ParentID(ctx, domain.KindTasks, domain.DeriveID(domain.KindTasks, "T1"))
	require.NoError(t, err)
	require.Nil(t, parentID)

	second, err := svc.Run(ctx, snap, services.RunOptions{Apply: true})
	require.NoError(t, err)
	require.Empty(t, second.Errors)
	require.Equal(t, services.IntegrityOK, second.Integrity)
	require.Zero(t, second.Counts[domain.KindEstimates].Created)
	require.Equal(t, 1, second.Counts[domain.KindEstimates].Updated)

	number, err = repo.DocumentNumber(ctx, domain.KindEstimates, estimateID)
	require.NoError(t, err)
	require.Equal(t, "EST-2024-00001", number.Value)

	lines, err := repo.CountLines(ctx, domain.KindEstimateLines, []uuid.UUID{estimateID})
	require.NoError(t, err)
	require.Equal(t, int64(2), lines)
}

func TestMigrationRepository_RoomsAndSoftDelete(t *testing.T) {
	db := itf.NewDatabase(t)
	ctx := composables.WithPool(context.Background(), db.Pool)
	repo := persistence.NewMigrationRepository()

	projectID := domain.DeriveID(domain.KindProjects, "P1")
	require.NoError(t, repo.Create(ctx, &domain.Project{ID: projectID, LegacyID: "P1", Name: "Tower", Status: "active", Currency: "USD"}))

	room := &domain.ProjectRoom{ID: domain.ProjectRoomID("P1"), ProjectID: projectID, Name: "Tower"}
	out, err := repo.EnsureProjectRoom(ctx, room)
	require.NoError(t, err)
	require.Equal(t, domain.RoomCreated, out)

	out, err = repo.EnsureProjectRoom(ctx, room)
	require.NoError(t, err)
	require.Equal(t, domain.RoomUnchanged, out)

	_, err = db.Pool.Exec(ctx, "UPDATE project_rooms SET deleted_at = now(); UPDATE projects SET deleted_at = now()")
	require.NoError(t, err)

	n, err := repo.CountExisting(ctx, domain.KindProjects, []uuid.UUID{projectID})
	require.NoError(t, err)
	require.Zero(t, n)
	exists, err := repo.Exists(ctx, domain.KindProjects, projectID)
	require.NoError(t, err)
	require.True(t, exists)

	out, err = repo.EnsureProjectRoom(ctx, room)
	require.NoError(t, err)
	require.Equal(t, domain.RoomRevived, out)

	require.NoError(t, repo.Update(ctx, &domain.Project{ID: projectID, LegacyID: "P1", Name: "Tower 2", Status: "active", Currency: "USD"}))
	n, err = repo.CountExisting(ctx, domain.KindProjects, []uuid.UUID{projectID})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestMigrationRepository_ForeignKeyViolation(t *testing.T) {
	db := itf.NewDatabase(t)
	ctx := composables.WithPool(context.Background(), db.Pool)
	repo := persistence.NewMigrationRepository()

	err := repo.Create(ctx, &domain.Task{
		ID:        domain.DeriveID(domain.KindTasks, "T1"),
		LegacyID:  "T1",
		ProjectID: domain.DeriveID(domain.KindProjects, "missing"),
		Name:      "Orphan",
		Status:    "todo",
		Priority:  "normal",
	})
	require.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

	_, err = repo.TaskProjectID(ctx, domain.DeriveID(domain.KindTasks, "T1"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcquireRunLock_IsExclusive(t *testing.T) {
	db := itf.NewDatabase(t)
	ctx := context.Background()

	release, err := persistence.AcquireRunLock(ctx, db.Pool, 99)
	require.NoError(t, err)

	_, err = persistence.AcquireRunLock(ctx, db.Pool, 99)
	require.ErrorIs(t, err, persistence.ErrRunLocked)

	release()
	again, err := persistence.AcquireRunLock(ctx, db.Pool, 99)
	require.NoError(t, err)
	again()
}
