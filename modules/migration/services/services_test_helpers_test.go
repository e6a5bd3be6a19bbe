package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/infrastructure/memstore"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

var runStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	store *memstore.Store
	alloc *memstore.Allocator
	svc   *MigrationService
}

func newFixture() *fixture {
	store := memstore.New()
	alloc := memstore.NewAllocator()
	return &fixture{store: store, alloc: alloc, svc: NewMigrationService(store, alloc, nil)}
}

func (f *fixture) run(t *testing.T, snap *snapshot.Snapshot, apply bool, scope ...domain.Kind) *Report {
	t.Helper()
	report, err := f.svc.Run(context.Background(), snap, RunOptions{Apply: apply, Scope: scope, StartedAt: runStart})
	require.NoError(t, err)
	return report
}

// baseSnapshot is a small consistent dataset touching every kind.
func baseSnapshot() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Customers: []snapshot.Customer{
			{Party: snapshot.Party{LegacyID: "C1", Code: "ACME", Name: "Acme", Currency: "usd", Status: "Active"}},
		},
		Vendors: []snapshot.Vendor{
			{Party: snapshot.Party{LegacyID: "V1", Code: "SUP", Name: "Supplies Ltd"}, TaxID: "TX-1"},
		},
		Projects: []snapshot.Project{
			{LegacyID: "P1", Code: "PRJ-1", Name: "Tower", CustomerLegacyID: "C1", StartDate: "2024-01-01", EndDate: "2024-12-31", Budget: dec("1000.555"), Currency: "EUR"},
			{LegacyID: "P2", Code: "PRJ-2", Name: "Tower annex", CustomerLegacyID: "C1", ParentLegacyID: "P1"},
		},
		Tasks: []snapshot.Task{
			{LegacyID: "T1", ProjectLegacyID: "P1", Name: "Foundations", Status: "in progress", EstimatedHours: dec("40"), PercentComplete: 50},
			{LegacyID: "T2", ProjectLegacyID: "P1", ParentTaskLegacyID: "T1", Name: "Rebar", Priority: "HIGH"},
		},
		Milestones: []snapshot.Milestone{
			{LegacyID: "M1", ProjectLegacyID: "P1", Name: "Slab poured", Amount: dec("5000"), DueDate: "2024-04-01"},
		},
		Estimates: []snapshot.Estimate{
			{
				LegacyID: "E1", ProjectLegacyID: "P1", IssueDate: "2024-03-01", ValidUntil: "2024-04-01", Currency: "usd",
				Lines: []snapshot.Line{
					{Description: "Design", Quantity: dec("2"), UnitPrice: dec("100"), TaxPercent: 10},
					{Description: "Survey", Quantity: dec("1"), UnitPrice: dec("50")},
				},
			},
		},
		Invoices: []snapshot.Invoice{
			{
				LegacyID: "I1", ProjectLegacyID: "P1", EstimateLegacyID: "E1", MilestoneLegacyID: "M1",
				PreferredNumber: "LEGACY-77", IssueDate: "2024-04-02", DueDate: "2024-05-02",
				Lines: []snapshot.Line{{Description: "Design", Quantity: dec("2"), UnitPrice: dec("100"), TaxPercent: 10}},
			},
		},
		PurchaseOrders: []snapshot.PurchaseOrder{
			{
				LegacyID: "PO1", ProjectLegacyID: "P1", VendorLegacyID: "V1", OrderDate: "2024-02-01",
				Lines: []snapshot.Line{
					{Description: "Cement", Quantity: dec("10"), UnitCost: dec("12.5"), TaskLegacyID: "T1", ExpenseLegacyID: "X1"},
				},
			},
		},
		VendorQuotes: []snapshot.VendorQuote{
			{
				LegacyID: "Q1", ProjectLegacyID: "P1", VendorLegacyID: "V1", QuoteDate: "2024-01-15",
				Lines: []snapshot.Line{{Description: "Cement", Quantity: dec("10"), UnitCost: dec("12")}},
			},
		},
		VendorInvoices: []snapshot.VendorInvoice{
			{
				LegacyID: "VI1", ProjectLegacyID: "P1", VendorLegacyID: "V1", PurchaseOrderLegacyID: "PO1", InvoiceDate: "2024-02-20",
				Lines: []snapshot.Line{{Description: "Cement", Quantity: dec("10"), UnitCost: dec("12.5")}},
			},
		},
		TimeEntries: []snapshot.TimeEntry{
			{LegacyID: "TE1", ProjectLegacyID: "P1", TaskLegacyID: "T1", WorkDate: "2024-03-04", Hours: dec("7.5"), BillableRate: dec("80"), Billable: true},
		},
		Expenses: []snapshot.Expense{
			{LegacyID: "X1", ProjectLegacyID: "P1", TaskLegacyID: "T1", VendorLegacyID: "V1", ExpenseDate: "2024-02-21", Amount: dec("125"), Category: "Materials"},
		},
	}
}

func messages(errs []ImportError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.String()
	}
	return out
}
