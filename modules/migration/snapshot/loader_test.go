package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

func writeBatch(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_MissingFilesAreEmptyBatches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBatch(t, dir, "customers.json", `[{"legacyId":"C1","code":"ACME","name":"Acme","extra":"ignored"}]`)

	s, err := Load(dir, domain.Order)
	require.NoError(t, err)
	require.Len(t, s.Customers, 1)
	require.Equal(t, "ACME", s.Customers[0].Code)
	require.Empty(t, s.Vendors)
	require.Empty(t, s.Expenses)
	require.Equal(t, []string{"C1"}, s.LegacyIDs(domain.KindCustomers))
	require.Contains(t, s.Files, domain.KindCustomers)
	require.NotContains(t, s.Files, domain.KindVendors)
}

func TestLoad_OnlyReadsKindsInScope(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBatch(t, dir, "customers.json", `[{"legacyId":"C1","name":"Acme"}]`)
	writeBatch(t, dir, "vendors.json", `not json`)

	s, err := Load(dir, []domain.Kind{domain.KindCustomers})
	require.NoError(t, err)
	require.Len(t, s.Customers, 1)
}

func TestLoad_MalformedFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBatch(t, dir, "vendors.json", `{"legacyId":"V1"}`)

	_, err := Load(dir, []domain.Kind{domain.KindVendors})
	require.Error(t, err)
	require.Contains(t, err.Error(), "vendors.json")
}

func TestLoad_YAMLBatchWithLinesAndDecimals(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBatch(t, dir, "estimates.yaml", `
- legacyId: E-1
  projectLegacyId: P-1
  issueDate: "2024-03-01"
  discountPercent: 5
  lines:
    - description: Design
      quantity: 2
      unitPrice: "150.25"
      taxPercent: 12
    - description: Build
      quantity: 1.5
      unitPrice: 100
`)

	s, err := Load(dir, []domain.Kind{domain.KindEstimates})
	require.NoError(t, err)
	require.Len(t, s.Estimates, 1)

	e := s.Estimates[0]
	require.Equal(t, "2024-03-01", e.IssueDate)
	require.InDelta(t, 5.0, e.DiscountPercent, 0.0001)
	require.Len(t, e.Lines, 2)
	require.Equal(t, "150.25", e.Lines[0].UnitPrice.String())
	require.Equal(t, "1.5", e.Lines[1].Quantity.String())
	require.Equal(t, map[string]int{"E-1": 2}, s.LineCounts(domain.KindEstimates))
}

func TestLoad_EmptyFileIsEmptyBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBatch(t, dir, "tasks.json", "  \n")
	writeBatch(t, dir, "milestones.yml", "")

	s, err := Load(dir, []domain.Kind{domain.KindTasks, domain.KindMilestones})
	require.NoError(t, err)
	require.Empty(t, s.Tasks)
	require.Empty(t, s.Milestones)
}
