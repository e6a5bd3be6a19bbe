package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDeriveID_IsStableAcrossRuns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind     Kind
		legacyID string
		want     string
	}{
		{KindCustomers, "C-001", "bdb20d37-41a3-57e8-b3ef-1d376f104966"},
		{KindProjects, "P-100", "1eb119c3-541a-5b15-a45f-372ab97d5f73"},
	}
	for _, tc := range cases {
		got := DeriveID(tc.kind, tc.legacyID)
		require.Equal(t, tc.want, got.String())
		require.Equal(t, uuid.Version(5), got.Version())
		require.Equal(t, uuid.RFC4122, got.Variant())
		require.Equal(t, got, DeriveID(tc.kind, tc.legacyID))
	}
}

func TestDeriveID_KindIsPartOfTheName(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, DeriveID(KindCustomers, "42"), DeriveID(KindVendors, "42"))
	require.NotEqual(t, DeriveID(KindCustomers, "42"), DeriveID(KindCustomers, "43"))
}

func TestLineID(t *testing.T) {
	t.Parallel()

	require.Equal(t, "5e50c9d3-ab3d-55b6-8da8-f2fc83fda5c9", LineID(KindEstimateLines, "E-1", 1).String())
	require.NotEqual(t, LineID(KindEstimateLines, "E-1", 1), LineID(KindEstimateLines, "E-1", 2))
	require.Equal(t, DeriveID(KindProjectRooms, "P-1"), ProjectRoomID("P-1"))
}

func TestFormatDocumentNumber(t *testing.T) {
	t.Parallel()

	require.Equal(t, "INV-2024-00042", FormatDocumentNumber(KindInvoices, 2024, 42))
	require.Equal(t, "PO-2023-123456", FormatDocumentNumber(KindPurchaseOrders, 2023, 123456))
	require.Empty(t, KindTasks.NumberPrefix())
}
