package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	t.Parallel()

	all, err := ParseScope("")
	require.NoError(t, err)
	require.Equal(t, Order, all)

	got, err := ParseScope(" Expenses, customers ,projects,customers")
	require.NoError(t, err)
	require.Equal(t, []Kind{KindCustomers, KindProjects, KindExpenses}, got)

	_, err = ParseScope("customers,estimate_lines")
	require.Error(t, err)

	_, err = ParseScope(" , ")
	require.Error(t, err)
}

func TestKind_LabelsAndLines(t *testing.T) {
	t.Parallel()

	require.Equal(t, "purchase order", KindPurchaseOrders.Label())
	require.Equal(t, "unknown", Kind("unknown").Label())

	lk, ok := KindInvoices.LineKind()
	require.True(t, ok)
	require.Equal(t, KindInvoiceLines, lk)

	_, ok = KindTasks.LineKind()
	require.False(t, ok)
	require.False(t, KindProjectRooms.IsBatch())
}
