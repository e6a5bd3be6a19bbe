package numbering

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

func TestSQLAllocator_Allocate(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences")).
		WithArgs("invoices", 2024).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(42)))

	a := NewSQLAllocator(db)
	got, err := a.Allocate(context.Background(), domain.KindInvoices, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, domain.Allocation{Number: "INV-2024-00042", Sequence: 42}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAllocator_UsesUTCYear(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences")).
		WithArgs("purchase_orders", 2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(1)))

	tz := time.FixedZone("UTC-5", -5*3600)
	got, err := NewSQLAllocator(db).Allocate(context.Background(), domain.KindPurchaseOrders, time.Date(2024, 12, 31, 22, 0, 0, 0, tz))
	require.NoError(t, err)
	require.Equal(t, "PO-2025-00001", got.Number)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAllocator_WrapsErrors(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences")).WillReturnError(boom)

	_, err = NewSQLAllocator(db).Allocate(context.Background(), domain.KindEstimates, time.Now())
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "allocate estimates number")
}

func TestSQLAllocator_RejectsUnnumberedKinds(t *testing.T) {
	t.Parallel()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLAllocator(db).Allocate(context.Background(), domain.KindTasks, time.Now())
	require.EqualError(t, err, `kind "tasks" is not numbered`)
}
