package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newInvoice(t *testing.T, owner uuid.UUID, invoiceType invoicing.InvoiceType, number string, date time.Time, net int64) *invoicing.Invoice {
	t.Helper()
	inv, err := invoicing.NewInvoice(
		invoicing.SideClient, owner, invoiceType, number, date,
		valueobject.ARS, valueobject.NewMoneyARS(decimal.NewFromInt(net)), decimal.Zero,
	)
	require.NoError(t, err)
	return inv
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestGormInvoiceRepository_FindByID(t *testing.T) {
	t.Run("maps rows to the domain invoice", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(db)

		id, owner := uuid.New(), uuid.New()
		rows := sqlmock.NewRows([]string{"id", "version", "side", "owner_id", "type", "number", "currency", "net", "tax_rate", "total", "amount_imputed", "paid"}).
			AddRow(id.String(), 3, "CLIENT", owner.String(), "A", "0001-00000012", "ARS", "100", "21", "121", "0", false)

		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnRows(rows)

		inv, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, inv.ID)
		assert.Equal(t, 3, inv.Version)
		assert.Equal(t, invoicing.SideClient, inv.Side)
		assert.Equal(t, valueobject.ARS, inv.Currency)
		assert.True(t, inv.Total.Equal(decimal.NewFromInt(121)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for a missing invoice", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(db)

		id := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		inv, err := repo.FindByID(context.Background(), id)
		assert.Nil(t, inv)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SaveWithLock_Mock(t *testing.T) {
	t.Run("stale version is a concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormInvoiceRepository(db)

		inv := newInvoice(t, uuid.New(), invoicing.InvoiceTypeA, "1", day(1), 100)

		mock.ExpectExec(`UPDATE "invoices" SET .* WHERE id = \$6 AND version = \$7`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "invoices" WHERE id = \$1`).
			WithArgs(inv.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.SaveWithLock(context.Background(), inv)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, inv.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormInvoiceRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)

	inv := newInvoice(t, uuid.New(), invoicing.InvoiceTypeA, "0001-1", day(1), 100)
	require.NoError(t, repo.Save(ctx, inv))

	t.Run("writes balances and bumps the version", func(t *testing.T) {
		inv.Total = decimal.NewFromInt(40)
		inv.AmountImputed = decimal.NewFromInt(60)

		require.NoError(t, repo.SaveWithLock(ctx, inv))
		assert.Equal(t, 2, inv.Version)

		stored, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Version)
		assert.True(t, stored.Total.Equal(decimal.NewFromInt(40)))
		assert.True(t, stored.AmountImputed.Equal(decimal.NewFromInt(60)))
		assert.False(t, stored.Paid)
	})

	t.Run("rejects a stale copy", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)

		inv.Total = decimal.Zero
		inv.Paid = true
		require.NoError(t, repo.SaveWithLock(ctx, inv))

		stale.Total = decimal.NewFromInt(1)
		err = repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("unknown invoice is not found", func(t *testing.T) {
		other := newInvoice(t, uuid.New(), invoicing.InvoiceTypeA, "0001-2", day(1), 100)
		err := repo.SaveWithLock(ctx, other)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_Save_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(setupTestDB(t))
	owner := uuid.New()

	require.NoError(t, repo.Save(ctx, newInvoice(t, owner, invoicing.InvoiceTypeA, "0001-7", day(1), 100)))

	err := repo.Save(ctx, newInvoice(t, owner, invoicing.InvoiceTypeA, "0001-7", day(2), 50))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormInvoiceRepository_FindOutstanding(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(setupTestDB(t))
	owner := uuid.New()

	late := newInvoice(t, owner, invoicing.InvoiceTypeA, "0001-3", day(10), 100)
	early := newInvoice(t, owner, invoicing.InvoiceTypeB, "0001-1", day(2), 80)
	paid := newInvoice(t, owner, invoicing.InvoiceTypeA, "0001-2", day(5), 50)
	paid.Total, paid.AmountImputed, paid.Paid = decimal.Zero, decimal.NewFromInt(50), true
	creditNote := newInvoice(t, owner, invoicing.InvoiceTypeNCA, "0001-9", day(1), 150)
	otherOwner := newInvoice(t, uuid.New(), invoicing.InvoiceTypeA, "0001-4", day(1), 70)

	for _, inv := range []*invoicing.Invoice{late, early, paid, creditNote, otherOwner} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	outstanding, err := repo.FindOutstanding(ctx, invoicing.SideClient, owner, valueobject.ARS)
	require.NoError(t, err)
	require.Len(t, outstanding, 2)
	assert.Equal(t, early.ID, outstanding[0].ID)
	assert.Equal(t, late.ID, outstanding[1].ID)

	none, err := repo.FindOutstanding(ctx, invoicing.SideProvider, owner, valueobject.ARS)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormInvoiceRepository_FindAllAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewGormInvoiceRepository(setupTestDB(t))
	owner := uuid.New()

	for i, number := range []string{"0001-1", "0001-2", "0001-3"} {
		require.NoError(t, repo.Save(ctx, newInvoice(t, owner, invoicing.InvoiceTypeA, number, day(i+1), 100)))
	}
	require.NoError(t, repo.Save(ctx, newInvoice(t, owner, invoicing.InvoiceTypeNCA, "0001-4", day(4), 10)))

	filter := shared.Filter{
		Page:     1,
		PageSize: 2,
		OrderBy:  "date",
		OrderDir: "asc",
		Filters:  map[string]interface{}{"owner_id": owner, "credit_note": false},
	}
	page, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "0001-1", page[0].Number)
	assert.Equal(t, "0001-2", page[1].Number)

	total, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	found, err := repo.FindByIDs(ctx, []uuid.UUID{page[0].ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
