package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmtohome/backend/internal/domain/cart"
	"github.com/farmtohome/backend/internal/domain/identity"
	"github.com/farmtohome/backend/internal/domain/order"
	"github.com/farmtohome/backend/internal/domain/shared"
	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockCheckoutRepo(t *testing.T) (*GormCheckoutRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormCheckoutRepository(gormDB), mock, mockDB
}

func placedTestOrder(t *testing.T) *order.Order {
	t.Helper()

	address, err := valueobject.NewDeliveryAddress(
		"Asha Rao", "9876543210", "12 Canal Road", "Pune", "Maharashtra", "411001", nil)
	require.NoError(t, err)

	items := []order.OrderItem{{
		ProductID:   uuid.New(),
		FarmerID:    uuid.New(),
		ProductName: "Tomatoes",
		UnitPrice:   valueobject.RupeesFromString("50"),
		Quantity:    4,
		Unit:        "kg",
		Subtotal:    valueobject.RupeesFromString("200"),
	}}

	o, err := order.NewOrder(uuid.New(), items, address, order.PaymentCOD,
		valueobject.RupeesFromString("200"),
		valueobject.RupeesFromString("50"),
		valueobject.RupeesFromString("10"),
		valueobject.RupeesFromString("260"))
	require.NoError(t, err)
	o.ClearDomainEvents()
	return o
}

func TestPlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	repo, mock, mockDB := newMockCheckoutRepo(t)
	defer mockDB.Close()

	o := placedTestOrder(t)
	c, err := cart.NewCart(o.CustomerID)
	require.NoError(t, err)
	decrements := []order.StockDecrement{
		{ProductID: o.Items[0].ProductID, Quantity: 4},
	}

	mock.ExpectBegin()
	// Conditional decrement matches zero rows: not enough stock left
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.PlaceOrder(context.Background(), o, c, decrements)

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_SecondLineFailureRollsBackFirstDecrement(t *testing.T) {
	repo, mock, mockDB := newMockCheckoutRepo(t)
	defer mockDB.Close()

	o := placedTestOrder(t)
	c, err := cart.NewCart(o.CustomerID)
	require.NoError(t, err)
	decrements := []order.StockDecrement{
		{ProductID: uuid.New(), Quantity: 2},
		{ProductID: uuid.New(), Quantity: 10},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock - \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.PlaceOrder(context.Background(), o, c, decrements)

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_RestoresStockForEveryLine(t *testing.T) {
	repo, mock, mockDB := newMockCheckoutRepo(t)
	defer mockDB.Close()

	o := placedTestOrder(t)
	require.NoError(t, o.Cancel(o.CustomerID, identity.RoleCustomer, "Changed my mind"))
	o.ClearDomainEvents()

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"version"}).AddRow(o.Version)
	mock.ExpectQuery(`SELECT "version" FROM "orders"`).
		WithArgs(o.ID).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "order_status_history"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "products" SET "stock"=stock \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CancelOrder(context.Background(), o)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_MissingOrder(t *testing.T) {
	repo, mock, mockDB := newMockCheckoutRepo(t)
	defer mockDB.Close()

	o := placedTestOrder(t)
	require.NoError(t, o.Cancel(o.CustomerID, identity.RoleCustomer, ""))
	o.ClearDomainEvents()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "version" FROM "orders"`).
		WithArgs(o.ID).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectRollback()

	err := repo.CancelOrder(context.Background(), o)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelOrder_VersionMismatchAborts(t *testing.T) {
	repo, mock, mockDB := newMockCheckoutRepo(t)
	defer mockDB.Close()

	o := placedTestOrder(t)
	require.NoError(t, o.Cancel(o.CustomerID, identity.RoleCustomer, ""))
	o.ClearDomainEvents()

	mock.ExpectBegin()
	rows := sqlmock.NewRows([]string{"version"}).AddRow(o.Version + 1)
	mock.ExpectQuery(`SELECT "version" FROM "orders"`).
		WithArgs(o.ID).
		WillReturnRows(rows)
	mock.ExpectRollback()

	err := repo.CancelOrder(context.Background(), o)

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONCURRENT_MODIFICATION", domainErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
