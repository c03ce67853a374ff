package repositories_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yashrajoria/storefront/services/order-service/models"
	repositories "github.com/yashrajoria/storefront/services/order-service/repository"
)

var orderColumns = []string{"id", "user_id", "idempotency_key", "fingerprint", "status", "subtotal_minor", "shipping_minor", "tax_minor", "total_minor", "currency", "created_at", "updated_at"}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func orderRow(id uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderColumns).
		AddRow(id.String(), "user-1", "key-1", "fp-1", status, 57290, 0, 2865, 60155, "INR", now, now)
}

func TestFindByIdempotencyKey_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repositories.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	o, err := repo.FindByIdempotencyKey(context.Background(), "user-1", "key-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, o)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_PreloadsItems(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repositories.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(orderRow(id, models.StatusCreated))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "variant_id", "product_slug", "name", "unit_price_minor", "qty"}).
			AddRow(uuid.NewString(), id.String(), 11, "assam-gold", "Assam Gold 250g", 24900, 2))

	o, err := repo.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, int64(60155), o.TotalMinor)
	if assert.Len(t, o.OrderItems, 1) {
		assert.Equal(t, int64(11), o.OrderItems[0].VariantID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatus_AllowedTransition(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repositories.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(orderRow(id, models.StatusPaymentPending))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	o, applied, err := repo.ApplyStatus(context.Background(), id, repositories.StatusChange{
		To: models.StatusPaid, PaymentID: "pay_1", At: time.Now(),
	})
	assert.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, models.StatusPaid, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStatus_IgnoredTransition(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repositories.NewGormOrderRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(orderRow(id, models.StatusPaid))
	mock.ExpectCommit()

	o, applied, err := repo.ApplyStatus(context.Background(), id, repositories.StatusChange{
		To: models.StatusFailed, Reason: "payment_failed", At: time.Now(),
	})
	assert.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, models.StatusPaid, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_SupersedesOpenOrders(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repositories.NewGormOrderRepository(gormDB)

	old := uuid.New()
	order := &models.Order{
		ID:             uuid.New(),
		UserID:         "user-1",
		IdempotencyKey: "key-2",
		Fingerprint:    "fp-1",
		Status:         models.StatusCreated,
		Currency:       "INR",
		TotalMinor:     60155,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(old.String()))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(order.ID.String()))
	mock.ExpectCommit()

	superseded, err := repo.PlaceOrder(context.Background(), order)
	assert.NoError(t, err)
	assert.Equal(t, []uuid.UUID{old}, superseded)
	assert.NoError(t, mock.ExpectationsWereMet())
}
