package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/purchase/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestPurchaseRepository_CreateIfAbsent(t *testing.T) {
	t.Run("first write inserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPurchaseRepository(db)

		mock.ExpectExec("INSERT INTO `lead_purchases`").
			WillReturnResult(sqlmock.NewResult(1, 1))

		created, err := repo.CreateIfAbsent(context.Background(), &domain.Purchase{
			DealerID:  7,
			LeadID:    101,
			PricePaid: decimal.RequireFromString("10.99"),
			SessionID: "sess-1",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate write is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPurchaseRepository(db)

		// 唯一索引冲突时 ON DUPLICATE KEY 吞掉写入，影响行数为零
		mock.ExpectExec("INSERT INTO `lead_purchases`").
			WillReturnResult(sqlmock.NewResult(0, 0))

		created, err := repo.CreateIfAbsent(context.Background(), &domain.Purchase{
			DealerID: 7,
			LeadID:   101,
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPurchaseRepository_PurchasedSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPurchaseRepository(db)

	mock.ExpectQuery("SELECT `lead_id` FROM `lead_purchases`").
		WithArgs(7, 101, 102, 103).
		WillReturnRows(sqlmock.NewRows([]string{"lead_id"}).AddRow(101).AddRow(103))

	set, err := repo.PurchasedSet(context.Background(), 7, []uint{101, 102, 103})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{101: true, 103: true}, set)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseRepository_PurchasedSetEmptyInput(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewPurchaseRepository(db)

	// 空入参不应触发任何查询
	set, err := repo.PurchasedSet(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestPurchaseRepository_MarkDownloaded(t *testing.T) {
	t.Run("first download updates the row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPurchaseRepository(db)

		mock.ExpectExec("UPDATE `lead_purchases` SET").
			WillReturnResult(sqlmock.NewResult(0, 1))

		first, err := repo.MarkDownloaded(context.Background(), 7, 101, time.Now())
		require.NoError(t, err)
		assert.True(t, first)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("repeat download changes nothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPurchaseRepository(db)

		mock.ExpectExec("UPDATE `lead_purchases` SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		first, err := repo.MarkDownloaded(context.Background(), 7, 101, time.Now())
		require.NoError(t, err)
		assert.False(t, first)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCheckoutSessionRepository_GetBySessionID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCheckoutSessionRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `checkout_sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "dealer_id", "status"}))

	_, err := repo.GetBySessionID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepository_CreateIfNew(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWebhookEventRepository(db)

	mock.ExpectExec("INSERT INTO `payment_webhook_events`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `payment_webhook_events`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	event := &domain.WebhookEvent{Provider: "hostedpay", ProviderEventID: "evt_1", EventType: "checkout.session.completed"}
	created, err := repo.CreateIfNew(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, created)

	dup := &domain.WebhookEvent{Provider: "hostedpay", ProviderEventID: "evt_1", EventType: "checkout.session.completed"}
	created, err = repo.CreateIfNew(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWebhookEventRepository(db)

	rows := sqlmock.NewRows([]string{"id", "provider", "provider_event_id", "event_type", "processing_error"}).
		AddRow(4, "hostedpay", "evt_1", "checkout.session.completed", "db connection reset")
	mock.ExpectQuery("SELECT \\* FROM `payment_webhook_events`").
		WillReturnRows(rows)

	event, err := repo.Get(context.Background(), "hostedpay", "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "db connection reset", event.ProcessingError)
	assert.False(t, event.Processed())

	mock.ExpectQuery("SELECT \\* FROM `payment_webhook_events`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.Get(context.Background(), "hostedpay", "evt_missing")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookEventRepository_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWebhookEventRepository(db)

	mock.ExpectExec("UPDATE `payment_webhook_events`").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	event := &domain.WebhookEvent{
		Model:           gorm.Model{ID: 4},
		Provider:        "hostedpay",
		ProviderEventID: "evt_1",
		EventType:       "checkout.session.completed",
		ProcessedAt:     &now,
	}
	require.NoError(t, repo.Save(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}
