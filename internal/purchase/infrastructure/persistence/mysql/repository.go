// Package mysql purchase 上下文的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/purchase/domain"
)

// purchaseRepository 购买记录仓储的 MySQL 实现
type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository 创建购买记录仓储实例
func NewPurchaseRepository(db *gorm.DB) domain.PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) GetByDealerAndLead(ctx context.Context, dealerID, leadID uint) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := r.db.WithContext(ctx).
		Where("dealer_id = ? AND lead_id = ?", dealerID, leadID).
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

// CreateIfAbsent 借助 (dealer_id, lead_id) 唯一索引幂等写入
func (r *purchaseRepository) CreateIfAbsent(ctx context.Context, purchase *domain.Purchase) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(purchase)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *purchaseRepository) ListByDealer(ctx context.Context, dealerID uint) ([]*domain.Purchase, error) {
	var purchases []*domain.Purchase
	err := r.db.WithContext(ctx).
		Where("dealer_id = ?", dealerID).
		Order("created_at DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepository) PurchasedSet(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(leadIDs))
	if len(leadIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("dealer_id = ? AND lead_id IN ?", dealerID, leadIDs).
		Pluck("lead_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *purchaseRepository) DownloadedSet(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(leadIDs))
	if len(leadIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("dealer_id = ? AND lead_id IN ? AND downloaded = ?", dealerID, leadIDs, true).
		Pluck("lead_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *purchaseRepository) MarkDownloaded(ctx context.Context, dealerID, leadID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Purchase{}).
		Where("dealer_id = ? AND lead_id = ? AND downloaded = ?", dealerID, leadID, false).
		Updates(map[string]any{"downloaded": true, "downloaded_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// checkoutSessionRepository 结算会话仓储的 MySQL 实现
type checkoutSessionRepository struct {
	db *gorm.DB
}

// NewCheckoutSessionRepository 创建结算会话仓储实例
func NewCheckoutSessionRepository(db *gorm.DB) domain.CheckoutSessionRepository {
	return &checkoutSessionRepository{db: db}
}

func (r *checkoutSessionRepository) Create(ctx context.Context, session *domain.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *checkoutSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("checkout session")
		}
		return nil, err
	}
	return &session, nil
}

func (r *checkoutSessionRepository) GetByProviderRef(ctx context.Context, providerRef string) (*domain.CheckoutSession, error) {
	var session domain.CheckoutSession
	err := r.db.WithContext(ctx).Where("provider_ref = ?", providerRef).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("checkout session")
		}
		return nil, err
	}
	return &session, nil
}

func (r *checkoutSessionRepository) Save(ctx context.Context, session *domain.CheckoutSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// webhookEventRepository 回调去重仓储的 MySQL 实现
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository 创建回调去重仓储实例
func NewWebhookEventRepository(db *gorm.DB) domain.WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// CreateIfNew 借助 (provider, provider_event_id) 唯一索引去重
func (r *webhookEventRepository) CreateIfNew(ctx context.Context, event *domain.WebhookEvent) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *webhookEventRepository) Get(ctx context.Context, provider, providerEventID string) (*domain.WebhookEvent, error) {
	var event domain.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("webhook event")
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *webhookEventRepository) Save(ctx context.Context, event *domain.WebhookEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}
