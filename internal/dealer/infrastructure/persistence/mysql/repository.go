// Package mysql dealer 上下文的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/dealer/domain"
)

// dealerRepository dealer 仓储的 MySQL 实现
type dealerRepository struct {
	db *gorm.DB
}

// NewDealerRepository 创建 dealer 仓储实例
func NewDealerRepository(db *gorm.DB) domain.DealerRepository {
	return &dealerRepository{db: db}
}

func (r *dealerRepository) Get(ctx context.Context, id uint) (*domain.Dealer, error) {
	var dealer domain.Dealer
	err := r.db.WithContext(ctx).First(&dealer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("dealer")
		}
		return nil, err
	}
	return &dealer, nil
}

func (r *dealerRepository) GetByEmail(ctx context.Context, email string) (*domain.Dealer, error) {
	var dealer domain.Dealer
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dealer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dealer, nil
}

func (r *dealerRepository) Save(ctx context.Context, dealer *domain.Dealer) error {
	return r.db.WithContext(ctx).Save(dealer).Error
}

func (r *dealerRepository) List(ctx context.Context) ([]*domain.Dealer, error) {
	var dealers []*domain.Dealer
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&dealers).Error; err != nil {
		return nil, err
	}
	return dealers, nil
}
