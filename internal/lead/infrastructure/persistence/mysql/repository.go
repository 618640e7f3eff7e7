// Package mysql lead 上下文的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
)

// leadRepository lead 仓储的 MySQL 实现
type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository 创建 lead 仓储实例
func NewLeadRepository(db *gorm.DB) domain.LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Get(ctx context.Context, id uint) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("lead")
		}
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) Save(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

func (r *leadRepository) ListMarket(ctx context.Context, excludeIDs []uint) ([]*domain.Lead, error) {
	query := r.db.WithContext(ctx).
		Where("status IN ?", []domain.LeadStatus{domain.LeadStatusSubmitted, domain.LeadStatusApproved})
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var leads []*domain.Lead
	if err := query.Order("submission_date DESC").Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *leadRepository) ListByIDs(ctx context.Context, ids []uint) ([]*domain.Lead, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var leads []*domain.Lead
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *leadRepository) ListAll(ctx context.Context, status domain.LeadStatus, limit, offset int) ([]*domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []*domain.Lead
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}
