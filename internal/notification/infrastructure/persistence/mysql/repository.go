// Package mysql notification 上下文的 GORM 持久化实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/notification/domain"
)

// templateRepository 模板仓储的 MySQL 实现
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓储实例
func NewTemplateRepository(db *gorm.DB) domain.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) List(ctx context.Context) ([]*domain.EmailTemplate, error) {
	var templates []*domain.EmailTemplate
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) Get(ctx context.Context, id uint) (*domain.EmailTemplate, error) {
	var tmpl domain.EmailTemplate
	err := r.db.WithContext(ctx).First(&tmpl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("email template")
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) GetByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	var tmpl domain.EmailTemplate
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) Save(ctx context.Context, template *domain.EmailTemplate) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *templateRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.EmailTemplate{}, id).Error
}

// notificationRepository 发送记录仓储的 MySQL 实现
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建发送记录仓储实例
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Save(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
