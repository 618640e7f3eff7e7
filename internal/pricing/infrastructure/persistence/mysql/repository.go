package mysql

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/pricing/domain"
	"gorm.io/gorm"
)

type settingsRepository struct{ db *gorm.DB }

// NewSettingsRepository 创建设置仓储实例
func NewSettingsRepository(db *gorm.DB) domain.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (*domain.Settings, error) {
	var settings domain.Settings
	err := r.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 首次启动时播种默认设置
		settings = domain.Settings{
			StandardPrice:         decimal.NewFromFloat(10.99),
			DiscountedPrice:       decimal.NewFromFloat(5.99),
			AgeDiscountEnabled:    false,
			AgeDiscountDays:       30,
			AgeDiscountPercentage: decimal.NewFromInt(25),
		}
		if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
