// Package domain 定价上下文的领域模型：全局价格设置与价格裁决规则
package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settings 全局市场价格设置，单行表
type Settings struct {
	gorm.Model
	// StandardPrice 标准售价
	StandardPrice decimal.Decimal `gorm:"column:standard_price;type:decimal(10,2);not null" json:"standard_price"`
	// DiscountedPrice 折扣售价
	DiscountedPrice decimal.Decimal `gorm:"column:discounted_price;type:decimal(10,2);not null" json:"discounted_price"`
	// AgeDiscountEnabled 是否启用账龄折扣
	AgeDiscountEnabled bool `gorm:"column:age_discount_enabled;not null;default:false" json:"age_discount_enabled"`
	// AgeDiscountDays 账龄折扣天数阈值
	AgeDiscountDays int `gorm:"column:age_discount_days;not null;default:30" json:"age_discount_days"`
	// AgeDiscountPercentage 账龄折扣百分比（仅展示用，折后价取 DiscountedPrice）
	AgeDiscountPercentage decimal.Decimal `gorm:"column:age_discount_percentage;type:decimal(5,2);not null;default:0" json:"age_discount_percentage"`
}

func (Settings) TableName() string { return "marketplace_settings" }

// AgeDiscount 账龄折扣规则视图
func (s *Settings) AgeDiscount() AgeDiscountSettings {
	return AgeDiscountSettings{
		Enabled:       s.AgeDiscountEnabled,
		DaysThreshold: s.AgeDiscountDays,
		Percentage:    s.AgeDiscountPercentage,
	}
}

// SettingsRepository 设置仓储接口
type SettingsRepository interface {
	// Get 读取全局设置（始终存在，启动时播种）
	Get(ctx context.Context) (*Settings, error)
	// Save 更新全局设置
	Save(ctx context.Context, settings *Settings) error
}

// EventPublisher 定价事件发布接口
type EventPublisher interface {
	PublishSettingsUpdated(ctx context.Context, event SettingsUpdatedEvent) error
}
