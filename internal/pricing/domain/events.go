package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsUpdatedEvent 全局价格设置变更事件
type SettingsUpdatedEvent struct {
	StandardPrice         decimal.Decimal `json:"standard_price"`
	DiscountedPrice       decimal.Decimal `json:"discounted_price"`
	AgeDiscountEnabled    bool            `json:"age_discount_enabled"`
	AgeDiscountDays       int             `json:"age_discount_days"`
	AgeDiscountPercentage decimal.Decimal `json:"age_discount_percentage"`
	OccurredOn            time.Time       `json:"occurred_on"`
}
