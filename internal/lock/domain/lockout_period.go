package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LockoutPeriod 可购买的锁定时长目录项，admin 维护
type LockoutPeriod struct {
	gorm.Model
	// Name 展示名称
	Name string `gorm:"column:name;type:varchar(50);not null" json:"name"`
	// Hours 锁定小时数，0 表示 permanent
	Hours int `gorm:"column:hours;not null" json:"hours"`
	// Fee 锁定费用
	Fee decimal.Decimal `gorm:"column:fee;type:decimal(10,2);not null" json:"fee"`
	// IsActive 是否可选
	IsActive bool `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

func (LockoutPeriod) TableName() string { return "lockout_periods" }

// Duration 目录项对应的锁定时长，permanent 返回 (0, false)
func (p *LockoutPeriod) Duration() (time.Duration, bool) {
	if p.Hours <= 0 {
		return 0, false
	}
	return time.Duration(p.Hours) * time.Hour, true
}

// LockTypeHours 付费锁定类型到目录小时数的映射
var LockTypeHours = map[LockType]int{
	LockType24Hours:   24,
	LockType1Week:     168,
	LockTypePermanent: 0,
}
