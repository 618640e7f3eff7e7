// Package domain 锁定上下文的领域模型：lead 锁记录、锁定目录与操作资格裁决
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LockType 锁定类型
type LockType string

const (
	LockTypeTemporary LockType = "temporary"
	LockType24Hours   LockType = "24hours"
	LockType1Week     LockType = "1week"
	LockTypePermanent LockType = "permanent"
)

// Valid 判断锁定类型是否合法
func (t LockType) Valid() bool {
	switch t {
	case LockTypeTemporary, LockType24Hours, LockType1Week, LockTypePermanent:
		return true
	}
	return false
}

// LeadLock lead 锁记录
// 同一条 lead 同一时刻至多一个活跃锁；过期采用惰性判定，失效行保留作为历史
type LeadLock struct {
	gorm.Model
	// LeadID 被锁定的 lead
	LeadID uint `gorm:"column:lead_id;index;not null" json:"lead_id"`
	// DealerID 持锁 dealer
	DealerID uint `gorm:"column:dealer_id;index;not null" json:"dealer_id"`
	// Type 锁定类型
	Type LockType `gorm:"column:lock_type;type:varchar(20);not null" json:"lock_type"`
	// Fee 锁定费用，免费临时锁为 0
	Fee decimal.Decimal `gorm:"column:fee;type:decimal(10,2);not null;default:0" json:"fee"`
	// PaymentID 付费锁对应的支付单号
	PaymentID string `gorm:"column:payment_id;type:varchar(64)" json:"payment_id"`
	// ExpiresAt 过期时间，permanent 锁为 NULL
	ExpiresAt *time.Time `gorm:"column:expires_at;type:datetime" json:"expires_at"`
	// ReleasedAt 显式解锁时间
	ReleasedAt *time.Time `gorm:"column:released_at;type:datetime" json:"released_at"`
}

func (LeadLock) TableName() string { return "lead_locks" }

// IsActive 锁是否仍然有效
// 过期判定集中在这里，所有读路径共用，过期锁等同于未锁定
func (l *LeadLock) IsActive(now time.Time) bool {
	if l == nil {
		return false
	}
	if l.ReleasedAt != nil {
		return false
	}
	if l.ExpiresAt == nil {
		// permanent 锁不会惰性过期
		return true
	}
	return now.Before(*l.ExpiresAt)
}

// LockView 某个 dealer 视角下一条 lead 的锁状态
type LockView struct {
	IsLocked  bool       `json:"is_locked"`
	IsOwnLock bool       `json:"is_own_lock"`
	Type      LockType   `json:"lock_type,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// BuildView 根据当前锁记录构造视角视图，lock 可为 nil
func BuildView(lock *LeadLock, dealerID uint, now time.Time) LockView {
	if !lock.IsActive(now) {
		return LockView{}
	}
	return LockView{
		IsLocked:  true,
		IsOwnLock: lock.DealerID == dealerID,
		Type:      lock.Type,
		ExpiresAt: lock.ExpiresAt,
	}
}
