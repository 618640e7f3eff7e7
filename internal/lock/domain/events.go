package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadLockedEvent lead 加锁事件
type LeadLockedEvent struct {
	LeadID     uint            `json:"lead_id"`
	DealerID   uint            `json:"dealer_id"`
	Type       LockType        `json:"lock_type"`
	Fee        decimal.Decimal `json:"fee"`
	ExpiresAt  *time.Time      `json:"expires_at,omitempty"`
	OccurredOn time.Time       `json:"occurred_on"`
}

// LeadUnlockedEvent lead 解锁事件
type LeadUnlockedEvent struct {
	LeadID     uint      `json:"lead_id"`
	DealerID   uint      `json:"dealer_id"`
	ByAdmin    bool      `json:"by_admin"`
	OccurredOn time.Time `json:"occurred_on"`
}
