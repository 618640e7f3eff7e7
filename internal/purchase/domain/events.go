package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadPurchasedEvent lead 购买完成事件
type LeadPurchasedEvent struct {
	LeadID     uint            `json:"lead_id"`
	DealerID   uint            `json:"dealer_id"`
	PricePaid  decimal.Decimal `json:"price_paid"`
	SessionID  string          `json:"session_id"`
	OccurredOn time.Time       `json:"occurred_on"`
}

// CheckoutCompletedEvent 结算会话完成事件
type CheckoutCompletedEvent struct {
	SessionID  string          `json:"session_id"`
	DealerID   uint            `json:"dealer_id"`
	Amount     decimal.Decimal `json:"amount"`
	LeadCount  int             `json:"lead_count"`
	OccurredOn time.Time       `json:"occurred_on"`
}
