// Package domain purchase 上下文的领域模型：购买记录、结算会话与支付回调
package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Purchase 购买记录，(dealer_id, lead_id) 唯一
// 同一 dealer 重复购买同一 lead 不产生第二条记录
type Purchase struct {
	gorm.Model
	DealerID uint `gorm:"column:dealer_id;uniqueIndex:uidx_dealer_lead;not null" json:"dealer_id"`
	LeadID   uint `gorm:"column:lead_id;uniqueIndex:uidx_dealer_lead;not null" json:"lead_id"`
	// PricePaid 成交价，按购买时点的定价规则裁定
	PricePaid decimal.Decimal `gorm:"column:price_paid;type:decimal(10,2);not null" json:"price_paid"`
	// SessionID 产生本条记录的结算会话
	SessionID    string     `gorm:"column:session_id;type:varchar(100);index" json:"session_id"`
	Downloaded   bool       `gorm:"column:downloaded;not null;default:false" json:"downloaded"`
	DownloadedAt *time.Time `gorm:"column:downloaded_at;type:datetime" json:"downloaded_at,omitempty"`
}

func (Purchase) TableName() string { return "lead_purchases" }

// SessionStatus 结算会话状态
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// CheckoutSession 结算会话，一次会话覆盖一批 lead
type CheckoutSession struct {
	gorm.Model
	SessionID string        `gorm:"column:session_id;type:varchar(100);uniqueIndex;not null" json:"session_id"`
	DealerID  uint          `gorm:"column:dealer_id;index;not null" json:"dealer_id"`
	Status    SessionStatus `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	// Amount 会话合计金额
	Amount decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null" json:"amount"`
	// Lines 本次会话覆盖的 lead 与各自的成交价，JSON 数组
	// 价格在会话创建时点裁定，完成时不再重算
	Lines string `gorm:"column:lines;type:text;not null" json:"-"`
	// ProviderRef 支付网关侧的会话标识
	ProviderRef string     `gorm:"column:provider_ref;type:varchar(100);index" json:"provider_ref"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:datetime" json:"completed_at,omitempty"`
}

func (CheckoutSession) TableName() string { return "checkout_sessions" }

// SessionLine 会话中的一条 lead 与其锁定价
type SessionLine struct {
	LeadID uint            `json:"lead_id"`
	Price  decimal.Decimal `json:"price"`
}

// SetLines 序列化会话明细
func (s *CheckoutSession) SetLines(lines []SessionLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	s.Lines = string(data)
	return nil
}

// SessionLines 反序列化会话明细
func (s *CheckoutSession) SessionLines() ([]SessionLine, error) {
	var lines []SessionLine
	if err := json.Unmarshal([]byte(s.Lines), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// WebhookEvent 支付回调记录，(provider, provider_event_id) 唯一以去重
// 处理结果记录在行上：上次处理失败的事件在网关重投时重新处理
type WebhookEvent struct {
	gorm.Model
	Provider        string     `gorm:"column:provider;type:varchar(50);uniqueIndex:uidx_provider_event;not null" json:"provider"`
	ProviderEventID string     `gorm:"column:provider_event_id;type:varchar(100);uniqueIndex:uidx_provider_event;not null" json:"provider_event_id"`
	EventType       string     `gorm:"column:event_type;type:varchar(50);not null" json:"event_type"`
	Payload         string     `gorm:"column:payload;type:text" json:"-"`
	ProcessedAt     *time.Time `gorm:"column:processed_at;type:datetime" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"column:processing_error;type:varchar(500)" json:"processing_error,omitempty"`
}

func (WebhookEvent) TableName() string { return "payment_webhook_events" }

// Processed 事件是否已成功处理完毕
func (e *WebhookEvent) Processed() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}

// PurchaseRepository 购买记录仓储接口
type PurchaseRepository interface {
	// GetByDealerAndLead 无记录时返回 (nil, nil)
	GetByDealerAndLead(ctx context.Context, dealerID, leadID uint) (*Purchase, error)
	// CreateIfAbsent 幂等写入，已存在时返回 (false, nil)
	CreateIfAbsent(ctx context.Context, purchase *Purchase) (bool, error)
	// ListByDealer dealer 的全部购买记录
	ListByDealer(ctx context.Context, dealerID uint) ([]*Purchase, error)
	// PurchasedSet 批量判定已购买，键为 lead ID
	PurchasedSet(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error)
	// DownloadedSet 批量判定已下载，键为 lead ID
	DownloadedSet(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error)
	// MarkDownloaded 标记下载时间，首次下载返回 true
	MarkDownloaded(ctx context.Context, dealerID, leadID uint, at time.Time) (bool, error)
}

// CheckoutSessionRepository 结算会话仓储接口
type CheckoutSessionRepository interface {
	Create(ctx context.Context, session *CheckoutSession) error
	// GetBySessionID 无记录时返回 NotFound 错误
	GetBySessionID(ctx context.Context, sessionID string) (*CheckoutSession, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*CheckoutSession, error)
	Save(ctx context.Context, session *CheckoutSession) error
}

// WebhookEventRepository 回调去重仓储接口
type WebhookEventRepository interface {
	// CreateIfNew 首次出现的事件写入并返回 true，重复事件返回 false
	CreateIfNew(ctx context.Context, event *WebhookEvent) (bool, error)
	// Get 按 (provider, provider_event_id) 读取，无记录时返回 NotFound 错误
	Get(ctx context.Context, provider, providerEventID string) (*WebhookEvent, error)
	// Save 记录处理结果
	Save(ctx context.Context, event *WebhookEvent) error
}

// EventPublisher 购买事件发布接口
type EventPublisher interface {
	PublishLeadPurchased(ctx context.Context, event LeadPurchasedEvent) error
	PublishCheckoutCompleted(ctx context.Context, event CheckoutCompletedEvent) error
}
