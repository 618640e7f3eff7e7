package application

import (
	"context"

	"github.com/shopspring/decimal"

	dealerdomain "github.com/wyfcoding/leadmarket/internal/dealer/domain"
	leadapp "github.com/wyfcoding/leadmarket/internal/lead/application"
	leaddomain "github.com/wyfcoding/leadmarket/internal/lead/domain"
)

// SelectionBuilder 批量选择计价端口，由市场查询服务实现
type SelectionBuilder interface {
	BuildSelection(ctx context.Context, dealerID uint, leadIDs []uint) (*leadapp.SelectionResult, error)
}

// LeadReader 下载导出时读取 lead 全量字段的端口
type LeadReader interface {
	Get(ctx context.Context, id uint) (*leaddomain.Lead, error)
}

// DealerReader 回执收件人查询端口
type DealerReader interface {
	Get(ctx context.Context, id uint) (*dealerdomain.Dealer, error)
}

// PurchaseNotifier 购买回执邮件端口，尽力而为
type PurchaseNotifier interface {
	PurchaseCompleted(ctx context.Context, recipient string, leadCount int, amount string)
}

// ProviderSessionRequest 支付网关会话请求
type ProviderSessionRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// ProviderSession 支付网关会话
type ProviderSession struct {
	ProviderRef string
	RedirectURL string
}

// PaymentProvider 支付网关端口
type PaymentProvider interface {
	Name() string
	CreateSession(ctx context.Context, req ProviderSessionRequest) (*ProviderSession, error)
	// SessionPaid 向网关查询会话是否已支付
	SessionPaid(ctx context.Context, providerRef string) (bool, error)
	// VerifySignature 校验回调签名，不合法时返回错误
	VerifySignature(payload []byte, signature string) error
}
