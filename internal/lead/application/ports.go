package application

import (
	"context"

	lockdomain "github.com/wyfcoding/leadmarket/internal/lock/domain"
	pricingdomain "github.com/wyfcoding/leadmarket/internal/pricing/domain"
)

// 市场视图装配所依赖的下游端口，由各上下文的应用服务实现

// LockViews 锁状态读取端口
type LockViews interface {
	ViewsFor(ctx context.Context, leadIDs []uint, dealerID uint) (map[uint]lockdomain.LockView, error)
	PriorLockDiscounts(ctx context.Context, leadIDs []uint, dealerID uint) (map[uint]bool, error)
}

// PurchaseReader 购买状态读取端口
type PurchaseReader interface {
	// PurchasedLeadIDs 已购买的 lead 集合，键为 lead ID
	PurchasedLeadIDs(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error)
	// DownloadedLeadIDs 已下载的 lead 集合，键为 lead ID
	DownloadedLeadIDs(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error)
}

// SettingsReader 全局价格设置读取端口
type SettingsReader interface {
	GetSettings(ctx context.Context) (*pricingdomain.Settings, error)
}

// HiddenLeadReader dealer 隐藏列表读取端口
type HiddenLeadReader interface {
	HiddenLeads(ctx context.Context, dealerID uint) ([]uint, error)
}

// Notifier 提交确认邮件端口，尽力而为，失败不影响提交
type Notifier interface {
	LeadSubmitted(ctx context.Context, recipient, fullName string, leadID uint)
}
