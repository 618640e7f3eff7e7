// Package messaging purchase 事件的发件箱发布实现
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/leadmarket/internal/purchase/domain"
	"github.com/wyfcoding/leadmarket/pkg/outbox"
)

const (
	topicLeadPurchased     = "leadmarket.purchase.completed"
	topicCheckoutCompleted = "leadmarket.checkout.completed"
)

// outboxPublisher 基于发件箱模式的事件发布者实现
type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建事件发布者实例
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

func (p *outboxPublisher) PublishLeadPurchased(ctx context.Context, event domain.LeadPurchasedEvent) error {
	return p.manager.Publish(ctx, topicLeadPurchased, strconv.FormatUint(uint64(event.LeadID), 10), event)
}

func (p *outboxPublisher) PublishCheckoutCompleted(ctx context.Context, event domain.CheckoutCompletedEvent) error {
	return p.manager.Publish(ctx, topicCheckoutCompleted, event.SessionID, event)
}
