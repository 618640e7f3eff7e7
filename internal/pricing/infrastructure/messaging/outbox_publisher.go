// Package messaging 定价事件的发件箱发布实现
package messaging

import (
	"context"

	"github.com/wyfcoding/leadmarket/internal/pricing/domain"
	"github.com/wyfcoding/leadmarket/pkg/outbox"
)

const topicSettingsUpdated = "leadmarket.pricing.settings_updated"

// outboxPublisher 基于发件箱模式的事件发布者实现
type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建事件发布者实例
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

func (p *outboxPublisher) PublishSettingsUpdated(ctx context.Context, event domain.SettingsUpdatedEvent) error {
	return p.manager.Publish(ctx, topicSettingsUpdated, "settings", event)
}
