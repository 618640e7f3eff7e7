// Package messaging lock 事件的发件箱发布实现
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/leadmarket/internal/lock/domain"
	"github.com/wyfcoding/leadmarket/pkg/outbox"
)

const (
	topicLeadLocked   = "leadmarket.lock.locked"
	topicLeadUnlocked = "leadmarket.lock.unlocked"
)

// outboxPublisher 基于发件箱模式的事件发布者实现
type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建事件发布者实例
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

func (p *outboxPublisher) PublishLeadLocked(ctx context.Context, event domain.LeadLockedEvent) error {
	return p.manager.Publish(ctx, topicLeadLocked, strconv.FormatUint(uint64(event.LeadID), 10), event)
}

func (p *outboxPublisher) PublishLeadUnlocked(ctx context.Context, event domain.LeadUnlockedEvent) error {
	return p.manager.Publish(ctx, topicLeadUnlocked, strconv.FormatUint(uint64(event.LeadID), 10), event)
}
