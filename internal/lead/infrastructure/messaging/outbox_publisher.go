// Package messaging lead 事件的发件箱发布实现
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	"github.com/wyfcoding/leadmarket/pkg/outbox"
)

const (
	topicLeadSubmitted     = "leadmarket.lead.submitted"
	topicLeadStatusChanged = "leadmarket.lead.status_changed"
)

// outboxPublisher 基于发件箱模式的事件发布者实现
type outboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建事件发布者实例
func NewOutboxPublisher(manager *outbox.Manager) domain.EventPublisher {
	return &outboxPublisher{manager: manager}
}

func (p *outboxPublisher) PublishLeadSubmitted(ctx context.Context, event domain.LeadSubmittedEvent) error {
	return p.manager.Publish(ctx, topicLeadSubmitted, strconv.FormatUint(uint64(event.LeadID), 10), event)
}

func (p *outboxPublisher) PublishLeadStatusChanged(ctx context.Context, event domain.LeadStatusChangedEvent) error {
	return p.manager.Publish(ctx, topicLeadStatusChanged, strconv.FormatUint(uint64(event.LeadID), 10), event)
}
