package application

import (
	"bytes"
	"context"
	"log/slog"
	"text/template"
	"time"

	"github.com/wyfcoding/leadmarket/internal/notification/domain"
	"github.com/wyfcoding/leadmarket/pkg/metrics"
)

// NotificationService 渲染模板并投递邮件，记录每次发送
// 发送失败只记录，从不向业务流程传播
type NotificationService struct {
	templates     domain.TemplateRepository
	notifications domain.NotificationRepository
	sender        domain.Sender
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewNotificationService 创建通知服务实例
func NewNotificationService(
	templates domain.TemplateRepository,
	notifications domain.NotificationRepository,
	sender domain.Sender,
	m *metrics.Metrics,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		templates:     templates,
		notifications: notifications,
		sender:        sender,
		metrics:       m,
		logger:        logger.With("service", "notification"),
	}
}

// Deliver 按模板名渲染并发送
// 模板缺失或停用时静默跳过
func (s *NotificationService) Deliver(ctx context.Context, templateName, recipient string, data map[string]any) {
	tmpl, err := s.templates.GetByName(ctx, templateName)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load email template", "template", templateName, "error", err)
		return
	}
	if tmpl == nil || !tmpl.IsActive {
		s.logger.DebugContext(ctx, "email template missing or inactive", "template", templateName)
		return
	}

	subject, err := render(tmpl.Subject, data)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to render email subject", "template", templateName, "error", err)
		return
	}
	body, err := render(tmpl.Body, data)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to render email body", "template", templateName, "error", err)
		return
	}

	record := &domain.Notification{
		Template:  templateName,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    domain.NotificationStatusPending,
	}
	if err := s.notifications.Save(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "failed to persist notification", "template", templateName, "error", err)
		return
	}

	if err := s.sender.Send(ctx, recipient, subject, body); err != nil {
		record.Status = domain.NotificationStatusFailed
		record.FailReason = err.Error()
		s.logger.WarnContext(ctx, "failed to send notification",
			"template", templateName, "recipient", recipient, "error", err)
	} else {
		now := time.Now()
		record.Status = domain.NotificationStatusSent
		record.SentAt = &now
		if s.metrics != nil {
			s.metrics.NotificationsSentTotal.Inc()
		}
	}

	if err := s.notifications.Save(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "failed to update notification record", "error", err)
	}
}

// LeadSubmitted 申请提交后的确认邮件
func (s *NotificationService) LeadSubmitted(ctx context.Context, recipient, fullName string, leadID uint) {
	s.Deliver(ctx, domain.TemplateLeadSubmitted, recipient, map[string]any{
		"FullName": fullName,
		"LeadID":   leadID,
	})
}

// PurchaseCompleted 购买完成后的回执邮件
func (s *NotificationService) PurchaseCompleted(ctx context.Context, recipient string, leadCount int, amount string) {
	s.Deliver(ctx, domain.TemplatePurchaseReceipt, recipient, map[string]any{
		"LeadCount": leadCount,
		"Amount":    amount,
	})
}

// ListRecent 最近的发送记录
func (s *NotificationService) ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.notifications.ListRecent(ctx, limit)
}

func render(text string, data map[string]any) (string, error) {
	tmpl, err := template.New("email").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
