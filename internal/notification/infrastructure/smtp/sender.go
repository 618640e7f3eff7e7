// Package smtp 基于 SMTP 的邮件投递实现
package smtp

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/wyfcoding/leadmarket/internal/notification/domain"
	"github.com/wyfcoding/leadmarket/pkg/config"
	"github.com/wyfcoding/leadmarket/pkg/logger"
)

// sender SMTP 投递器
// Enabled 为 false 时只写日志，开发环境无需真实邮件服务
type sender struct {
	cfg config.SMTPConfig
}

// NewSender 创建投递器实例
func NewSender(cfg config.SMTPConfig) domain.Sender {
	return &sender{cfg: cfg}
}

func (s *sender) Send(ctx context.Context, to, subject, body string) error {
	if !s.cfg.Enabled {
		logger.Info(ctx, "SMTP disabled, logging email instead",
			"to", to, "subject", subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + s.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
