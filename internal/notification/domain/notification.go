// Package domain notification 上下文的领域模型：邮件模板与发送记录
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// 内置模板名
const (
	TemplateLeadSubmitted   = "lead_submitted"
	TemplatePurchaseReceipt = "purchase_receipt"
)

// EmailTemplate 邮件模板，正文为 text/template 语法
type EmailTemplate struct {
	gorm.Model
	Name     string `gorm:"column:name;type:varchar(50);uniqueIndex;not null" json:"name"`
	Subject  string `gorm:"column:subject;type:varchar(200);not null" json:"subject"`
	Body     string `gorm:"column:body;type:text;not null" json:"body"`
	IsActive bool   `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

func (EmailTemplate) TableName() string { return "email_templates" }

// NotificationStatus 发送状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification 单次发送记录
type Notification struct {
	gorm.Model
	Template  string             `gorm:"column:template;type:varchar(50);index" json:"template"`
	Recipient string             `gorm:"column:recipient;type:varchar(100);not null" json:"recipient"`
	Subject   string             `gorm:"column:subject;type:varchar(200);not null" json:"subject"`
	Body      string             `gorm:"column:body;type:text" json:"-"`
	Status    NotificationStatus `gorm:"column:status;type:varchar(20);index;not null;default:'pending'" json:"status"`
	// FailReason 最近一次失败原因
	FailReason string     `gorm:"column:fail_reason;type:varchar(500)" json:"fail_reason,omitempty"`
	SentAt     *time.Time `gorm:"column:sent_at;type:datetime" json:"sent_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// Sender 邮件投递接口
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TemplateRepository 模板仓储接口
type TemplateRepository interface {
	List(ctx context.Context) ([]*EmailTemplate, error)
	Get(ctx context.Context, id uint) (*EmailTemplate, error)
	// GetByName 无记录时返回 (nil, nil)
	GetByName(ctx context.Context, name string) (*EmailTemplate, error)
	Save(ctx context.Context, template *EmailTemplate) error
	Delete(ctx context.Context, id uint) error
}

// NotificationRepository 发送记录仓储接口
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	ListRecent(ctx context.Context, limit int) ([]*Notification, error)
}
