// Package domain lead 上下文的领域模型：贷款申请记录与多步表单
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeadStatus 申请状态
type LeadStatus string

const (
	LeadStatusDraft     LeadStatus = "draft"
	LeadStatusSubmitted LeadStatus = "submitted"
	LeadStatusApproved  LeadStatus = "approved"
	LeadStatusRejected  LeadStatus = "rejected"
)

// Valid 判断状态是否合法
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusDraft, LeadStatusSubmitted, LeadStatusApproved, LeadStatusRejected:
		return true
	}
	return false
}

// VehicleType 车辆类型
type VehicleType string

const (
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeCaravan    VehicleType = "caravan"
	VehicleTypeOther      VehicleType = "other"
)

// Lead 贷款申请记录
// 正常流程不做硬删除，dealer 端通过各自的隐藏列表排除
type Lead struct {
	gorm.Model
	// 申请人信息
	FullName string `gorm:"column:full_name;type:varchar(100);not null" json:"full_name"`
	Email    string `gorm:"column:email;type:varchar(100);not null" json:"email"`
	Phone    string `gorm:"column:phone;type:varchar(30)" json:"phone"`
	City     string `gorm:"column:city;type:varchar(100)" json:"city"`
	// 车辆信息
	VehicleType  VehicleType     `gorm:"column:vehicle_type;type:varchar(20)" json:"vehicle_type"`
	VehiclePrice decimal.Decimal `gorm:"column:vehicle_price;type:decimal(12,2)" json:"vehicle_price"`
	// 财务信息
	LoanAmount    decimal.Decimal `gorm:"column:loan_amount;type:decimal(12,2)" json:"loan_amount"`
	Employment    string          `gorm:"column:employment;type:varchar(50)" json:"employment"`
	MonthlyIncome decimal.Decimal `gorm:"column:monthly_income;type:decimal(12,2)" json:"monthly_income"`
	// Consent 申请人同意数据转交
	Consent bool `gorm:"column:consent;not null;default:false" json:"consent"`
	// Status 申请状态
	Status LeadStatus `gorm:"column:status;type:varchar(20);index;not null;default:'draft'" json:"status"`
	// SubmissionDate 提交时间，草稿为 NULL
	SubmissionDate *time.Time `gorm:"column:submission_date;type:datetime;index" json:"submission_date"`
	// DraftStep 草稿已完成的最后一步
	DraftStep FormStep `gorm:"column:draft_step;type:varchar(20)" json:"draft_step,omitempty"`
	// 单条价格覆盖，NULL 时回落到全局设置
	StandardPrice   *decimal.Decimal `gorm:"column:standard_price;type:decimal(10,2)" json:"standard_price,omitempty"`
	DiscountedPrice *decimal.Decimal `gorm:"column:discounted_price;type:decimal(10,2)" json:"discounted_price,omitempty"`
}

func (Lead) TableName() string { return "leads" }

// SubmittedAt 提交时间，草稿返回零值
func (l *Lead) SubmittedAt() time.Time {
	if l.SubmissionDate == nil {
		return time.Time{}
	}
	return *l.SubmissionDate
}

// LeadRepository lead 仓储接口
type LeadRepository interface {
	// Get 按 ID 获取
	Get(ctx context.Context, id uint) (*Lead, error)
	// Save 保存或更新
	Save(ctx context.Context, lead *Lead) error
	// ListMarket 市场可见的 lead（submitted/approved），排除指定 ID
	ListMarket(ctx context.Context, excludeIDs []uint) ([]*Lead, error)
	// ListByIDs 按 ID 批量获取
	ListByIDs(ctx context.Context, ids []uint) ([]*Lead, error)
	// ListAll 全量列表（admin），可按状态过滤
	ListAll(ctx context.Context, status LeadStatus, limit, offset int) ([]*Lead, int64, error)
}

// EventPublisher lead 事件发布接口
type EventPublisher interface {
	PublishLeadSubmitted(ctx context.Context, event LeadSubmittedEvent) error
	PublishLeadStatusChanged(ctx context.Context, event LeadStatusChangedEvent) error
}
