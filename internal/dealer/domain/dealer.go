// Package domain dealer 上下文的领域模型：账号与市场个性化
package domain

import (
	"context"

	"gorm.io/gorm"
)

// Dealer 车商账号
type Dealer struct {
	gorm.Model
	Email        string `gorm:"column:email;type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null" json:"-"`
	Name         string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	CompanyName  string `gorm:"column:company_name;type:varchar(100)" json:"company_name"`
	// Role dealer 或 admin
	Role string `gorm:"column:role;type:varchar(20);not null;default:'dealer'" json:"role"`
	// Paused 暂停接收，true 时不再出现在通知链路里
	Paused bool `gorm:"column:paused;not null;default:false" json:"paused"`
}

func (Dealer) TableName() string { return "dealers" }

// DealerRepository dealer 仓储接口
type DealerRepository interface {
	Get(ctx context.Context, id uint) (*Dealer, error)
	// GetByEmail 无记录时返回 (nil, nil)
	GetByEmail(ctx context.Context, email string) (*Dealer, error)
	Save(ctx context.Context, dealer *Dealer) error
	List(ctx context.Context) ([]*Dealer, error)
}

// HiddenLeadStore dealer 级隐藏列表存储接口
// 隐藏是 dealer 个人的视图偏好，不影响其他 dealer
type HiddenLeadStore interface {
	Hide(ctx context.Context, dealerID, leadID uint) error
	Unhide(ctx context.Context, dealerID, leadID uint) error
	Hidden(ctx context.Context, dealerID uint) ([]uint, error)
}
