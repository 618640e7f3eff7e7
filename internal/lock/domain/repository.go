package domain

import (
	"context"
	"time"
)

// LockRepository 锁仓储接口
type LockRepository interface {
	// GetActiveByLeadID 获取 lead 当前活跃锁，不存在时返回 (nil, nil)
	GetActiveByLeadID(ctx context.Context, leadID uint, now time.Time) (*LeadLock, error)
	// GetActiveForLeads 批量获取活跃锁，键为 lead ID
	GetActiveForLeads(ctx context.Context, leadIDs []uint, now time.Time) (map[uint]*LeadLock, error)
	// HasLapsedLockByOther lead 是否存在其他 dealer 的已失效锁（曾锁定折扣判定）
	HasLapsedLockByOther(ctx context.Context, leadID uint, dealerID uint, now time.Time) (bool, error)
	// LapsedLockByOtherForLeads 批量版本，键为 lead ID
	LapsedLockByOtherForLeads(ctx context.Context, leadIDs []uint, dealerID uint, now time.Time) (map[uint]bool, error)
	// Acquire 条件写入：其他 dealer 的活跃锁存在时返回 apperr.AlreadyLocked；
	// 持锁者本人再次加锁视为升级，旧锁释放后写入新锁
	// 两个 dealer 并发抢锁由数据库写入顺序裁决，失败方不重试
	Acquire(ctx context.Context, lock *LeadLock, now time.Time) error
	// Release 释放 dealer 在 lead 上的活跃锁，返回是否实际释放了一把锁
	Release(ctx context.Context, leadID uint, dealerID uint, now time.Time) (bool, error)
	// ReleaseAny 释放 lead 上的任意活跃锁（admin 用）
	ReleaseAny(ctx context.Context, leadID uint, now time.Time) (bool, error)
}

// LockoutPeriodRepository 锁定目录仓储接口
type LockoutPeriodRepository interface {
	List(ctx context.Context, activeOnly bool) ([]*LockoutPeriod, error)
	Get(ctx context.Context, id uint) (*LockoutPeriod, error)
	GetActiveByHours(ctx context.Context, hours int) (*LockoutPeriod, error)
	Save(ctx context.Context, period *LockoutPeriod) error
	Delete(ctx context.Context, id uint) error
}

// EventPublisher 锁事件发布接口
type EventPublisher interface {
	PublishLeadLocked(ctx context.Context, event LeadLockedEvent) error
	PublishLeadUnlocked(ctx context.Context, event LeadUnlockedEvent) error
}
