package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lock/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 活跃锁条件：未显式释放且未过期（permanent 锁 expires_at 为 NULL）
const activeLockCond = "released_at IS NULL AND (expires_at IS NULL OR expires_at > ?)"

type lockRepository struct{ db *gorm.DB }

// NewLockRepository 创建锁仓储实例
func NewLockRepository(db *gorm.DB) domain.LockRepository {
	return &lockRepository{db: db}
}

func (r *lockRepository) GetActiveByLeadID(ctx context.Context, leadID uint, now time.Time) (*domain.LeadLock, error) {
	var lock domain.LeadLock
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Where(activeLockCond, now).
		First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *lockRepository) GetActiveForLeads(ctx context.Context, leadIDs []uint, now time.Time) (map[uint]*domain.LeadLock, error) {
	result := make(map[uint]*domain.LeadLock, len(leadIDs))
	if len(leadIDs) == 0 {
		return result, nil
	}

	var locks []*domain.LeadLock
	err := r.db.WithContext(ctx).
		Where("lead_id IN ?", leadIDs).
		Where(activeLockCond, now).
		Find(&locks).Error
	if err != nil {
		return nil, err
	}

	for _, lock := range locks {
		result[lock.LeadID] = lock
	}
	return result, nil
}

func (r *lockRepository) HasLapsedLockByOther(ctx context.Context, leadID uint, dealerID uint, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.LeadLock{}).
		Where("lead_id = ? AND dealer_id <> ?", leadID, dealerID).
		Where("released_at IS NOT NULL OR (expires_at IS NOT NULL AND expires_at <= ?)", now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *lockRepository) LapsedLockByOtherForLeads(ctx context.Context, leadIDs []uint, dealerID uint, now time.Time) (map[uint]bool, error) {
	result := make(map[uint]bool, len(leadIDs))
	if len(leadIDs) == 0 {
		return result, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&domain.LeadLock{}).
		Distinct("lead_id").
		Where("lead_id IN ? AND dealer_id <> ?", leadIDs, dealerID).
		Where("released_at IS NOT NULL OR (expires_at IS NOT NULL AND expires_at <= ?)", now).
		Pluck("lead_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func (r *lockRepository) Acquire(ctx context.Context, lock *domain.LeadLock, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.LeadLock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("lead_id = ?", lock.LeadID).
			Where(activeLockCond, now).
			First(&existing).Error
		switch {
		case err == nil:
			if !domain.CanLock(domain.BuildView(&existing, lock.DealerID, now)) {
				// 他人的活跃锁存在即拒绝；并发抢锁由先提交的事务胜出
				return apperr.AlreadyLocked()
			}
			// 持锁者升级：旧锁让位于新锁
			release := tx.Model(&domain.LeadLock{}).
				Where("id = ?", existing.ID).
				Update("released_at", now)
			if release.Error != nil {
				return release.Error
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(lock).Error
	})
}

func (r *lockRepository) Release(ctx context.Context, leadID uint, dealerID uint, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.LeadLock{}).
		Where("lead_id = ? AND dealer_id = ?", leadID, dealerID).
		Where(activeLockCond, now).
		Update("released_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *lockRepository) ReleaseAny(ctx context.Context, leadID uint, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.LeadLock{}).
		Where("lead_id = ?", leadID).
		Where(activeLockCond, now).
		Update("released_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type lockoutPeriodRepository struct{ db *gorm.DB }

// NewLockoutPeriodRepository 创建锁定目录仓储实例
func NewLockoutPeriodRepository(db *gorm.DB) domain.LockoutPeriodRepository {
	return &lockoutPeriodRepository{db: db}
}

func (r *lockoutPeriodRepository) List(ctx context.Context, activeOnly bool) ([]*domain.LockoutPeriod, error) {
	query := r.db.WithContext(ctx).Order("hours ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var periods []*domain.LockoutPeriod
	if err := query.Find(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *lockoutPeriodRepository) Get(ctx context.Context, id uint) (*domain.LockoutPeriod, error) {
	var period domain.LockoutPeriod
	if err := r.db.WithContext(ctx).First(&period, id).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *lockoutPeriodRepository) GetActiveByHours(ctx context.Context, hours int) (*domain.LockoutPeriod, error) {
	var period domain.LockoutPeriod
	err := r.db.WithContext(ctx).
		Where("hours = ? AND is_active = ?", hours, true).
		First(&period).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (r *lockoutPeriodRepository) Save(ctx context.Context, period *domain.LockoutPeriod) error {
	return r.db.WithContext(ctx).Save(period).Error
}

func (r *lockoutPeriodRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.LockoutPeriod{}, id).Error
}
