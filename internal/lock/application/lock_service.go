package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lock/domain"
	"github.com/wyfcoding/leadmarket/pkg/metrics"
)

// LockService 锁定服务：加锁、解锁与锁状态查询
type LockService struct {
	locks     domain.LockRepository
	periods   domain.LockoutPeriodRepository
	publisher domain.EventPublisher
	// 免费临时锁时长，来自系统配置
	temporaryDuration time.Duration
	metrics           *metrics.Metrics
	logger            *slog.Logger
}

// NewLockService 创建锁定服务实例
func NewLockService(
	locks domain.LockRepository,
	periods domain.LockoutPeriodRepository,
	publisher domain.EventPublisher,
	temporaryDuration time.Duration,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LockService {
	return &LockService{
		locks:             locks,
		periods:           periods,
		publisher:         publisher,
		temporaryDuration: temporaryDuration,
		metrics:           m,
		logger:            logger.With("service", "lock_application"),
	}
}

// LockCommand 加锁命令
type LockCommand struct {
	LeadID    uint
	DealerID  uint
	Type      domain.LockType
	PaymentID string
	// PaymentAmount 客户端声明的支付金额，与目录费用比对
	PaymentAmount decimal.Decimal
}

// Lock 对 lead 加锁
// 已被其他 dealer 锁定的 lead 以 ALREADY_LOCKED 拒绝，由数据库写入顺序裁决并发
func (s *LockService) Lock(ctx context.Context, cmd LockCommand) (*domain.LeadLock, error) {
	if !cmd.Type.Valid() {
		return nil, apperr.Validation("invalid lock type")
	}

	now := time.Now()
	lock := &domain.LeadLock{
		LeadID:   cmd.LeadID,
		DealerID: cmd.DealerID,
		Type:     cmd.Type,
		Fee:      decimal.Zero,
	}

	if cmd.Type == domain.LockTypeTemporary {
		expires := now.Add(s.temporaryDuration)
		lock.ExpiresAt = &expires
	} else {
		period, err := s.periods.GetActiveByHours(ctx, domain.LockTypeHours[cmd.Type])
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeValidation, "lock type not available", err)
		}
		if cmd.PaymentID == "" {
			return nil, apperr.Validation("paid lock requires a payment id")
		}
		if !cmd.PaymentAmount.Equal(period.Fee) {
			return nil, apperr.Validation("payment amount does not match lock fee")
		}
		lock.Fee = period.Fee
		lock.PaymentID = cmd.PaymentID
		if d, ok := period.Duration(); ok {
			expires := now.Add(d)
			lock.ExpiresAt = &expires
		}
	}

	if err := s.locks.Acquire(ctx, lock, now); err != nil {
		if s.metrics != nil && apperr.CodeOf(err) == apperr.CodeAlreadyLocked {
			s.metrics.LockConflictsTotal.Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LocksAcquiredTotal.Inc()
	}

	s.logger.InfoContext(ctx, "lead locked",
		"lead_id", cmd.LeadID,
		"dealer_id", cmd.DealerID,
		"lock_type", cmd.Type,
	)

	if s.publisher != nil {
		event := domain.LeadLockedEvent{
			LeadID:     lock.LeadID,
			DealerID:   lock.DealerID,
			Type:       lock.Type,
			Fee:        lock.Fee,
			ExpiresAt:  lock.ExpiresAt,
			OccurredOn: now,
		}
		if err := s.publisher.PublishLeadLocked(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish lead locked event", "error", err)
		}
	}

	return lock, nil
}

// Unlock 解锁自己的锁
// 幂等：lead 本就未锁定时同样返回成功
func (s *LockService) Unlock(ctx context.Context, leadID, dealerID uint) error {
	now := time.Now()

	current, err := s.locks.GetActiveByLeadID(ctx, leadID, now)
	if err != nil {
		return err
	}
	if current == nil {
		// 已经是未锁定状态，无事可做
		return nil
	}
	if !domain.CanUnlock(current, dealerID, false) {
		return apperr.New(apperr.CodeForbidden, "lock is held by another dealer")
	}

	released, err := s.locks.Release(ctx, leadID, dealerID, now)
	if err != nil {
		return err
	}
	if released {
		s.publishUnlocked(ctx, leadID, dealerID, false, now)
	}
	return nil
}

// AdminUnlock admin 解锁任意锁，同样幂等
func (s *LockService) AdminUnlock(ctx context.Context, leadID uint, adminID uint) error {
	now := time.Now()
	released, err := s.locks.ReleaseAny(ctx, leadID, now)
	if err != nil {
		return err
	}
	if released {
		s.publishUnlocked(ctx, leadID, adminID, true, now)
	}
	return nil
}

func (s *LockService) publishUnlocked(ctx context.Context, leadID, dealerID uint, byAdmin bool, now time.Time) {
	s.logger.InfoContext(ctx, "lead unlocked", "lead_id", leadID, "dealer_id", dealerID, "by_admin", byAdmin)
	if s.publisher == nil {
		return
	}
	event := domain.LeadUnlockedEvent{
		LeadID:     leadID,
		DealerID:   dealerID,
		ByAdmin:    byAdmin,
		OccurredOn: now,
	}
	if err := s.publisher.PublishLeadUnlocked(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish lead unlocked event", "error", err)
	}
}

// ViewFor 单条 lead 的锁视图
func (s *LockService) ViewFor(ctx context.Context, leadID, dealerID uint) (domain.LockView, error) {
	now := time.Now()
	lock, err := s.locks.GetActiveByLeadID(ctx, leadID, now)
	if err != nil {
		return domain.LockView{}, err
	}
	return domain.BuildView(lock, dealerID, now), nil
}

// ViewsFor 批量锁视图，键为 lead ID
func (s *LockService) ViewsFor(ctx context.Context, leadIDs []uint, dealerID uint) (map[uint]domain.LockView, error) {
	now := time.Now()
	active, err := s.locks.GetActiveForLeads(ctx, leadIDs, now)
	if err != nil {
		return nil, err
	}

	views := make(map[uint]domain.LockView, len(leadIDs))
	for _, id := range leadIDs {
		views[id] = domain.BuildView(active[id], dealerID, now)
	}
	return views, nil
}

// PriorLockDiscounts 批量判定曾被他人锁定（折扣资格），键为 lead ID
func (s *LockService) PriorLockDiscounts(ctx context.Context, leadIDs []uint, dealerID uint) (map[uint]bool, error) {
	return s.locks.LapsedLockByOtherForLeads(ctx, leadIDs, dealerID, time.Now())
}
