package application

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lock/domain"
)

// PeriodService 锁定目录维护服务（admin）
type PeriodService struct {
	periods domain.LockoutPeriodRepository
	logger  *slog.Logger
}

// NewPeriodService 创建目录服务实例
func NewPeriodService(periods domain.LockoutPeriodRepository, logger *slog.Logger) *PeriodService {
	return &PeriodService{
		periods: periods,
		logger:  logger.With("service", "lockout_period"),
	}
}

// ListActive 可选的锁定目录项（dealer 端）
func (s *PeriodService) ListActive(ctx context.Context) ([]*domain.LockoutPeriod, error) {
	return s.periods.List(ctx, true)
}

// ListAll 全部目录项（admin 端）
func (s *PeriodService) ListAll(ctx context.Context) ([]*domain.LockoutPeriod, error) {
	return s.periods.List(ctx, false)
}

// PeriodCommand 目录项写入命令
type PeriodCommand struct {
	Name     string
	Hours    int
	Fee      decimal.Decimal
	IsActive bool
}

func (c PeriodCommand) validate() error {
	if c.Name == "" {
		return apperr.Validation("period name is required")
	}
	if c.Hours < 0 {
		return apperr.Validation("hours must not be negative")
	}
	if c.Fee.IsNegative() {
		return apperr.Validation("fee must not be negative")
	}
	return nil
}

// Create 新增目录项
func (s *PeriodService) Create(ctx context.Context, cmd PeriodCommand) (*domain.LockoutPeriod, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	period := &domain.LockoutPeriod{
		Name:     cmd.Name,
		Hours:    cmd.Hours,
		Fee:      cmd.Fee,
		IsActive: cmd.IsActive,
	}
	if err := s.periods.Save(ctx, period); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "lockout period created", "name", cmd.Name, "hours", cmd.Hours)
	return period, nil
}

// Update 更新目录项
func (s *PeriodService) Update(ctx context.Context, id uint, cmd PeriodCommand) (*domain.LockoutPeriod, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	period, err := s.periods.Get(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeNotFound, "lockout period not found", err)
	}

	period.Name = cmd.Name
	period.Hours = cmd.Hours
	period.Fee = cmd.Fee
	period.IsActive = cmd.IsActive

	if err := s.periods.Save(ctx, period); err != nil {
		return nil, err
	}
	return period, nil
}

// Delete 删除目录项
func (s *PeriodService) Delete(ctx context.Context, id uint) error {
	if _, err := s.periods.Get(ctx, id); err != nil {
		return apperr.Wrap(apperr.CodeNotFound, "lockout period not found", err)
	}
	return s.periods.Delete(ctx, id)
}
