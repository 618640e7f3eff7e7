package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/leadmarket/internal/dealer/domain"
)

// AccountService dealer 账号管理：档案查询与 admin 侧的暂停恢复
type AccountService struct {
	dealers domain.DealerRepository
	logger  *slog.Logger
}

// NewAccountService 创建账号管理服务
func NewAccountService(dealers domain.DealerRepository, logger *slog.Logger) *AccountService {
	return &AccountService{
		dealers: dealers,
		logger:  logger.With("service", "dealer_account"),
	}
}

// Profile 当前账号档案
func (s *AccountService) Profile(ctx context.Context, dealerID uint) (*domain.Dealer, error) {
	return s.dealers.Get(ctx, dealerID)
}

// List 全部 dealer 账号
func (s *AccountService) List(ctx context.Context) ([]*domain.Dealer, error) {
	return s.dealers.List(ctx)
}

// SetPaused 暂停或恢复账号，幂等
func (s *AccountService) SetPaused(ctx context.Context, dealerID uint, paused bool) (*domain.Dealer, error) {
	dealer, err := s.dealers.Get(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	if dealer.Paused == paused {
		return dealer, nil
	}

	dealer.Paused = paused
	if err := s.dealers.Save(ctx, dealer); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "dealer pause state changed", "dealer_id", dealerID, "paused", paused)
	return dealer, nil
}
