package application

import (
	"context"
	"log/slog"

	"github.com/wyfcoding/leadmarket/internal/dealer/domain"
)

// HiddenLeadService dealer 级隐藏列表的读写门面
type HiddenLeadService struct {
	store  domain.HiddenLeadStore
	logger *slog.Logger
}

// NewHiddenLeadService 创建隐藏列表服务
func NewHiddenLeadService(store domain.HiddenLeadStore, logger *slog.Logger) *HiddenLeadService {
	return &HiddenLeadService{
		store:  store,
		logger: logger.With("service", "dealer_hidden"),
	}
}

// HideLead 把 lead 加入自己的隐藏列表，重复隐藏幂等
func (s *HiddenLeadService) HideLead(ctx context.Context, dealerID, leadID uint) error {
	if err := s.store.Hide(ctx, dealerID, leadID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "lead hidden", "dealer_id", dealerID, "lead_id", leadID)
	return nil
}

// UnhideLead 从隐藏列表移除，未隐藏时幂等
func (s *HiddenLeadService) UnhideLead(ctx context.Context, dealerID, leadID uint) error {
	return s.store.Unhide(ctx, dealerID, leadID)
}

// HiddenLeads 当前隐藏的 lead ID 集合
func (s *HiddenLeadService) HiddenLeads(ctx context.Context, dealerID uint) ([]uint, error) {
	return s.store.Hidden(ctx, dealerID)
}
