package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	leaddomain "github.com/wyfcoding/leadmarket/internal/lead/domain"
	lockdomain "github.com/wyfcoding/leadmarket/internal/lock/domain"
	"github.com/wyfcoding/leadmarket/internal/purchase/domain"
)

// PurchaseQueryService 购买记录查询与下载导出
type PurchaseQueryService struct {
	purchases domain.PurchaseRepository
	leads     LeadReader
	logger    *slog.Logger
}

// NewPurchaseQueryService 创建查询服务实例
func NewPurchaseQueryService(purchases domain.PurchaseRepository, leads LeadReader, logger *slog.Logger) *PurchaseQueryService {
	return &PurchaseQueryService{
		purchases: purchases,
		leads:     leads,
		logger:    logger.With("service", "purchase_query"),
	}
}

// ListPurchases dealer 的全部购买记录
func (s *PurchaseQueryService) ListPurchases(ctx context.Context, dealerID uint) ([]*domain.Purchase, error) {
	return s.purchases.ListByDealer(ctx, dealerID)
}

// PurchasedLeadIDs 批量判定已购买，键为 lead ID
func (s *PurchaseQueryService) PurchasedLeadIDs(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error) {
	return s.purchases.PurchasedSet(ctx, dealerID, leadIDs)
}

// DownloadedLeadIDs 批量判定已下载，键为 lead ID
func (s *PurchaseQueryService) DownloadedLeadIDs(ctx context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error) {
	return s.purchases.DownloadedSet(ctx, dealerID, leadIDs)
}

// Download 导出已购买 lead 的完整申请数据并记下载时间
// 未购买的 lead 不可导出
func (s *PurchaseQueryService) Download(ctx context.Context, dealerID, leadID uint) (*leaddomain.Lead, error) {
	purchase, err := s.purchases.GetByDealerAndLead(ctx, dealerID, leadID)
	if err != nil {
		return nil, err
	}
	if !lockdomain.CanDownload(purchase != nil) {
		return nil, apperr.New(apperr.CodeForbidden, "lead has not been purchased")
	}

	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}

	first, err := s.purchases.MarkDownloaded(ctx, dealerID, leadID, time.Now())
	if err != nil {
		return nil, err
	}
	if first {
		s.logger.InfoContext(ctx, "lead downloaded", "lead_id", leadID, "dealer_id", dealerID)
	}
	return lead, nil
}
