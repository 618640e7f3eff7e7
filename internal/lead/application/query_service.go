package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	lockdomain "github.com/wyfcoding/leadmarket/internal/lock/domain"
	pricingdomain "github.com/wyfcoding/leadmarket/internal/pricing/domain"
	"github.com/wyfcoding/leadmarket/pkg/metrics"
)

// MarketplaceQueryService 市场查询服务，为 dealer 装配带价格与锁状态的 lead 视图
type MarketplaceQueryService struct {
	leads     domain.LeadRepository
	locks     LockViews
	purchases PurchaseReader
	settings  SettingsReader
	hidden    HiddenLeadReader
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewMarketplaceQueryService 创建市场查询服务
func NewMarketplaceQueryService(
	leads domain.LeadRepository,
	locks LockViews,
	purchases PurchaseReader,
	settings SettingsReader,
	hidden HiddenLeadReader,
	m *metrics.Metrics,
	logger *slog.Logger,
) *MarketplaceQueryService {
	return &MarketplaceQueryService{
		leads:     leads,
		locks:     locks,
		purchases: purchases,
		settings:  settings,
		hidden:    hidden,
		metrics:   m,
		logger:    logger.With("service", "lead_marketplace"),
	}
}

// ListLeads 返回 dealer 可见的市场列表，已隐藏的 lead 不出现
func (s *MarketplaceQueryService) ListLeads(ctx context.Context, dealerID uint) ([]LeadView, error) {
	hiddenIDs, err := s.hidden.HiddenLeads(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	leads, err := s.leads.ListMarket(ctx, hiddenIDs)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LeadsAvailable.Set(float64(len(leads)))
	}
	return s.assemble(ctx, dealerID, leads)
}

// GetLead 返回单条 lead 的 dealer 视角视图
func (s *MarketplaceQueryService) GetLead(ctx context.Context, dealerID, leadID uint) (*LeadView, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	views, err := s.assemble(ctx, dealerID, []*domain.Lead{lead})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// BuildSelection 对候选集合做分组与合计，已购买的行不再计价
func (s *MarketplaceQueryService) BuildSelection(ctx context.Context, dealerID uint, leadIDs []uint) (*SelectionResult, error) {
	if len(leadIDs) == 0 {
		return nil, apperr.Validation("selection is empty")
	}
	leads, err := s.leads.ListByIDs(ctx, leadIDs)
	if err != nil {
		return nil, err
	}
	views, err := s.assemble(ctx, dealerID, leads)
	if err != nil {
		return nil, err
	}
	purchased := []SelectionLine{}
	unpurchased := []SelectionLine{}
	for _, v := range views {
		line := NewSelectionLine(v.ID, v.price, v.IsPurchased)
		if v.IsPurchased {
			purchased = append(purchased, line)
			continue
		}
		unpurchased = append(unpurchased, line)
	}
	return NewSelectionResult(purchased, unpurchased), nil
}

func (s *MarketplaceQueryService) assemble(ctx context.Context, dealerID uint, leads []*domain.Lead) ([]LeadView, error) {
	ids := make([]uint, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}

	lockViews, err := s.locks.ViewsFor(ctx, ids, dealerID)
	if err != nil {
		return nil, err
	}
	priorLocks, err := s.locks.PriorLockDiscounts(ctx, ids, dealerID)
	if err != nil {
		return nil, err
	}
	purchased, err := s.purchases.PurchasedLeadIDs(ctx, dealerID, ids)
	if err != nil {
		return nil, err
	}
	downloaded, err := s.purchases.DownloadedLeadIDs(ctx, dealerID, ids)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]LeadView, 0, len(leads))
	for _, lead := range leads {
		lv := lockViews[lead.ID]
		viewer := pricingdomain.ViewerContext{
			Purchased:               purchased[lead.ID],
			PreviouslyLockedByOther: priorLocks[lead.ID],
		}
		price, reason := pricingdomain.ResolvePrice(
			s.pricesFor(lead, settings), viewer, settings.AgeDiscount(), lead.SubmittedAt(), now)

		if lead.SubmissionDate == nil {
			s.logger.WarnContext(ctx, "market lead without submission date, age discount skipped",
				"lead_id", lead.ID, "status", lead.Status)
		}

		views = append(views, LeadView{
			ID:             lead.ID,
			FullName:       lead.FullName,
			City:           lead.City,
			VehicleType:    lead.VehicleType,
			SubmissionDate: lead.SubmissionDate,
			Status:         lead.Status,
			Lock:           lv,
			IsPurchased:    purchased[lead.ID],
			IsDownloaded:   downloaded[lead.ID],
			CanSelect:      lockdomain.CanSelect(lv, purchased[lead.ID]),
			CanDownload:    lockdomain.CanDownload(purchased[lead.ID]),
			Price:          price.StringFixed(2),
			PriceReason:    reason,
			price:          price,
		})
	}
	return views, nil
}

// pricesFor 合并全局价与单条覆盖价
func (s *MarketplaceQueryService) pricesFor(lead *domain.Lead, settings *pricingdomain.Settings) pricingdomain.PricePair {
	pair := pricingdomain.PricePair{
		Standard:   settings.StandardPrice,
		Discounted: settings.DiscountedPrice,
	}
	if lead.StandardPrice != nil {
		pair.Standard = *lead.StandardPrice
	}
	if lead.DiscountedPrice != nil {
		pair.Discounted = *lead.DiscountedPrice
	}
	return pair
}
