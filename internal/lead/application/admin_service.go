package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
)

// AdminLeadService admin 侧的 lead 管理：列表、审核与编辑
type AdminLeadService struct {
	leads     domain.LeadRepository
	publisher domain.EventPublisher
	logger    *slog.Logger
}

// NewAdminLeadService 创建 admin lead 管理服务
func NewAdminLeadService(leads domain.LeadRepository, publisher domain.EventPublisher, logger *slog.Logger) *AdminLeadService {
	return &AdminLeadService{
		leads:     leads,
		publisher: publisher,
		logger:    logger.With("service", "lead_admin"),
	}
}

// List 全量 lead 列表，可按状态过滤
func (s *AdminLeadService) List(ctx context.Context, status domain.LeadStatus, limit, offset int) ([]*domain.Lead, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("invalid lead status filter")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.leads.ListAll(ctx, status, limit, offset)
}

// Get 按 ID 获取
func (s *AdminLeadService) Get(ctx context.Context, id uint) (*domain.Lead, error) {
	return s.leads.Get(ctx, id)
}

// UpdateStatus 审核状态流转并发布事件
func (s *AdminLeadService) UpdateStatus(ctx context.Context, id uint, status domain.LeadStatus) (*domain.Lead, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid lead status")
	}

	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status == status {
		return lead, nil
	}

	old := lead.Status
	lead.Status = status
	// 草稿被 admin 直接放行时补提交时间，定价的年龄规则依赖它
	if status != domain.LeadStatusDraft && lead.SubmissionDate == nil {
		now := time.Now()
		lead.SubmissionDate = &now
	}

	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "lead status changed", "lead_id", id, "from", old, "to", status)

	if s.publisher != nil {
		event := domain.LeadStatusChangedEvent{
			LeadID:     id,
			OldStatus:  old,
			NewStatus:  status,
			OccurredOn: time.Now(),
		}
		if err := s.publisher.PublishLeadStatusChanged(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish lead status changed event", "lead_id", id, "error", err)
		}
	}

	return lead, nil
}

// EditLeadCommand lead 编辑命令，nil 字段保持不变
type EditLeadCommand struct {
	FullName        *string
	Email           *string
	Phone           *string
	City            *string
	StandardPrice   *decimal.Decimal
	DiscountedPrice *decimal.Decimal
}

// Edit 编辑申请人信息与单条价格覆盖
func (s *AdminLeadService) Edit(ctx context.Context, id uint, cmd EditLeadCommand) (*domain.Lead, error) {
	lead, err := s.leads.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.FullName != nil {
		lead.FullName = *cmd.FullName
	}
	if cmd.Email != nil {
		lead.Email = *cmd.Email
	}
	if cmd.Phone != nil {
		lead.Phone = *cmd.Phone
	}
	if cmd.City != nil {
		lead.City = *cmd.City
	}
	if cmd.StandardPrice != nil {
		if cmd.StandardPrice.IsNegative() {
			return nil, apperr.Validation("standard price must not be negative")
		}
		lead.StandardPrice = cmd.StandardPrice
	}
	if cmd.DiscountedPrice != nil {
		if cmd.DiscountedPrice.IsNegative() {
			return nil, apperr.Validation("discounted price must not be negative")
		}
		lead.DiscountedPrice = cmd.DiscountedPrice
	}

	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}
