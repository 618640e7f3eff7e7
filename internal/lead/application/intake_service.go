package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	"github.com/wyfcoding/leadmarket/pkg/metrics"
)

// IntakeService 申请入口服务：分步草稿保存与最终提交
type IntakeService struct {
	leads     domain.LeadRepository
	publisher domain.EventPublisher
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewIntakeService 创建申请入口服务
func NewIntakeService(leads domain.LeadRepository, publisher domain.EventPublisher, notifier Notifier, m *metrics.Metrics, logger *slog.Logger) *IntakeService {
	return &IntakeService{
		leads:     leads,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		logger:    logger.With("service", "lead_intake"),
	}
}

// SaveDraft 保存一步表单；leadID 为 0 时创建新草稿
// 只允许重做已完成的步骤或推进到下一步
func (s *IntakeService) SaveDraft(ctx context.Context, leadID uint, record domain.StepRecord) (*domain.Lead, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	var lead *domain.Lead
	if leadID == 0 {
		lead = &domain.Lead{Status: domain.LeadStatusDraft}
	} else {
		var err error
		lead, err = s.leads.Get(ctx, leadID)
		if err != nil {
			return nil, err
		}
		if lead.Status != domain.LeadStatusDraft {
			return nil, apperr.Validation("lead is no longer a draft")
		}
	}

	if !lead.CanAdvanceTo(record.Step()) {
		return nil, apperr.Validation("form steps must be completed in order")
	}

	record.Apply(lead)
	if stepIndexOf(record.Step()) > stepIndexOf(lead.DraftStep) {
		lead.DraftStep = record.Step()
	}

	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draft step saved", "lead_id", lead.ID, "step", record.Step())
	return lead, nil
}

// Submit 提交申请：要求全部步骤完成，落提交时间并发布事件
func (s *IntakeService) Submit(ctx context.Context, leadID uint) (*domain.Lead, error) {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status != domain.LeadStatusDraft {
		return nil, apperr.Validation("lead has already been submitted")
	}
	if !lead.ReadyToSubmit() {
		return nil, apperr.Validation("form is incomplete")
	}
	if !lead.Consent {
		return nil, apperr.Validation("consent is required before submission")
	}

	now := time.Now()
	lead.Status = domain.LeadStatusSubmitted
	lead.SubmissionDate = &now

	if err := s.leads.Save(ctx, lead); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.LeadsSubmittedTotal.Inc()
	}
	s.logger.InfoContext(ctx, "lead submitted", "lead_id", lead.ID, "city", lead.City)

	if s.publisher != nil {
		event := domain.LeadSubmittedEvent{
			LeadID:         lead.ID,
			FullName:       lead.FullName,
			Email:          lead.Email,
			City:           lead.City,
			VehicleType:    lead.VehicleType,
			SubmissionDate: now,
			OccurredOn:     now,
		}
		if err := s.publisher.PublishLeadSubmitted(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish lead submitted event", "lead_id", lead.ID, "error", err)
		}
	}

	if s.notifier != nil {
		s.notifier.LeadSubmitted(ctx, lead.Email, lead.FullName, lead.ID)
	}

	return lead, nil
}

// stepIndexOf 步骤下标，空步骤视为 -1
func stepIndexOf(step domain.FormStep) int {
	for i, s := range domain.StepOrder {
		if s == step {
			return i
		}
	}
	return -1
}
