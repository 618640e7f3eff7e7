package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/purchase/domain"
	"github.com/wyfcoding/leadmarket/pkg/metrics"
)

// CheckoutService 结算服务：创建会话、落购买记录、消费支付回调
type CheckoutService struct {
	purchases domain.PurchaseRepository
	sessions  domain.CheckoutSessionRepository
	webhooks  domain.WebhookEventRepository
	selection SelectionBuilder
	provider  PaymentProvider
	publisher domain.EventPublisher
	dealers   DealerReader
	notifier  PurchaseNotifier
	metrics   *metrics.Metrics
	logger    *slog.Logger

	successURL string
	cancelURL  string
}

// NewCheckoutService 创建结算服务实例
func NewCheckoutService(
	purchases domain.PurchaseRepository,
	sessions domain.CheckoutSessionRepository,
	webhooks domain.WebhookEventRepository,
	selection SelectionBuilder,
	provider PaymentProvider,
	publisher domain.EventPublisher,
	dealers DealerReader,
	notifier PurchaseNotifier,
	m *metrics.Metrics,
	successURL, cancelURL string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		purchases:  purchases,
		sessions:   sessions,
		webhooks:   webhooks,
		selection:  selection,
		provider:   provider,
		publisher:  publisher,
		dealers:    dealers,
		notifier:   notifier,
		metrics:    m,
		successURL: successURL,
		cancelURL:  cancelURL,
		logger:     logger.With("service", "checkout"),
	}
}

// CheckoutSessionDTO 会话创建结果
type CheckoutSessionDTO struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Amount      string `json:"amount"`
	LeadCount   int    `json:"lead_count"`
}

// CreateSession 为一批选中的 lead 创建结算会话
// 全部已购买时以 ALREADY_PURCHASED 返回，不产生新会话
func (s *CheckoutService) CreateSession(ctx context.Context, dealerID uint, leadIDs []uint) (*CheckoutSessionDTO, error) {
	sel, err := s.selection.BuildSelection(ctx, dealerID, leadIDs)
	if err != nil {
		return nil, err
	}
	if len(sel.Unpurchased) == 0 {
		return nil, apperr.AlreadyPurchased()
	}

	lines := make([]domain.SessionLine, 0, len(sel.Unpurchased))
	for _, id := range sel.UnpurchasedIDs() {
		price, _ := sel.PriceOf(id)
		lines = append(lines, domain.SessionLine{LeadID: id, Price: price})
	}

	session := &domain.CheckoutSession{
		SessionID: uuid.NewString(),
		DealerID:  dealerID,
		Status:    domain.SessionStatusPending,
		Amount:    sel.TotalRaw(),
	}
	if err := session.SetLines(lines); err != nil {
		return nil, err
	}

	dto := &CheckoutSessionDTO{
		SessionID: session.SessionID,
		Amount:    session.Amount.StringFixed(2),
		LeadCount: len(lines),
	}

	// 合计为零时不经过支付网关，完成动作直接确认
	if session.Amount.IsPositive() {
		providerSession, err := s.provider.CreateSession(ctx, ProviderSessionRequest{
			Reference:   session.SessionID,
			Amount:      session.Amount,
			Currency:    "EUR",
			Description: "Lead purchase",
			SuccessURL:  s.successURL,
			CancelURL:   s.cancelURL,
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.CodePaymentProvider, "failed to create payment session", err)
		}
		session.ProviderRef = providerSession.ProviderRef
		dto.RedirectURL = providerSession.RedirectURL
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CheckoutSessionsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "checkout session created",
		"session_id", session.SessionID,
		"dealer_id", dealerID,
		"amount", session.Amount.StringFixed(2),
		"lead_count", len(lines),
	)

	return dto, nil
}

// Complete dealer 支付返回后确认会话完成
// 收费会话先向网关核实支付状态，零元会话直接落账；重复确认是无害的幂等操作
func (s *CheckoutService) Complete(ctx context.Context, dealerID uint, sessionID string) error {
	session, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.DealerID != dealerID {
		return apperr.New(apperr.CodeForbidden, "session belongs to another dealer")
	}

	// 已完成的会话在首次完成时已核实过支付
	if session.Status != domain.SessionStatusCompleted && session.Amount.IsPositive() {
		paid, err := s.provider.SessionPaid(ctx, session.ProviderRef)
		if err != nil {
			return apperr.Wrap(apperr.CodePaymentProvider, "failed to verify payment session", err)
		}
		if !paid {
			return apperr.Validation("payment has not been completed for this session")
		}
	}
	return s.complete(ctx, session)
}

// complete 落购买记录并关闭会话
// 每条 (dealer, lead) 独立幂等写入，中途失败后重试会补齐缺失的记录
func (s *CheckoutService) complete(ctx context.Context, session *domain.CheckoutSession) error {
	lines, err := session.SessionLines()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, line := range lines {
		purchase := &domain.Purchase{
			DealerID:  session.DealerID,
			LeadID:    line.LeadID,
			PricePaid: line.Price,
			SessionID: session.SessionID,
		}
		created, err := s.purchases.CreateIfAbsent(ctx, purchase)
		if err != nil {
			return err
		}
		if !created {
			continue
		}
		if s.metrics != nil {
			s.metrics.PurchasesCompletedTotal.Inc()
		}
		if s.publisher != nil {
			event := domain.LeadPurchasedEvent{
				LeadID:     line.LeadID,
				DealerID:   session.DealerID,
				PricePaid:  line.Price,
				SessionID:  session.SessionID,
				OccurredOn: now,
			}
			if err := s.publisher.PublishLeadPurchased(ctx, event); err != nil {
				s.logger.WarnContext(ctx, "failed to publish lead purchased event",
					"lead_id", line.LeadID, "error", err)
			}
		}
	}

	if session.Status == domain.SessionStatusCompleted {
		return nil
	}

	session.Status = domain.SessionStatusCompleted
	session.CompletedAt = &now
	if err := s.sessions.Save(ctx, session); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "checkout session completed",
		"session_id", session.SessionID,
		"dealer_id", session.DealerID,
		"lead_count", len(lines),
	)

	if s.publisher != nil {
		event := domain.CheckoutCompletedEvent{
			SessionID:  session.SessionID,
			DealerID:   session.DealerID,
			Amount:     session.Amount,
			LeadCount:  len(lines),
			OccurredOn: now,
		}
		if err := s.publisher.PublishCheckoutCompleted(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish checkout completed event",
				"session_id", session.SessionID, "error", err)
		}
	}

	s.sendReceipt(ctx, session, len(lines))
	return nil
}

// sendReceipt 购买回执，暂停的账号不再打扰
func (s *CheckoutService) sendReceipt(ctx context.Context, session *domain.CheckoutSession, leadCount int) {
	if s.dealers == nil || s.notifier == nil {
		return
	}
	dealer, err := s.dealers.Get(ctx, session.DealerID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load dealer for receipt",
			"dealer_id", session.DealerID, "error", err)
		return
	}
	if dealer.Paused {
		return
	}
	s.notifier.PurchaseCompleted(ctx, dealer.Email, leadCount, session.Amount.StringFixed(2))
}

// WebhookCommand 支付回调命令
type WebhookCommand struct {
	EventID     string
	EventType   string
	ProviderRef string
	Payload     []byte
	Signature   string
}

// HandleWebhook 消费支付网关回调
// 以 (provider, event_id) 去重；处理结果记录在事件行上，失败的事件随网关重投重新处理
func (s *CheckoutService) HandleWebhook(ctx context.Context, cmd WebhookCommand) error {
	if err := s.provider.VerifySignature(cmd.Payload, cmd.Signature); err != nil {
		return apperr.Wrap(apperr.CodeForbidden, "invalid webhook signature", err)
	}
	if cmd.EventID == "" {
		return apperr.Validation("webhook event id is required")
	}

	event := &domain.WebhookEvent{
		Provider:        s.provider.Name(),
		ProviderEventID: cmd.EventID,
		EventType:       cmd.EventType,
		Payload:         string(cmd.Payload),
	}
	created, err := s.webhooks.CreateIfNew(ctx, event)
	if err != nil {
		return err
	}
	if !created {
		prior, err := s.webhooks.Get(ctx, event.Provider, cmd.EventID)
		if err != nil {
			return err
		}
		if prior.Processed() {
			s.logger.InfoContext(ctx, "duplicate webhook event ignored",
				"provider", s.provider.Name(), "event_id", cmd.EventID)
			return nil
		}
		// 上次处理失败，本次重投再处理一遍
		event = prior
	}

	procErr := s.processWebhook(ctx, cmd)

	now := time.Now()
	event.ProcessedAt = &now
	event.ProcessingError = ""
	if procErr != nil {
		msg := procErr.Error()
		if len(msg) > 500 {
			msg = msg[:500]
		}
		event.ProcessingError = msg
	}
	if err := s.webhooks.Save(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record webhook outcome",
			"event_id", cmd.EventID, "error", err)
	}
	return procErr
}

func (s *CheckoutService) processWebhook(ctx context.Context, cmd WebhookCommand) error {
	switch cmd.EventType {
	case "checkout.session.completed":
		session, err := s.sessions.GetByProviderRef(ctx, cmd.ProviderRef)
		if err != nil {
			return err
		}
		return s.complete(ctx, session)
	case "checkout.session.failed", "checkout.session.expired":
		session, err := s.sessions.GetByProviderRef(ctx, cmd.ProviderRef)
		if err != nil {
			return err
		}
		if session.Status == domain.SessionStatusPending {
			session.Status = domain.SessionStatusFailed
			return s.sessions.Save(ctx, session)
		}
		return nil
	default:
		s.logger.InfoContext(ctx, "unhandled webhook event type", "event_type", cmd.EventType)
		return nil
	}
}

// SessionTotal 会话合计金额，供接口层展示
func SessionTotal(lines []domain.SessionLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price)
	}
	return total
}
