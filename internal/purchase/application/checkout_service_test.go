package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	leadapp "github.com/wyfcoding/leadmarket/internal/lead/application"
	"github.com/wyfcoding/leadmarket/internal/purchase/domain"
)

type fakePurchaseRepository struct {
	purchases map[string]*domain.Purchase
}

func purchaseKey(dealerID, leadID uint) string {
	return fmt.Sprintf("%d:%d", dealerID, leadID)
}

func (f *fakePurchaseRepository) GetByDealerAndLead(_ context.Context, dealerID, leadID uint) (*domain.Purchase, error) {
	return f.purchases[purchaseKey(dealerID, leadID)], nil
}

func (f *fakePurchaseRepository) CreateIfAbsent(_ context.Context, purchase *domain.Purchase) (bool, error) {
	key := purchaseKey(purchase.DealerID, purchase.LeadID)
	if _, ok := f.purchases[key]; ok {
		return false, nil
	}
	f.purchases[key] = purchase
	return true, nil
}

func (f *fakePurchaseRepository) ListByDealer(_ context.Context, dealerID uint) ([]*domain.Purchase, error) {
	var out []*domain.Purchase
	for _, p := range f.purchases {
		if p.DealerID == dealerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePurchaseRepository) PurchasedSet(_ context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	for _, id := range leadIDs {
		if _, ok := f.purchases[purchaseKey(dealerID, id)]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakePurchaseRepository) DownloadedSet(_ context.Context, dealerID uint, leadIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	for _, id := range leadIDs {
		if p, ok := f.purchases[purchaseKey(dealerID, id)]; ok && p.Downloaded {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakePurchaseRepository) MarkDownloaded(_ context.Context, dealerID, leadID uint, at time.Time) (bool, error) {
	p, ok := f.purchases[purchaseKey(dealerID, leadID)]
	if !ok || p.Downloaded {
		return false, nil
	}
	p.Downloaded = true
	p.DownloadedAt = &at
	return true, nil
}

type fakeSessionRepository struct {
	sessions map[string]*domain.CheckoutSession
	// failNextByRef 注入一次性的查询故障
	failNextByRef error
}

func (f *fakeSessionRepository) Create(_ context.Context, session *domain.CheckoutSession) error {
	f.sessions[session.SessionID] = session
	return nil
}

func (f *fakeSessionRepository) GetBySessionID(_ context.Context, sessionID string) (*domain.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperr.NotFound("checkout session")
	}
	return session, nil
}

func (f *fakeSessionRepository) GetByProviderRef(_ context.Context, providerRef string) (*domain.CheckoutSession, error) {
	if f.failNextByRef != nil {
		err := f.failNextByRef
		f.failNextByRef = nil
		return nil, err
	}
	for _, s := range f.sessions {
		if s.ProviderRef == providerRef {
			return s, nil
		}
	}
	return nil, apperr.NotFound("checkout session")
}

func (f *fakeSessionRepository) Save(_ context.Context, session *domain.CheckoutSession) error {
	f.sessions[session.SessionID] = session
	return nil
}

type fakeWebhookRepository struct {
	events map[string]*domain.WebhookEvent
}

func webhookKey(provider, eventID string) string { return provider + ":" + eventID }

func (f *fakeWebhookRepository) CreateIfNew(_ context.Context, event *domain.WebhookEvent) (bool, error) {
	key := webhookKey(event.Provider, event.ProviderEventID)
	if _, ok := f.events[key]; ok {
		return false, nil
	}
	f.events[key] = event
	return true, nil
}

func (f *fakeWebhookRepository) Get(_ context.Context, provider, eventID string) (*domain.WebhookEvent, error) {
	event, ok := f.events[webhookKey(provider, eventID)]
	if !ok {
		return nil, apperr.NotFound("webhook event")
	}
	return event, nil
}

func (f *fakeWebhookRepository) Save(_ context.Context, event *domain.WebhookEvent) error {
	f.events[webhookKey(event.Provider, event.ProviderEventID)] = event
	return nil
}

type fakeSelectionBuilder struct {
	result *leadapp.SelectionResult
}

func (f *fakeSelectionBuilder) BuildSelection(_ context.Context, _ uint, _ []uint) (*leadapp.SelectionResult, error) {
	return f.result, nil
}

type fakeProvider struct {
	validSignature string
	sessionErr     error
	created        int
	paid           map[string]bool
	paidErr        error
	verified       int
}

func (f *fakeProvider) Name() string { return "hostedpay" }

func (f *fakeProvider) CreateSession(_ context.Context, req ProviderSessionRequest) (*ProviderSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.created++
	return &ProviderSession{
		ProviderRef: "prov_" + req.Reference,
		RedirectURL: "https://pay.example.com/s/" + req.Reference,
	}, nil
}

func (f *fakeProvider) SessionPaid(_ context.Context, providerRef string) (bool, error) {
	f.verified++
	if f.paidErr != nil {
		return false, f.paidErr
	}
	return f.paid[providerRef], nil
}

func (f *fakeProvider) VerifySignature(_ []byte, signature string) error {
	if signature != f.validSignature {
		return errors.New("signature mismatch")
	}
	return nil
}

type checkoutFixture struct {
	service   *CheckoutService
	purchases *fakePurchaseRepository
	sessions  *fakeSessionRepository
	webhooks  *fakeWebhookRepository
	selection *fakeSelectionBuilder
	provider  *fakeProvider
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		purchases: &fakePurchaseRepository{purchases: map[string]*domain.Purchase{}},
		sessions:  &fakeSessionRepository{sessions: map[string]*domain.CheckoutSession{}},
		webhooks:  &fakeWebhookRepository{events: map[string]*domain.WebhookEvent{}},
		selection: &fakeSelectionBuilder{},
		provider:  &fakeProvider{validSignature: "good", paid: map[string]bool{}},
	}
	f.service = NewCheckoutService(
		f.purchases, f.sessions, f.webhooks, f.selection, f.provider,
		nil, nil, nil, nil,
		"https://app.example.com/success", "https://app.example.com/cancel",
		slog.Default(),
	)
	return f
}

// payAtProvider 模拟 dealer 在网关侧完成支付
func (f *checkoutFixture) payAtProvider(sessionID string) {
	f.provider.paid[f.sessions.sessions[sessionID].ProviderRef] = true
}

func selectionOf(purchasedIDs []uint, unpurchased map[uint]string) *leadapp.SelectionResult {
	var bought, pending []leadapp.SelectionLine
	for _, id := range purchasedIDs {
		bought = append(bought, leadapp.NewSelectionLine(id, decimal.Zero, true))
	}
	for id, price := range unpurchased {
		pending = append(pending, leadapp.NewSelectionLine(id, decimal.RequireFromString(price), false))
	}
	return leadapp.NewSelectionResult(bought, pending)
}

func TestCreateSession(t *testing.T) {
	t.Run("all leads already purchased", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf([]uint{1, 2}, nil)

		_, err := f.service.CreateSession(context.Background(), 7, []uint{1, 2})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeAlreadyPurchased, apperr.CodeOf(err))
		assert.Empty(t, f.sessions.sessions)
	})

	t.Run("positive total goes through the payment provider", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99", 2: "5.99"})

		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1, 2})
		require.NoError(t, err)
		assert.Equal(t, "16.98", dto.Amount)
		assert.Equal(t, 2, dto.LeadCount)
		assert.NotEmpty(t, dto.RedirectURL)
		assert.Equal(t, 1, f.provider.created)

		session := f.sessions.sessions[dto.SessionID]
		require.NotNil(t, session)
		assert.Equal(t, domain.SessionStatusPending, session.Status)
		lines, err := session.SessionLines()
		require.NoError(t, err)
		assert.Len(t, lines, 2)
		assert.True(t, SessionTotal(lines).Equal(decimal.RequireFromString("16.98")))
	})

	t.Run("zero total skips the payment provider", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{3: "0.00"})

		dto, err := f.service.CreateSession(context.Background(), 7, []uint{3})
		require.NoError(t, err)
		assert.Empty(t, dto.RedirectURL)
		assert.Zero(t, f.provider.created)
	})

	t.Run("provider failure is surfaced as payment error", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99"})
		f.provider.sessionErr = errors.New("gateway unavailable")

		_, err := f.service.CreateSession(context.Background(), 7, []uint{1})
		require.Error(t, err)
		assert.Equal(t, apperr.CodePaymentProvider, apperr.CodeOf(err))
		assert.Empty(t, f.sessions.sessions)
	})
}

func TestComplete(t *testing.T) {
	t.Run("paid session records purchases and closes", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99", 2: "5.99"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1, 2})
		require.NoError(t, err)
		f.payAtProvider(dto.SessionID)

		require.NoError(t, f.service.Complete(context.Background(), 7, dto.SessionID))

		session := f.sessions.sessions[dto.SessionID]
		assert.Equal(t, domain.SessionStatusCompleted, session.Status)
		require.NotNil(t, session.CompletedAt)
		assert.Equal(t, 1, f.provider.verified)
		assert.Len(t, f.purchases.purchases, 2)
		assert.True(t, f.purchases.purchases[purchaseKey(7, 1)].PricePaid.Equal(decimal.RequireFromString("10.99")))
	})

	t.Run("unpaid session is not completed", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99", 2: "5.99"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1, 2})
		require.NoError(t, err)

		// 网关侧没有支付记录，完成请求被拒绝
		err = f.service.Complete(context.Background(), 7, dto.SessionID)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		assert.Equal(t, 1, f.provider.verified)
		assert.Empty(t, f.purchases.purchases)
		assert.Equal(t, domain.SessionStatusPending, f.sessions.sessions[dto.SessionID].Status)
	})

	t.Run("provider lookup failure is surfaced as payment error", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1})
		require.NoError(t, err)
		f.provider.paidErr = errors.New("gateway unavailable")

		err = f.service.Complete(context.Background(), 7, dto.SessionID)
		require.Error(t, err)
		assert.Equal(t, apperr.CodePaymentProvider, apperr.CodeOf(err))
		assert.Empty(t, f.purchases.purchases)
	})

	t.Run("zero total session completes without provider lookup", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{3: "0.00"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{3})
		require.NoError(t, err)

		require.NoError(t, f.service.Complete(context.Background(), 7, dto.SessionID))
		assert.Zero(t, f.provider.verified)
		assert.Len(t, f.purchases.purchases, 1)
	})

	t.Run("repeat completion is idempotent and verifies once", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1})
		require.NoError(t, err)
		f.payAtProvider(dto.SessionID)

		require.NoError(t, f.service.Complete(context.Background(), 7, dto.SessionID))
		require.NoError(t, f.service.Complete(context.Background(), 7, dto.SessionID))
		assert.Len(t, f.purchases.purchases, 1)
		assert.Equal(t, 1, f.provider.verified)
	})

	t.Run("another dealer may not complete the session", func(t *testing.T) {
		f := newCheckoutFixture()
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1})
		require.NoError(t, err)

		err = f.service.Complete(context.Background(), 8, dto.SessionID)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
		assert.Empty(t, f.purchases.purchases)
	})
}

func TestHandleWebhook(t *testing.T) {
	newPendingSession := func(f *checkoutFixture) *domain.CheckoutSession {
		f.selection.result = selectionOf(nil, map[uint]string{1: "10.99"})
		dto, err := f.service.CreateSession(context.Background(), 7, []uint{1})
		if err != nil {
			panic(err)
		}
		return f.sessions.sessions[dto.SessionID]
	}

	t.Run("invalid signature is rejected", func(t *testing.T) {
		f := newCheckoutFixture()
		err := f.service.HandleWebhook(context.Background(), WebhookCommand{
			EventID:   "evt_1",
			EventType: "checkout.session.completed",
			Signature: "bad",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("completed event records purchases once", func(t *testing.T) {
		f := newCheckoutFixture()
		session := newPendingSession(f)

		cmd := WebhookCommand{
			EventID:     "evt_1",
			EventType:   "checkout.session.completed",
			ProviderRef: session.ProviderRef,
			Signature:   "good",
		}
		require.NoError(t, f.service.HandleWebhook(context.Background(), cmd))
		assert.Equal(t, domain.SessionStatusCompleted, f.sessions.sessions[session.SessionID].Status)
		assert.Len(t, f.purchases.purchases, 1)

		// 网关重复投递同一事件，去重后不再处理
		require.NoError(t, f.service.HandleWebhook(context.Background(), cmd))
		assert.Len(t, f.purchases.purchases, 1)
	})

	t.Run("redelivery after a transient failure is processed", func(t *testing.T) {
		f := newCheckoutFixture()
		session := newPendingSession(f)

		cmd := WebhookCommand{
			EventID:     "evt_retry",
			EventType:   "checkout.session.completed",
			ProviderRef: session.ProviderRef,
			Signature:   "good",
		}
		f.sessions.failNextByRef = errors.New("db connection reset")
		require.Error(t, f.service.HandleWebhook(context.Background(), cmd))
		assert.Empty(t, f.purchases.purchases)

		// 网关按失败状态重投同一事件，第二次处理补齐购买记录
		require.NoError(t, f.service.HandleWebhook(context.Background(), cmd))
		assert.Len(t, f.purchases.purchases, 1)
		assert.Equal(t, domain.SessionStatusCompleted, f.sessions.sessions[session.SessionID].Status)
	})

	t.Run("failed event marks a pending session failed", func(t *testing.T) {
		f := newCheckoutFixture()
		session := newPendingSession(f)

		require.NoError(t, f.service.HandleWebhook(context.Background(), WebhookCommand{
			EventID:     "evt_2",
			EventType:   "checkout.session.failed",
			ProviderRef: session.ProviderRef,
			Signature:   "good",
		}))
		assert.Equal(t, domain.SessionStatusFailed, f.sessions.sessions[session.SessionID].Status)
		assert.Empty(t, f.purchases.purchases)
	})

	t.Run("failed event does not reopen a completed session", func(t *testing.T) {
		f := newCheckoutFixture()
		session := newPendingSession(f)
		f.payAtProvider(session.SessionID)
		require.NoError(t, f.service.Complete(context.Background(), 7, session.SessionID))

		require.NoError(t, f.service.HandleWebhook(context.Background(), WebhookCommand{
			EventID:     "evt_3",
			EventType:   "checkout.session.failed",
			ProviderRef: session.ProviderRef,
			Signature:   "good",
		}))
		assert.Equal(t, domain.SessionStatusCompleted, f.sessions.sessions[session.SessionID].Status)
	})

	t.Run("event without id is rejected", func(t *testing.T) {
		f := newCheckoutFixture()
		err := f.service.HandleWebhook(context.Background(), WebhookCommand{
			EventType: "checkout.session.completed",
			Signature: "good",
		})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})
}
