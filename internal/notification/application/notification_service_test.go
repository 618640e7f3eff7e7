package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/leadmarket/internal/notification/domain"
)

type fakeTemplateRepository struct {
	templates map[string]*domain.EmailTemplate
}

func (f *fakeTemplateRepository) List(_ context.Context) ([]*domain.EmailTemplate, error) {
	var out []*domain.EmailTemplate
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTemplateRepository) Get(_ context.Context, id uint) (*domain.EmailTemplate, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errors.New("template not found")
}

func (f *fakeTemplateRepository) GetByName(_ context.Context, name string) (*domain.EmailTemplate, error) {
	return f.templates[name], nil
}

func (f *fakeTemplateRepository) Save(_ context.Context, tmpl *domain.EmailTemplate) error {
	f.templates[tmpl.Name] = tmpl
	return nil
}

func (f *fakeTemplateRepository) Delete(_ context.Context, id uint) error {
	for name, t := range f.templates {
		if t.ID == id {
			delete(f.templates, name)
		}
	}
	return nil
}

type fakeNotificationRepository struct {
	saved []*domain.Notification
}

func (f *fakeNotificationRepository) Save(_ context.Context, n *domain.Notification) error {
	for _, existing := range f.saved {
		if existing == n {
			return nil
		}
	}
	f.saved = append(f.saved, n)
	return nil
}

func (f *fakeNotificationRepository) ListRecent(_ context.Context, limit int) ([]*domain.Notification, error) {
	if limit > len(f.saved) {
		limit = len(f.saved)
	}
	return f.saved[:limit], nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, recipient, _, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient)
	return nil
}

func newNotificationFixture() (*NotificationService, *fakeTemplateRepository, *fakeNotificationRepository, *fakeSender) {
	templates := &fakeTemplateRepository{templates: map[string]*domain.EmailTemplate{}}
	notifications := &fakeNotificationRepository{}
	sender := &fakeSender{}
	svc := NewNotificationService(templates, notifications, sender, nil, slog.Default())
	return svc, templates, notifications, sender
}

func activeTemplate(name, subject, body string) *domain.EmailTemplate {
	return &domain.EmailTemplate{Name: name, Subject: subject, Body: body, IsActive: true}
}

func TestDeliver(t *testing.T) {
	t.Run("renders template and records a sent notification", func(t *testing.T) {
		svc, templates, notifications, sender := newNotificationFixture()
		templates.templates[domain.TemplateLeadSubmitted] = activeTemplate(
			domain.TemplateLeadSubmitted,
			"Bedankt, {{.FullName}}",
			"Uw aanvraag {{.LeadID}} is ontvangen.",
		)

		svc.LeadSubmitted(context.Background(), "jan@example.com", "Jan Jansen", 42)

		assert.Equal(t, []string{"jan@example.com"}, sender.sent)
		require.Len(t, notifications.saved, 1)
		record := notifications.saved[0]
		assert.Equal(t, domain.NotificationStatusSent, record.Status)
		assert.Equal(t, "Bedankt, Jan Jansen", record.Subject)
		assert.Equal(t, "Uw aanvraag 42 is ontvangen.", record.Body)
		require.NotNil(t, record.SentAt)
	})

	t.Run("missing template is skipped silently", func(t *testing.T) {
		svc, _, notifications, sender := newNotificationFixture()

		svc.LeadSubmitted(context.Background(), "jan@example.com", "Jan Jansen", 42)

		assert.Empty(t, sender.sent)
		assert.Empty(t, notifications.saved)
	})

	t.Run("inactive template is skipped", func(t *testing.T) {
		svc, templates, notifications, _ := newNotificationFixture()
		tmpl := activeTemplate(domain.TemplatePurchaseReceipt, "s", "b")
		tmpl.IsActive = false
		templates.templates[domain.TemplatePurchaseReceipt] = tmpl

		svc.PurchaseCompleted(context.Background(), "dealer@example.com", 2, "16.98")
		assert.Empty(t, notifications.saved)
	})

	t.Run("send failure is recorded, not propagated", func(t *testing.T) {
		svc, templates, notifications, sender := newNotificationFixture()
		sender.err = errors.New("smtp connection refused")
		templates.templates[domain.TemplatePurchaseReceipt] = activeTemplate(
			domain.TemplatePurchaseReceipt,
			"Aankoopbevestiging",
			"U heeft {{.LeadCount}} leads gekocht voor {{.Amount}}.",
		)

		svc.PurchaseCompleted(context.Background(), "dealer@example.com", 2, "16.98")

		require.Len(t, notifications.saved, 1)
		assert.Equal(t, domain.NotificationStatusFailed, notifications.saved[0].Status)
		assert.Equal(t, "smtp connection refused", notifications.saved[0].FailReason)
	})
}
