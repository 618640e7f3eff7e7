package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	lockdomain "github.com/wyfcoding/leadmarket/internal/lock/domain"
	pricingdomain "github.com/wyfcoding/leadmarket/internal/pricing/domain"
)

type fakeLeadRepository struct {
	leads  map[uint]*domain.Lead
	nextID uint
}

func (f *fakeLeadRepository) Get(_ context.Context, id uint) (*domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead")
	}
	return lead, nil
}

func (f *fakeLeadRepository) Save(_ context.Context, lead *domain.Lead) error {
	if lead.ID == 0 {
		f.nextID++
		lead.ID = f.nextID
	}
	f.leads[lead.ID] = lead
	return nil
}

func (f *fakeLeadRepository) ListMarket(_ context.Context, excludeIDs []uint) ([]*domain.Lead, error) {
	excluded := make(map[uint]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []*domain.Lead
	for _, lead := range f.leads {
		if excluded[lead.ID] {
			continue
		}
		if lead.Status == domain.LeadStatusSubmitted || lead.Status == domain.LeadStatusApproved {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeLeadRepository) ListByIDs(_ context.Context, ids []uint) ([]*domain.Lead, error) {
	var out []*domain.Lead
	for _, id := range ids {
		if lead, ok := f.leads[id]; ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeLeadRepository) ListAll(_ context.Context, status domain.LeadStatus, limit, offset int) ([]*domain.Lead, int64, error) {
	var out []*domain.Lead
	for _, lead := range f.leads {
		if status == "" || lead.Status == status {
			out = append(out, lead)
		}
	}
	return out, int64(len(out)), nil
}

type fakeLockViews struct {
	views  map[uint]lockdomain.LockView
	priors map[uint]bool
}

func (f *fakeLockViews) ViewsFor(_ context.Context, leadIDs []uint, _ uint) (map[uint]lockdomain.LockView, error) {
	out := make(map[uint]lockdomain.LockView, len(leadIDs))
	for _, id := range leadIDs {
		out[id] = f.views[id]
	}
	return out, nil
}

func (f *fakeLockViews) PriorLockDiscounts(_ context.Context, leadIDs []uint, _ uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(leadIDs))
	for _, id := range leadIDs {
		out[id] = f.priors[id]
	}
	return out, nil
}

type fakePurchaseReader struct {
	purchased  map[uint]bool
	downloaded map[uint]bool
}

func (f *fakePurchaseReader) PurchasedLeadIDs(_ context.Context, _ uint, _ []uint) (map[uint]bool, error) {
	return f.purchased, nil
}

func (f *fakePurchaseReader) DownloadedLeadIDs(_ context.Context, _ uint, _ []uint) (map[uint]bool, error) {
	return f.downloaded, nil
}

type fakeSettingsReader struct {
	settings pricingdomain.Settings
}

func (f *fakeSettingsReader) GetSettings(_ context.Context) (*pricingdomain.Settings, error) {
	return &f.settings, nil
}

type fakeHiddenReader struct {
	hidden map[uint][]uint
}

func (f *fakeHiddenReader) HiddenLeads(_ context.Context, dealerID uint) ([]uint, error) {
	return f.hidden[dealerID], nil
}

func marketLead(id uint, name string, submittedDaysAgo int) *domain.Lead {
	at := time.Now().Add(-time.Duration(submittedDaysAgo) * 24 * time.Hour)
	lead := &domain.Lead{
		FullName:    name,
		City:        "Utrecht",
		VehicleType: domain.VehicleTypeCar,
		Status:      domain.LeadStatusSubmitted,
	}
	lead.ID = id
	lead.SubmissionDate = &at
	return lead
}

func newQueryFixture() (*MarketplaceQueryService, *fakeLeadRepository, *fakeLockViews, *fakePurchaseReader, *fakeHiddenReader) {
	leads := &fakeLeadRepository{leads: map[uint]*domain.Lead{}}
	locks := &fakeLockViews{views: map[uint]lockdomain.LockView{}, priors: map[uint]bool{}}
	purchases := &fakePurchaseReader{purchased: map[uint]bool{}, downloaded: map[uint]bool{}}
	settings := &fakeSettingsReader{settings: pricingdomain.Settings{
		StandardPrice:      decimal.RequireFromString("10.99"),
		DiscountedPrice:    decimal.RequireFromString("5.99"),
		AgeDiscountEnabled: true,
		AgeDiscountDays:    30,
	}}
	hidden := &fakeHiddenReader{hidden: map[uint][]uint{}}
	svc := NewMarketplaceQueryService(leads, locks, purchases, settings, hidden, nil, slog.Default())
	return svc, leads, locks, purchases, hidden
}

func TestListLeads_HiddenAndPricing(t *testing.T) {
	svc, repo, locks, purchases, hidden := newQueryFixture()
	repo.leads[1] = marketLead(1, "Fresh Lead", 1)
	repo.leads[2] = marketLead(2, "Aged Lead", 45)
	repo.leads[3] = marketLead(3, "Hidden Lead", 1)
	repo.leads[4] = marketLead(4, "Bought Lead", 1)
	hidden.hidden[7] = []uint{3}
	purchases.purchased[4] = true
	locks.priors[1] = false

	views, err := svc.ListLeads(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byID := make(map[uint]LeadView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}

	assert.Equal(t, "10.99", byID[1].Price)
	assert.Equal(t, pricingdomain.PriceReasonStandard, byID[1].PriceReason)
	assert.Equal(t, "5.99", byID[2].Price)
	assert.Equal(t, pricingdomain.PriceReasonAgeDiscount, byID[2].PriceReason)
	assert.Equal(t, "0.00", byID[4].Price)
	assert.Equal(t, pricingdomain.PriceReasonFree, byID[4].PriceReason)
	assert.True(t, byID[4].IsPurchased)
	assert.False(t, byID[4].CanSelect)
	// 下载资格只看购买记录
	assert.True(t, byID[4].CanDownload)
	assert.False(t, byID[1].CanDownload)
	_, listed := byID[3]
	assert.False(t, listed, "hidden lead must not appear")
}

func TestListLeads_LockStateBlocksSelection(t *testing.T) {
	svc, repo, locks, _, _ := newQueryFixture()
	repo.leads[1] = marketLead(1, "Locked By Other", 1)
	repo.leads[2] = marketLead(2, "Locked By Me", 1)
	locks.views[1] = lockdomain.LockView{IsLocked: true, IsOwnLock: false, Type: lockdomain.LockTypeTemporary}
	locks.views[2] = lockdomain.LockView{IsLocked: true, IsOwnLock: true, Type: lockdomain.LockTypeTemporary}

	views, err := svc.ListLeads(context.Background(), 7)
	require.NoError(t, err)

	byID := make(map[uint]LeadView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.False(t, byID[1].CanSelect)
	assert.True(t, byID[2].CanSelect)
}

func TestBuildSelection(t *testing.T) {
	t.Run("empty selection is rejected", func(t *testing.T) {
		svc, _, _, _, _ := newQueryFixture()
		_, err := svc.BuildSelection(context.Background(), 7, nil)
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("mixed selection partitions and totals unpurchased only", func(t *testing.T) {
		svc, repo, _, purchases, _ := newQueryFixture()
		repo.leads[1] = marketLead(1, "A", 1)
		repo.leads[2] = marketLead(2, "B", 45)
		repo.leads[3] = marketLead(3, "C", 1)
		purchases.purchased[3] = true

		result, err := svc.BuildSelection(context.Background(), 7, []uint{1, 2, 3})
		require.NoError(t, err)

		require.Len(t, result.Purchased, 1)
		require.Len(t, result.Unpurchased, 2)
		// 10.99 标准价 + 5.99 账龄折扣价
		assert.Equal(t, "16.98", result.TotalCost)
		assert.True(t, result.RequiresConfirmation)
		assert.ElementsMatch(t, []uint{1, 2}, result.UnpurchasedIDs())

		price, ok := result.PriceOf(2)
		require.True(t, ok)
		assert.True(t, price.Equal(decimal.RequireFromString("5.99")))
	})

	t.Run("all unpurchased needs no confirmation", func(t *testing.T) {
		svc, repo, _, _, _ := newQueryFixture()
		repo.leads[1] = marketLead(1, "A", 1)
		repo.leads[2] = marketLead(2, "B", 1)

		result, err := svc.BuildSelection(context.Background(), 7, []uint{1, 2})
		require.NoError(t, err)
		assert.Empty(t, result.Purchased)
		assert.False(t, result.RequiresConfirmation)
		assert.Equal(t, "21.98", result.TotalCost)
	})

	t.Run("all purchased totals zero", func(t *testing.T) {
		svc, repo, _, purchases, _ := newQueryFixture()
		repo.leads[1] = marketLead(1, "A", 1)
		purchases.purchased[1] = true

		result, err := svc.BuildSelection(context.Background(), 7, []uint{1})
		require.NoError(t, err)
		assert.Empty(t, result.Unpurchased)
		assert.False(t, result.RequiresConfirmation)
		assert.Equal(t, "0.00", result.TotalCost)
	})
}
