package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testPrices() PricePair {
	return PricePair{
		Standard:   decimal.RequireFromString("10.99"),
		Discounted: decimal.RequireFromString("5.99"),
	}
}

func ageSettings(enabled bool, threshold int) AgeDiscountSettings {
	return AgeDiscountSettings{
		Enabled:       enabled,
		DaysThreshold: threshold,
		Percentage:    decimal.RequireFromString("25"),
	}
}

func TestResolvePrice_Precedence(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name           string
		viewer         ViewerContext
		settings       AgeDiscountSettings
		submissionDate time.Time
		expectedPrice  string
		expectedReason PriceReason
	}{
		{
			name:           "fresh lead, no history",
			viewer:         ViewerContext{},
			settings:       ageSettings(false, 30),
			submissionDate: now.Add(-24 * time.Hour),
			expectedPrice:  "10.99",
			expectedReason: PriceReasonStandard,
		},
		{
			name:           "purchased lead is free regardless of everything else",
			viewer:         ViewerContext{Purchased: true, PreviouslyLockedByOther: true},
			settings:       ageSettings(true, 30),
			submissionDate: now.Add(-40 * 24 * time.Hour),
			expectedPrice:  "0",
			expectedReason: PriceReasonFree,
		},
		{
			name:           "previously locked by another dealer, lock lapsed",
			viewer:         ViewerContext{PreviouslyLockedByOther: true},
			settings:       ageSettings(false, 30),
			submissionDate: now.Add(-24 * time.Hour),
			expectedPrice:  "5.99",
			expectedReason: PriceReasonLockDiscount,
		},
		{
			name:           "age discount past threshold",
			viewer:         ViewerContext{},
			settings:       ageSettings(true, 30),
			submissionDate: now.Add(-40 * 24 * time.Hour),
			expectedPrice:  "5.99",
			expectedReason: PriceReasonAgeDiscount,
		},
		{
			name:           "age discount wins over lock discount without compounding",
			viewer:         ViewerContext{PreviouslyLockedByOther: true},
			settings:       ageSettings(true, 30),
			submissionDate: now.Add(-40 * 24 * time.Hour),
			expectedPrice:  "5.99",
			expectedReason: PriceReasonAgeDiscount,
		},
		{
			name:           "age discount disabled keeps standard price for old lead",
			viewer:         ViewerContext{},
			settings:       ageSettings(false, 30),
			submissionDate: now.Add(-400 * 24 * time.Hour),
			expectedPrice:  "10.99",
			expectedReason: PriceReasonStandard,
		},
		{
			name:           "age below threshold keeps standard price",
			viewer:         ViewerContext{},
			settings:       ageSettings(true, 30),
			submissionDate: now.Add(-29 * 24 * time.Hour),
			expectedPrice:  "10.99",
			expectedReason: PriceReasonStandard,
		},
		{
			name:           "missing submission date never age-discounts",
			viewer:         ViewerContext{},
			settings:       ageSettings(true, 0),
			submissionDate: time.Time{},
			expectedPrice:  "10.99",
			expectedReason: PriceReasonStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, reason := ResolvePrice(testPrices(), tt.viewer, tt.settings, tt.submissionDate, now)
			assert.True(t, price.Equal(decimal.RequireFromString(tt.expectedPrice)),
				"expected %s, got %s", tt.expectedPrice, price)
			assert.Equal(t, tt.expectedReason, reason)
		})
	}
}

func TestResolvePrice_MissingDateWithLockHistory(t *testing.T) {
	// 提交时间缺失只封死账龄折扣，锁定折扣照常生效
	now := time.Now()
	price, reason := ResolvePrice(testPrices(), ViewerContext{PreviouslyLockedByOther: true},
		ageSettings(true, 0), time.Time{}, now)
	assert.True(t, price.Equal(decimal.RequireFromString("5.99")))
	assert.Equal(t, PriceReasonLockDiscount, reason)
}

func TestAgeInDays(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		submission time.Time
		expected   int
	}{
		{"same moment", now, 0},
		{"less than a day", now.Add(-23 * time.Hour), 0},
		{"exactly thirty days", now.AddDate(0, 0, -30), 30},
		{"forty days", now.AddDate(0, 0, -40), 40},
		{"zero value", time.Time{}, 0},
		{"future date treated as zero", now.Add(48 * time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AgeInDays(now, tt.submission))
		})
	}
}

func TestIsAgeDiscounted(t *testing.T) {
	now := time.Now()
	old := now.AddDate(0, 0, -31)

	assert.True(t, IsAgeDiscounted(ageSettings(true, 30), old, now))
	assert.False(t, IsAgeDiscounted(ageSettings(false, 30), old, now))
	assert.False(t, IsAgeDiscounted(ageSettings(true, 30), now.AddDate(0, 0, -5), now))
}
