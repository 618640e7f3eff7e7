package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestLeadLock_IsActive(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		lock     *LeadLock
		expected bool
	}{
		{"nil lock is never active", nil, false},
		{
			"future expiry is active",
			&LeadLock{ExpiresAt: timePtr(now.Add(time.Hour))},
			true,
		},
		{
			"past expiry is inactive without any unlock call",
			&LeadLock{ExpiresAt: timePtr(now.Add(-time.Minute))},
			false,
		},
		{
			"permanent lock has no expiry",
			&LeadLock{ExpiresAt: nil},
			true,
		},
		{
			"released lock is inactive even before expiry",
			&LeadLock{ExpiresAt: timePtr(now.Add(time.Hour)), ReleasedAt: timePtr(now.Add(-time.Minute))},
			false,
		},
		{
			"released permanent lock is inactive",
			&LeadLock{ReleasedAt: timePtr(now)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lock.IsActive(now))
		})
	}
}

func TestBuildView(t *testing.T) {
	now := time.Now()
	expires := now.Add(time.Hour)

	t.Run("no lock", func(t *testing.T) {
		view := BuildView(nil, 7, now)
		assert.False(t, view.IsLocked)
		assert.False(t, view.IsOwnLock)
	})

	t.Run("own active lock", func(t *testing.T) {
		lock := &LeadLock{DealerID: 7, Type: LockType24Hours, ExpiresAt: &expires}
		view := BuildView(lock, 7, now)
		assert.True(t, view.IsLocked)
		assert.True(t, view.IsOwnLock)
		assert.Equal(t, LockType24Hours, view.Type)
	})

	t.Run("lock held by another dealer", func(t *testing.T) {
		lock := &LeadLock{DealerID: 3, ExpiresAt: &expires}
		view := BuildView(lock, 7, now)
		assert.True(t, view.IsLocked)
		assert.False(t, view.IsOwnLock)
	})

	t.Run("expired lock reads as unlocked", func(t *testing.T) {
		past := now.Add(-time.Minute)
		lock := &LeadLock{DealerID: 3, ExpiresAt: &past}
		view := BuildView(lock, 7, now)
		assert.False(t, view.IsLocked)
	})
}

func TestEligibility(t *testing.T) {
	lockedByOther := LockView{IsLocked: true, IsOwnLock: false}
	lockedByViewer := LockView{IsLocked: true, IsOwnLock: true}
	unlocked := LockView{}

	t.Run("selection", func(t *testing.T) {
		assert.True(t, CanSelect(unlocked, false))
		assert.True(t, CanSelect(lockedByViewer, false))
		assert.False(t, CanSelect(lockedByOther, false))
		// 购买优先于锁
		assert.True(t, CanSelect(lockedByOther, true))
	})

	t.Run("locking", func(t *testing.T) {
		assert.True(t, CanLock(unlocked))
		assert.False(t, CanLock(lockedByOther))
		// 持锁者可以升级自己的锁
		assert.True(t, CanLock(lockedByViewer))
	})

	t.Run("unlocking", func(t *testing.T) {
		lock := &LeadLock{DealerID: 7}
		assert.True(t, CanUnlock(lock, 7, false))
		assert.False(t, CanUnlock(lock, 8, false))
		assert.True(t, CanUnlock(lock, 8, true))
		assert.False(t, CanUnlock(nil, 7, true))
	})

	t.Run("download", func(t *testing.T) {
		assert.True(t, CanDownload(true))
		assert.False(t, CanDownload(false))
	})
}

func TestLockoutPeriod_Duration(t *testing.T) {
	day := LockoutPeriod{Name: "24 Hours", Hours: 24}
	d, hasExpiry := day.Duration()
	assert.True(t, hasExpiry)
	assert.Equal(t, 24*time.Hour, d)

	permanent := LockoutPeriod{Name: "Permanent", Hours: 0}
	_, hasExpiry = permanent.Duration()
	assert.False(t, hasExpiry)
}
