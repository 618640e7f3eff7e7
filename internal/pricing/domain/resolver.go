package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgeDiscountSettings 账龄折扣规则
type AgeDiscountSettings struct {
	Enabled       bool
	DaysThreshold int
	Percentage    decimal.Decimal
}

// PricePair 一条 lead 的标准价与折扣价
type PricePair struct {
	Standard   decimal.Decimal
	Discounted decimal.Decimal
}

// ViewerContext 查看方 dealer 相对于这条 lead 的状态
type ViewerContext struct {
	// Purchased 该 dealer 已购买此 lead
	Purchased bool
	// PreviouslyLockedByOther 曾被其他 dealer 锁定且锁已失效或释放
	PreviouslyLockedByOther bool
}

// PriceReason 价格裁决原因
type PriceReason string

const (
	PriceReasonFree         PriceReason = "free"
	PriceReasonAgeDiscount  PriceReason = "age_discount"
	PriceReasonLockDiscount PriceReason = "prior_lock_discount"
	PriceReasonStandard     PriceReason = "standard"
)

// AgeInDays 计算 lead 的账龄天数（向下取整）
// 提交时间缺失或晚于当前时间时按 0 处理，由调用方记录异常
func AgeInDays(now, submissionDate time.Time) int {
	if submissionDate.IsZero() || submissionDate.After(now) {
		return 0
	}
	return int(now.Sub(submissionDate).Hours() / 24)
}

// IsAgeDiscounted 判断 lead 是否满足账龄折扣
// 提交时间缺失的记录永不折扣，threshold 为 0 时也一样
func IsAgeDiscounted(settings AgeDiscountSettings, submissionDate, now time.Time) bool {
	if submissionDate.IsZero() {
		return false
	}
	return settings.Enabled && AgeInDays(now, submissionDate) >= settings.DaysThreshold
}

// ResolvePrice 价格裁决
// 优先级固定：已购买免费 > 账龄折扣 > 曾被他人锁定折扣 > 标准价；
// 账龄折扣先于锁定折扣判断并短路，两种折扣互斥不叠加
func ResolvePrice(prices PricePair, viewer ViewerContext, settings AgeDiscountSettings, submissionDate, now time.Time) (decimal.Decimal, PriceReason) {
	if viewer.Purchased {
		return decimal.Zero, PriceReasonFree
	}
	if IsAgeDiscounted(settings, submissionDate, now) {
		return prices.Discounted, PriceReasonAgeDiscount
	}
	if viewer.PreviouslyLockedByOther {
		return prices.Discounted, PriceReasonLockDiscount
	}
	return prices.Standard, PriceReasonStandard
}
