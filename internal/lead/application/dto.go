package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	lockdomain "github.com/wyfcoding/leadmarket/internal/lock/domain"
	pricingdomain "github.com/wyfcoding/leadmarket/internal/pricing/domain"
)

// LeadView 市场列表中单条 lead 的 dealer 视角投影
type LeadView struct {
	ID             uint                      `json:"id"`
	FullName       string                    `json:"full_name"`
	City           string                    `json:"city"`
	VehicleType    domain.VehicleType        `json:"vehicle_type"`
	SubmissionDate *time.Time                `json:"submission_date"`
	Status         domain.LeadStatus         `json:"status"`
	Lock           lockdomain.LockView       `json:"lock"`
	IsPurchased    bool                      `json:"is_purchased"`
	IsDownloaded   bool                      `json:"is_downloaded"`
	CanSelect      bool                      `json:"can_select"`
	CanDownload    bool                      `json:"can_download"`
	Price          string                    `json:"price"`
	PriceReason    pricingdomain.PriceReason `json:"price_reason"`

	price decimal.Decimal
}

// EffectivePrice 结算用的精确价格，未做展示舍入
func (v LeadView) EffectivePrice() decimal.Decimal { return v.price }

// SelectionLine 批量选择中的一行
type SelectionLine struct {
	LeadID    uint            `json:"lead_id"`
	Price     string          `json:"price"`
	Purchased bool            `json:"purchased"`
	priceRaw  decimal.Decimal
}

// NewSelectionLine 构造选择行，价格展示值与精确值同步
func NewSelectionLine(leadID uint, price decimal.Decimal, purchased bool) SelectionLine {
	return SelectionLine{LeadID: leadID, Price: price.StringFixed(2), Purchased: purchased, priceRaw: price}
}

// SelectionResult 批量选择的分组与合计
type SelectionResult struct {
	Purchased            []SelectionLine `json:"purchased"`
	Unpurchased          []SelectionLine `json:"unpurchased"`
	TotalCost            string          `json:"total_cost"`
	RequiresConfirmation bool            `json:"requires_confirmation"`

	total decimal.Decimal
}

// NewSelectionResult 由分组行构造选择结果，合计只含未购买行
func NewSelectionResult(purchased, unpurchased []SelectionLine) *SelectionResult {
	total := decimal.Zero
	for _, l := range unpurchased {
		total = total.Add(l.priceRaw)
	}
	return &SelectionResult{
		Purchased:   purchased,
		Unpurchased: unpurchased,
		TotalCost:   total.StringFixed(2),
		// 已购与未购混合时需要二次确认
		RequiresConfirmation: len(purchased) > 0 && len(unpurchased) > 0,
		total:                total,
	}
}

// TotalRaw 合计的精确金额
func (s SelectionResult) TotalRaw() decimal.Decimal { return s.total }

// UnpurchasedIDs 本次选择中待结算的 lead ID
func (s SelectionResult) UnpurchasedIDs() []uint {
	ids := make([]uint, 0, len(s.Unpurchased))
	for _, l := range s.Unpurchased {
		ids = append(ids, l.LeadID)
	}
	return ids
}

// PriceOf 选择中某条待结算 lead 的精确价格
func (s SelectionResult) PriceOf(leadID uint) (decimal.Decimal, bool) {
	for _, l := range s.Unpurchased {
		if l.LeadID == leadID {
			return l.priceRaw, true
		}
	}
	return decimal.Decimal{}, false
}
