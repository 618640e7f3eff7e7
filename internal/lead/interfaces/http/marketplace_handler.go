package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/leadmarket/internal/lead/application"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// HiddenLeadWriter dealer 隐藏列表写入端口
type HiddenLeadWriter interface {
	HideLead(ctx context.Context, dealerID, leadID uint) error
	UnhideLead(ctx context.Context, dealerID, leadID uint) error
}

// MarketplaceHandler dealer 市场处理器
type MarketplaceHandler struct {
	query  *application.MarketplaceQueryService
	hidden HiddenLeadWriter
}

// NewMarketplaceHandler 创建处理器实例
func NewMarketplaceHandler(query *application.MarketplaceQueryService, hidden HiddenLeadWriter) *MarketplaceHandler {
	return &MarketplaceHandler{query: query, hidden: hidden}
}

// RegisterRoutes 注册 dealer 端路由
func (h *MarketplaceHandler) RegisterRoutes(dealer *gin.RouterGroup) {
	market := dealer.Group("/marketplace")
	{
		market.GET("/leads", h.ListLeads)
		market.GET("/leads/:leadId", h.GetLead)
		market.POST("/leads/:leadId/hide", h.HideLead)
		market.DELETE("/leads/:leadId/hide", h.UnhideLead)
		market.POST("/selection", h.BuildSelection)
	}
}

// ListLeads 市场列表，含 dealer 视角的价格与锁状态
func (h *MarketplaceHandler) ListLeads(c *gin.Context) {
	views, err := h.query.ListLeads(c.Request.Context(), middleware.DealerID(c))
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list marketplace leads", "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"leads": views, "total": len(views)})
}

// GetLead 单条 lead 视图
func (h *MarketplaceHandler) GetLead(c *gin.Context) {
	leadID, err := parseID(c, "leadId")
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.query.GetLead(c.Request.Context(), middleware.DealerID(c), leadID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// HideLead 把 lead 从自己的市场视图移除
func (h *MarketplaceHandler) HideLead(c *gin.Context) {
	leadID, err := parseID(c, "leadId")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.hidden.HideLead(c.Request.Context(), middleware.DealerID(c), leadID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// UnhideLead 恢复被隐藏的 lead
func (h *MarketplaceHandler) UnhideLead(c *gin.Context) {
	leadID, err := parseID(c, "leadId")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.hidden.UnhideLead(c.Request.Context(), middleware.DealerID(c), leadID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// selectionRequest 批量选择请求
type selectionRequest struct {
	LeadIDs []uint `json:"lead_ids" binding:"required"`
}

// BuildSelection 批量选择的分组、合计与确认提示
func (h *MarketplaceHandler) BuildSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.query.BuildSelection(c.Request.Context(), middleware.DealerID(c), req.LeadIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
