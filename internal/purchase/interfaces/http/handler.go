// Package http purchase 上下文的 HTTP 接口层
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/purchase/application"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// PurchaseHandler 结算与购买记录处理器
type PurchaseHandler struct {
	checkout *application.CheckoutService
	query    *application.PurchaseQueryService
}

// NewPurchaseHandler 创建处理器实例
func NewPurchaseHandler(checkout *application.CheckoutService, query *application.PurchaseQueryService) *PurchaseHandler {
	return &PurchaseHandler{checkout: checkout, query: query}
}

// RegisterRoutes 注册 dealer 端路由
func (h *PurchaseHandler) RegisterRoutes(dealer *gin.RouterGroup) {
	checkout := dealer.Group("/checkout")
	{
		checkout.POST("/session", h.CreateSession)
		checkout.POST("/complete", h.Complete)
	}

	purchases := dealer.Group("/purchases")
	{
		purchases.GET("", h.ListPurchases)
		purchases.GET("/:leadId/download", h.Download)
	}
}

// RegisterPublicRoutes 注册无鉴权路由，回调由签名校验保护
func (h *PurchaseHandler) RegisterPublicRoutes(public *gin.RouterGroup) {
	public.POST("/checkout/webhook", h.Webhook)
}

// sessionRequest 会话创建请求
type sessionRequest struct {
	LeadIDs []uint `json:"lead_ids" binding:"required"`
}

// CreateSession 为选中的 lead 创建结算会话
func (h *PurchaseHandler) CreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.checkout.CreateSession(c.Request.Context(), middleware.DealerID(c), req.LeadIDs)
	if err != nil {
		// 全部已购买按成功路径返回，前端直接跳转成功页
		if apperr.CodeOf(err) == apperr.CodeAlreadyPurchased {
			response.Success(c, gin.H{"already_purchased": true})
			return
		}
		logger.Error(c.Request.Context(), "Failed to create checkout session", "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// completeRequest 会话确认请求
type completeRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// Complete dealer 主动确认会话完成，重复确认幂等
func (h *PurchaseHandler) Complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.checkout.Complete(c.Request.Context(), middleware.DealerID(c), req.SessionID); err != nil {
		logger.Error(c.Request.Context(), "Failed to complete checkout session",
			"session_id", req.SessionID, "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// webhookEnvelope 服务商回调体
type webhookEnvelope struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Webhook 消费支付网关回调
func (h *PurchaseHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "unreadable payload", "")
		return
	}

	// 签名覆盖原始字节，解析前不可改写 payload
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "malformed payload", "")
		return
	}

	cmd := application.WebhookCommand{
		EventID:     envelope.ID,
		EventType:   envelope.Type,
		ProviderRef: envelope.SessionID,
		Payload:     payload,
		Signature:   c.GetHeader("X-Webhook-Signature"),
	}

	if err := h.checkout.HandleWebhook(c.Request.Context(), cmd); err != nil {
		logger.Error(c.Request.Context(), "Failed to process payment webhook", "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"received": true})
}

// ListPurchases dealer 的购买记录
func (h *PurchaseHandler) ListPurchases(c *gin.Context) {
	purchases, err := h.query.ListPurchases(c.Request.Context(), middleware.DealerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"purchases": purchases, "total": len(purchases)})
}

// Download 导出已购买 lead 的完整申请数据
func (h *PurchaseHandler) Download(c *gin.Context) {
	leadID, err := parseID(c, "leadId")
	if err != nil {
		response.Error(c, err)
		return
	}

	lead, err := h.query.Download(c.Request.Context(), middleware.DealerID(c), leadID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, lead)
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid " + name)
	}
	return uint(id), nil
}
