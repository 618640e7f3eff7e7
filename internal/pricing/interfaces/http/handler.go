package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/pricing/application"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// SettingsHandler 管理端价格设置 HTTP 处理器
type SettingsHandler struct {
	settings *application.SettingsService
}

// NewSettingsHandler 创建处理器实例
func NewSettingsHandler(settings *application.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// RegisterRoutes 注册路由，admin 分组已由调用方挂载鉴权中间件
func (h *SettingsHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/settings", h.GetSettings)
	admin.PUT("/settings", h.UpdateSettings)
}

// settingsResponse 设置响应体，价格按两位小数展示
type settingsResponse struct {
	StandardPrice         string `json:"standard_price"`
	DiscountedPrice       string `json:"discounted_price"`
	AgeDiscountEnabled    bool   `json:"age_discount_enabled"`
	AgeDiscountDays       int    `json:"age_discount_days"`
	AgeDiscountPercentage string `json:"age_discount_percentage"`
}

// GetSettings 读取全局设置
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to load settings", "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, settingsResponse{
		StandardPrice:         settings.StandardPrice.StringFixed(2),
		DiscountedPrice:       settings.DiscountedPrice.StringFixed(2),
		AgeDiscountEnabled:    settings.AgeDiscountEnabled,
		AgeDiscountDays:       settings.AgeDiscountDays,
		AgeDiscountPercentage: settings.AgeDiscountPercentage.StringFixed(2),
	})
}

// updateSettingsRequest 设置更新请求
type updateSettingsRequest struct {
	StandardPrice         float64 `json:"standard_price" binding:"required"`
	DiscountedPrice       float64 `json:"discounted_price" binding:"required"`
	AgeDiscountEnabled    bool    `json:"age_discount_enabled"`
	AgeDiscountDays       int     `json:"age_discount_days"`
	AgeDiscountPercentage float64 `json:"age_discount_percentage"`
}

// UpdateSettings 更新全局设置
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.UpdateSettingsCommand{
		StandardPrice:         decimal.NewFromFloat(req.StandardPrice),
		DiscountedPrice:       decimal.NewFromFloat(req.DiscountedPrice),
		AgeDiscountEnabled:    req.AgeDiscountEnabled,
		AgeDiscountDays:       req.AgeDiscountDays,
		AgeDiscountPercentage: decimal.NewFromFloat(req.AgeDiscountPercentage),
	}

	settings, err := h.settings.UpdateSettings(c.Request.Context(), cmd)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to update settings", "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, settingsResponse{
		StandardPrice:         settings.StandardPrice.StringFixed(2),
		DiscountedPrice:       settings.DiscountedPrice.StringFixed(2),
		AgeDiscountEnabled:    settings.AgeDiscountEnabled,
		AgeDiscountDays:       settings.AgeDiscountDays,
		AgeDiscountPercentage: settings.AgeDiscountPercentage.StringFixed(2),
	})
}
