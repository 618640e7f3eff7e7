package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lock/application"
	"github.com/wyfcoding/leadmarket/internal/lock/domain"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// LockHandler 锁定相关 HTTP 处理器
type LockHandler struct {
	locks   *application.LockService
	periods *application.PeriodService
}

// NewLockHandler 创建处理器实例
func NewLockHandler(locks *application.LockService, periods *application.PeriodService) *LockHandler {
	return &LockHandler{locks: locks, periods: periods}
}

// RegisterRoutes 注册 dealer 端路由
func (h *LockHandler) RegisterRoutes(dealer *gin.RouterGroup) {
	locks := dealer.Group("/locks")
	{
		locks.POST("", h.Lock)
		locks.DELETE("/:leadId", h.Unlock)
		locks.GET("/periods", h.ListPeriods)
	}
}

// RegisterAdminRoutes 注册 admin 端路由
func (h *LockHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.DELETE("/locks/:leadId", h.AdminUnlock)

	periods := admin.Group("/lockout-periods")
	{
		periods.GET("", h.AdminListPeriods)
		periods.POST("", h.CreatePeriod)
		periods.PUT("/:id", h.UpdatePeriod)
		periods.DELETE("/:id", h.DeletePeriod)
	}
}

// lockRequest 加锁请求
type lockRequest struct {
	LeadID        uint    `json:"lead_id" binding:"required"`
	LockType      string  `json:"lock_type" binding:"required"`
	PaymentID     string  `json:"payment_id"`
	PaymentAmount float64 `json:"payment_amount"`
}

// Lock 对 lead 加锁
func (h *LockHandler) Lock(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.LockCommand{
		LeadID:        req.LeadID,
		DealerID:      middleware.DealerID(c),
		Type:          domain.LockType(req.LockType),
		PaymentID:     req.PaymentID,
		PaymentAmount: decimal.NewFromFloat(req.PaymentAmount),
	}

	lock, err := h.locks.Lock(c.Request.Context(), cmd)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to lock lead", "lead_id", req.LeadID, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, lock)
}

// Unlock 解锁自己的锁，未锁定时幂等返回成功
func (h *LockHandler) Unlock(c *gin.Context) {
	leadID, err := parseID(c, "leadId")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.locks.Unlock(c.Request.Context(), leadID, middleware.DealerID(c)); err != nil {
		logger.Error(c.Request.Context(), "Failed to unlock lead", "lead_id", leadID, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"success": true})
}

// ListPeriods dealer 可见的锁定目录
func (h *LockHandler) ListPeriods(c *gin.Context) {
	periods, err := h.periods.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, periods)
}

// AdminUnlock admin 解锁任意锁
func (h *LockHandler) AdminUnlock(c *gin.Context) {
	leadID, err := parseID(c, "leadId")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.locks.AdminUnlock(c.Request.Context(), leadID, middleware.DealerID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// AdminListPeriods 全部目录项
func (h *LockHandler) AdminListPeriods(c *gin.Context) {
	periods, err := h.periods.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, periods)
}

// periodRequest 目录项写入请求
type periodRequest struct {
	Name     string  `json:"name" binding:"required"`
	Hours    int     `json:"hours"`
	Fee      float64 `json:"fee"`
	IsActive bool    `json:"is_active"`
}

func (r periodRequest) command() application.PeriodCommand {
	return application.PeriodCommand{
		Name:     r.Name,
		Hours:    r.Hours,
		Fee:      decimal.NewFromFloat(r.Fee),
		IsActive: r.IsActive,
	}
}

// CreatePeriod 新增目录项
func (h *LockHandler) CreatePeriod(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	period, err := h.periods.Create(c.Request.Context(), req.command())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, period)
}

// UpdatePeriod 更新目录项
func (h *LockHandler) UpdatePeriod(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	period, err := h.periods.Update(c.Request.Context(), id, req.command())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, period)
}

// DeletePeriod 删除目录项
func (h *LockHandler) DeletePeriod(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.periods.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid " + name)
	}
	return uint(id), nil
}
