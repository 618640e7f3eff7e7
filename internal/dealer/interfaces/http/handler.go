// Package http dealer 上下文的 HTTP 接口层
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/dealer/application"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// DealerHandler dealer 账号处理器
type DealerHandler struct {
	auth     *application.AuthService
	accounts *application.AccountService
}

// NewDealerHandler 创建处理器实例
func NewDealerHandler(auth *application.AuthService, accounts *application.AccountService) *DealerHandler {
	return &DealerHandler{auth: auth, accounts: accounts}
}

// RegisterPublicRoutes 注册无鉴权路由
func (h *DealerHandler) RegisterPublicRoutes(public *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// RegisterRoutes 注册 dealer 端路由
func (h *DealerHandler) RegisterRoutes(dealer *gin.RouterGroup) {
	dealer.GET("/profile", h.Profile)
}

// RegisterAdminRoutes 注册 admin 端路由
func (h *DealerHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	dealers := admin.Group("/dealers")
	{
		dealers.GET("", h.List)
		dealers.PUT("/:id/pause", h.Pause)
		dealers.PUT("/:id/resume", h.Resume)
	}
}

// registerRequest 注册请求
type registerRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"company_name"`
}

// Register 注册新 dealer
func (h *DealerHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dealer, err := h.auth.Register(c.Request.Context(), application.RegisterCommand{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to register dealer", "error", err)
		response.Error(c, err)
		return
	}
	response.Success(c, dealer)
}

// loginRequest 登录请求
type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 登录并签发 token
func (h *DealerHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Profile 当前账号档案
func (h *DealerHandler) Profile(c *gin.Context) {
	dealer, err := h.accounts.Profile(c.Request.Context(), middleware.DealerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dealer)
}

// List 全部 dealer 账号
func (h *DealerHandler) List(c *gin.Context) {
	dealers, err := h.accounts.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"dealers": dealers, "total": len(dealers)})
}

// Pause 暂停账号
func (h *DealerHandler) Pause(c *gin.Context) {
	h.setPaused(c, true)
}

// Resume 恢复账号
func (h *DealerHandler) Resume(c *gin.Context) {
	h.setPaused(c, false)
}

func (h *DealerHandler) setPaused(c *gin.Context, paused bool) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	dealer, err := h.accounts.SetPaused(c.Request.Context(), id, paused)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dealer)
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid " + name)
	}
	return uint(id), nil
}
