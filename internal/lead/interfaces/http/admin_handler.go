package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/application"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// AdminLeadHandler admin 侧 lead 管理处理器
type AdminLeadHandler struct {
	admin *application.AdminLeadService
}

// NewAdminLeadHandler 创建处理器实例
func NewAdminLeadHandler(admin *application.AdminLeadService) *AdminLeadHandler {
	return &AdminLeadHandler{admin: admin}
}

// RegisterRoutes 注册 admin 端路由
func (h *AdminLeadHandler) RegisterRoutes(admin *gin.RouterGroup) {
	leads := admin.Group("/leads")
	{
		leads.GET("", h.List)
		leads.GET("/:id", h.Get)
		leads.PUT("/:id", h.Edit)
		leads.PUT("/:id/status", h.UpdateStatus)
	}
}

// List 全量 lead 列表，支持状态过滤与分页
func (h *AdminLeadHandler) List(c *gin.Context) {
	status := domain.LeadStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	leads, total, err := h.admin.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"leads": leads, "total": total})
}

// Get 按 ID 获取
func (h *AdminLeadHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	lead, err := h.admin.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, lead)
}

// statusRequest 状态流转请求
type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 审核状态流转
func (h *AdminLeadHandler) UpdateStatus(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	lead, err := h.admin.UpdateStatus(c.Request.Context(), id, domain.LeadStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, lead)
}

// editRequest lead 编辑请求，缺省字段不变
type editRequest struct {
	FullName        *string  `json:"full_name"`
	Email           *string  `json:"email"`
	Phone           *string  `json:"phone"`
	City            *string  `json:"city"`
	StandardPrice   *float64 `json:"standard_price"`
	DiscountedPrice *float64 `json:"discounted_price"`
}

// Edit 编辑申请人信息与单条价格覆盖
func (h *AdminLeadHandler) Edit(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.EditLeadCommand{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		City:     req.City,
	}
	if req.StandardPrice != nil {
		p := decimal.NewFromFloat(*req.StandardPrice)
		cmd.StandardPrice = &p
	}
	if req.DiscountedPrice != nil {
		p := decimal.NewFromFloat(*req.DiscountedPrice)
		cmd.DiscountedPrice = &p
	}

	lead, err := h.admin.Edit(c.Request.Context(), id, cmd)
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
