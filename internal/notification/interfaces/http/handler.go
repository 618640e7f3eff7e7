// Package http notification 上下文的 HTTP 接口层
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/notification/application"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// NotificationHandler admin 侧的模板与发送记录处理器
type NotificationHandler struct {
	templates     *application.TemplateService
	notifications *application.NotificationService
}

// NewNotificationHandler 创建处理器实例
func NewNotificationHandler(templates *application.TemplateService, notifications *application.NotificationService) *NotificationHandler {
	return &NotificationHandler{templates: templates, notifications: notifications}
}

// RegisterAdminRoutes 注册 admin 端路由
func (h *NotificationHandler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	templates := admin.Group("/templates")
	{
		templates.GET("", h.ListTemplates)
		templates.POST("", h.CreateTemplate)
		templates.PUT("/:id", h.UpdateTemplate)
		templates.DELETE("/:id", h.DeleteTemplate)
	}
	admin.GET("/notifications", h.ListNotifications)
}

// ListTemplates 全部模板
func (h *NotificationHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, templates)
}

// templateRequest 模板写入请求
type templateRequest struct {
	Name     string `json:"name" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Body     string `json:"body" binding:"required"`
	IsActive bool   `json:"is_active"`
}

func (r templateRequest) command() application.TemplateCommand {
	return application.TemplateCommand{
		Name:     r.Name,
		Subject:  r.Subject,
		Body:     r.Body,
		IsActive: r.IsActive,
	}
}

// CreateTemplate 新增模板
func (h *NotificationHandler) CreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	tmpl, err := h.templates.Create(c.Request.Context(), req.command())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tmpl)
}

// UpdateTemplate 修改模板
func (h *NotificationHandler) UpdateTemplate(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	tmpl, err := h.templates.Update(c.Request.Context(), id, req.command())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tmpl)
}

// DeleteTemplate 删除模板
func (h *NotificationHandler) DeleteTemplate(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.templates.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// ListNotifications 最近的发送记录
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifications, err := h.notifications.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notifications)
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Validation("invalid " + name)
	}
	return uint(id), nil
}
