// Package http lead 上下文的 HTTP 接口层
package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/lead/application"
	"github.com/wyfcoding/leadmarket/internal/lead/domain"
	"github.com/wyfcoding/leadmarket/pkg/logger"
	"github.com/wyfcoding/leadmarket/pkg/response"
)

// IntakeHandler 公开的申请入口处理器，无需登录
type IntakeHandler struct {
	intake *application.IntakeService
}

// NewIntakeHandler 创建处理器实例
func NewIntakeHandler(intake *application.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

// RegisterRoutes 注册公开路由
func (h *IntakeHandler) RegisterRoutes(public *gin.RouterGroup) {
	leads := public.Group("/leads")
	{
		leads.POST("/draft", h.SaveDraft)
		leads.POST("/submit", h.Submit)
	}
}

// draftRequest 保存一步表单的请求，data 按 step 解析
type draftRequest struct {
	LeadID uint            `json:"lead_id"`
	Step   string          `json:"step" binding:"required"`
	Data   json.RawMessage `json:"data" binding:"required"`
}

// SaveDraft 保存一步表单，lead_id 为 0 时创建新草稿
func (h *IntakeHandler) SaveDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	record, err := decodeStep(domain.FormStep(req.Step), req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}

	lead, err := h.intake.SaveDraft(c.Request.Context(), req.LeadID, record)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"lead_id":    lead.ID,
		"draft_step": lead.DraftStep,
	})
}

// submitRequest 提交请求
type submitRequest struct {
	LeadID uint `json:"lead_id" binding:"required"`
}

// Submit 提交完整申请
func (h *IntakeHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	lead, err := h.intake.Submit(c.Request.Context(), req.LeadID)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to submit lead", "lead_id", req.LeadID, "error", err)
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"lead_id":         lead.ID,
		"status":          lead.Status,
		"submission_date": lead.SubmissionDate,
	})
}

// decodeStep 按步骤名解析具体的表单记录
func decodeStep(step domain.FormStep, data json.RawMessage) (domain.StepRecord, error) {
	var record domain.StepRecord
	switch step {
	case domain.StepApplicant:
		record = &domain.ApplicantStep{}
	case domain.StepVehicle:
		record = &domain.VehicleStep{}
	case domain.StepFinances:
		record = &domain.FinanceStep{}
	case domain.StepConsent:
		record = &domain.ConsentStep{}
	default:
		return nil, apperr.Validation("unknown form step")
	}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, apperr.Validation("malformed step payload")
	}
	return record, nil
}
