package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/leadmarket/internal/apperr"
)

// FormStep 表单步骤标识
type FormStep string

const (
	StepApplicant FormStep = "applicant"
	StepVehicle   FormStep = "vehicle"
	StepFinances  FormStep = "finances"
	StepConsent   FormStep = "consent"
)

// StepOrder 表单步骤顺序
var StepOrder = []FormStep{StepApplicant, StepVehicle, StepFinances, StepConsent}

// StepRecord 一步表单数据，每步为显式类型并自带校验
type StepRecord interface {
	Step() FormStep
	Validate() error
	Apply(lead *Lead)
}

// ApplicantStep 申请人信息
type ApplicantStep struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
}

func (ApplicantStep) Step() FormStep { return StepApplicant }

func (s ApplicantStep) Validate() error {
	if strings.TrimSpace(s.FullName) == "" {
		return apperr.Validation("full name is required")
	}
	if !strings.Contains(s.Email, "@") {
		return apperr.Validation("a valid email is required")
	}
	return nil
}

func (s ApplicantStep) Apply(lead *Lead) {
	lead.FullName = strings.TrimSpace(s.FullName)
	lead.Email = strings.TrimSpace(s.Email)
	lead.Phone = strings.TrimSpace(s.Phone)
	lead.City = strings.TrimSpace(s.City)
}

// VehicleStep 车辆信息
type VehicleStep struct {
	VehicleType  VehicleType     `json:"vehicle_type"`
	VehiclePrice decimal.Decimal `json:"vehicle_price"`
}

func (VehicleStep) Step() FormStep { return StepVehicle }

func (s VehicleStep) Validate() error {
	switch s.VehicleType {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeCaravan, VehicleTypeOther:
	default:
		return apperr.Validation("invalid vehicle type")
	}
	if s.VehiclePrice.IsNegative() || s.VehiclePrice.IsZero() {
		return apperr.Validation("vehicle price must be positive")
	}
	return nil
}

func (s VehicleStep) Apply(lead *Lead) {
	lead.VehicleType = s.VehicleType
	lead.VehiclePrice = s.VehiclePrice
}

// FinanceStep 财务信息
type FinanceStep struct {
	LoanAmount    decimal.Decimal `json:"loan_amount"`
	Employment    string          `json:"employment"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
}

func (FinanceStep) Step() FormStep { return StepFinances }

func (s FinanceStep) Validate() error {
	if s.LoanAmount.IsNegative() || s.LoanAmount.IsZero() {
		return apperr.Validation("loan amount must be positive")
	}
	if s.MonthlyIncome.IsNegative() {
		return apperr.Validation("monthly income must not be negative")
	}
	return nil
}

func (s FinanceStep) Apply(lead *Lead) {
	lead.LoanAmount = s.LoanAmount
	lead.Employment = strings.TrimSpace(s.Employment)
	lead.MonthlyIncome = s.MonthlyIncome
}

// ConsentStep 数据转交同意
type ConsentStep struct {
	Consent bool `json:"consent"`
}

func (ConsentStep) Step() FormStep { return StepConsent }

func (s ConsentStep) Validate() error {
	if !s.Consent {
		return apperr.Validation("consent is required before submission")
	}
	return nil
}

func (s ConsentStep) Apply(lead *Lead) {
	lead.Consent = s.Consent
}

// stepIndex 步骤在顺序中的下标，未知步骤返回 -1
func stepIndex(step FormStep) int {
	for i, s := range StepOrder {
		if s == step {
			return i
		}
	}
	return -1
}

// CanAdvanceTo 草稿能否推进到指定步骤：只允许重做已完成步骤或推进到下一步
func (l *Lead) CanAdvanceTo(step FormStep) bool {
	target := stepIndex(step)
	if target < 0 {
		return false
	}
	if l.DraftStep == "" {
		return target == 0
	}
	return target <= stepIndex(l.DraftStep)+1
}

// ReadyToSubmit 草稿是否已完成全部步骤
func (l *Lead) ReadyToSubmit() bool {
	return l.DraftStep == StepOrder[len(StepOrder)-1]
}
