package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/leadmarket/internal/apperr"
)

func TestStepValidation(t *testing.T) {
	t.Run("applicant", func(t *testing.T) {
		valid := ApplicantStep{FullName: "Jan Jansen", Email: "jan@example.com", City: "Utrecht"}
		require.NoError(t, valid.Validate())

		assert.Error(t, ApplicantStep{Email: "jan@example.com"}.Validate())
		assert.Error(t, ApplicantStep{FullName: "Jan", Email: "not-an-email"}.Validate())
	})

	t.Run("vehicle", func(t *testing.T) {
		valid := VehicleStep{VehicleType: VehicleTypeCar, VehiclePrice: decimal.RequireFromString("25000")}
		require.NoError(t, valid.Validate())

		assert.Error(t, VehicleStep{VehicleType: "spaceship", VehiclePrice: decimal.RequireFromString("1")}.Validate())
		assert.Error(t, VehicleStep{VehicleType: VehicleTypeCar}.Validate())
	})

	t.Run("finances", func(t *testing.T) {
		valid := FinanceStep{LoanAmount: decimal.RequireFromString("15000"), MonthlyIncome: decimal.RequireFromString("3200")}
		require.NoError(t, valid.Validate())

		assert.Error(t, FinanceStep{MonthlyIncome: decimal.RequireFromString("3200")}.Validate())
		assert.Error(t, FinanceStep{LoanAmount: decimal.RequireFromString("15000"), MonthlyIncome: decimal.RequireFromString("-1")}.Validate())
	})

	t.Run("consent", func(t *testing.T) {
		require.NoError(t, ConsentStep{Consent: true}.Validate())

		err := ConsentStep{}.Validate()
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})
}

func TestLead_CanAdvanceTo(t *testing.T) {
	t.Run("fresh draft starts at the first step", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusDraft}
		assert.True(t, lead.CanAdvanceTo(StepApplicant))
		assert.False(t, lead.CanAdvanceTo(StepVehicle))
		assert.False(t, lead.CanAdvanceTo(StepConsent))
	})

	t.Run("may redo completed steps or advance one", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusDraft, DraftStep: StepVehicle}
		assert.True(t, lead.CanAdvanceTo(StepApplicant))
		assert.True(t, lead.CanAdvanceTo(StepVehicle))
		assert.True(t, lead.CanAdvanceTo(StepFinances))
		assert.False(t, lead.CanAdvanceTo(StepConsent))
	})

	t.Run("unknown step is rejected", func(t *testing.T) {
		lead := &Lead{Status: LeadStatusDraft}
		assert.False(t, lead.CanAdvanceTo("payment"))
	})
}

func TestLead_ReadyToSubmit(t *testing.T) {
	assert.False(t, (&Lead{DraftStep: StepFinances}).ReadyToSubmit())
	assert.True(t, (&Lead{DraftStep: StepConsent}).ReadyToSubmit())
}

func TestStepApply(t *testing.T) {
	lead := &Lead{}

	ApplicantStep{FullName: "  Jan Jansen ", Email: "jan@example.com", Phone: "0612345678", City: "Utrecht"}.Apply(lead)
	VehicleStep{VehicleType: VehicleTypeCaravan, VehiclePrice: decimal.RequireFromString("18000")}.Apply(lead)
	FinanceStep{LoanAmount: decimal.RequireFromString("12000"), Employment: "employed", MonthlyIncome: decimal.RequireFromString("2900")}.Apply(lead)
	ConsentStep{Consent: true}.Apply(lead)

	assert.Equal(t, "Jan Jansen", lead.FullName)
	assert.Equal(t, VehicleTypeCaravan, lead.VehicleType)
	assert.True(t, lead.LoanAmount.Equal(decimal.RequireFromString("12000")))
	assert.True(t, lead.Consent)
}
