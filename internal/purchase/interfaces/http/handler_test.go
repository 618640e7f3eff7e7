package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	leadapp "github.com/wyfcoding/leadmarket/internal/lead/application"
	"github.com/wyfcoding/leadmarket/internal/purchase/application"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
)

// ownedSelectionBuilder 每条 lead 都已在 dealer 名下
type ownedSelectionBuilder struct{}

func (ownedSelectionBuilder) BuildSelection(_ context.Context, _ uint, leadIDs []uint) (*leadapp.SelectionResult, error) {
	var bought []leadapp.SelectionLine
	for _, id := range leadIDs {
		bought = append(bought, leadapp.NewSelectionLine(id, decimal.Zero, true))
	}
	return leadapp.NewSelectionResult(bought, nil), nil
}

func TestCreateSession_AllPurchasedIsSuccessShaped(t *testing.T) {
	gin.SetMode(gin.TestMode)

	checkout := application.NewCheckoutService(
		nil, nil, nil, ownedSelectionBuilder{}, nil,
		nil, nil, nil, nil,
		"https://app.example.com/success", "https://app.example.com/cancel",
		slog.Default(),
	)
	h := NewPurchaseHandler(checkout, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/dealer/checkout/session",
		bytes.NewBufferString(`{"lead_ids":[1,2]}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.DealerIDKey, uint(7))

	h.CreateSession(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code string `json:"code"`
		Data struct {
			AlreadyPurchased bool `json:"already_purchased"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Code)
	assert.True(t, resp.Data.AlreadyPurchased)
}
