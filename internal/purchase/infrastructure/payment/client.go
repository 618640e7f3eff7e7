// Package payment 托管支付服务商的 HTTP 客户端
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wyfcoding/leadmarket/internal/purchase/application"
	"github.com/wyfcoding/leadmarket/pkg/config"
	"github.com/wyfcoding/leadmarket/pkg/logger"
)

const providerName = "hostedpay"

// Client 支付服务商客户端
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	liveMode      bool
	httpClient    *http.Client
}

// NewClient 创建支付客户端
func NewClient(cfg config.PaymentConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		webhookSecret: cfg.WebhookSecret,
		liveMode:      cfg.LiveMode,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Name 服务商标识，用于回调去重
func (c *Client) Name() string { return providerName }

// sessionRequest 服务商会话创建请求体
type sessionRequest struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
	LiveMode    bool   `json:"live_mode"`
}

// sessionResponse 服务商会话创建响应体
type sessionResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
}

// CreateSession 在服务商侧创建托管支付会话
func (c *Client) CreateSession(ctx context.Context, req application.ProviderSessionRequest) (*application.ProviderSession, error) {
	body, err := json.Marshal(sessionRequest{
		Reference:   req.Reference,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Description: req.Description,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		LiveMode:    c.liveMode,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error(ctx, "Payment provider rejected session request",
			"status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var parsed sessionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return &application.ProviderSession{
		ProviderRef: parsed.ID,
		RedirectURL: parsed.RedirectURL,
	}, nil
}

// sessionStatusResponse 服务商会话查询响应体
type sessionStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SessionPaid 向服务商查询托管会话是否已支付
func (c *Client) SessionPaid(ctx context.Context, providerRef string) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/sessions/"+providerRef, nil)
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("payment provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error(ctx, "Payment provider rejected session lookup",
			"status", resp.StatusCode, "body", string(respBody))
		return false, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var parsed sessionStatusResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return false, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return parsed.Status == "paid", nil
}

// VerifySignature 校验回调体的 HMAC-SHA256 签名
func (c *Client) VerifySignature(payload []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}
