package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"invwe-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// IdPClient 身份服务 API 客户端
type IdPClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

type verifySessionRequest struct {
	Token string `json:"token"`
}

type verifySessionResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// NewIdPClient 创建身份服务客户端
func NewIdPClient(baseURL, apiKey string, logger *zap.Logger) *IdPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	// 只对 5xx 重试，4xx 代表会话无效
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})

	return &IdPClient{httpClient: client, logger: logger}
}

// VerifySession POST /v1/sessions/verify
func (c *IdPClient) VerifySession(ctx context.Context, token string) (*domain.Principal, error) {
	var out verifySessionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(verifySessionRequest{Token: token}).
		SetResult(&out).
		Post("/v1/sessions/verify")
	if err != nil {
		c.logger.Error("IdP call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call IdP: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusNotFound:
		return nil, ErrInvalidCredentials
	case resp.IsError():
		c.logger.Error("IdP returned error", zap.Int("status_code", resp.StatusCode()))
		return nil, fmt.Errorf("IdP error: status %d", resp.StatusCode())
	}

	if !out.Valid || out.UserID == "" {
		return nil, ErrInvalidCredentials
	}
	return &domain.Principal{UserID: out.UserID, Email: out.Email}, nil
}
