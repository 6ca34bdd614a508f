package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invwe-data/internal/domain"
	"invwe-data/internal/store"

	"go.uber.org/zap"
)

// SessionCookie 前端登录后写入的会话 cookie
const SessionCookie = "__session"

// ErrInvalidCredentials 凭证存在但无效；调用方按未登录处理
var ErrInvalidCredentials = errors.New("invalid credentials")

// PrincipalResolver 从请求中解析当前登录用户
// 没有凭证时返回 (nil, nil)
type PrincipalResolver interface {
	Resolve(ctx context.Context, r *http.Request) (*domain.Principal, error)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// TokenResolver Bearer token + TokenValidator（jwt / oidc 模式）
type TokenResolver struct {
	validator TokenValidator
	logger    *zap.Logger
}

func NewTokenResolver(v TokenValidator, logger *zap.Logger) *TokenResolver {
	return &TokenResolver{validator: v, logger: logger}
}

func (t *TokenResolver) Resolve(ctx context.Context, r *http.Request) (*domain.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, nil
	}
	claims, err := t.validator.Validate(ctx, token)
	if err != nil {
		t.logger.Debug("token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidCredentials)
	}
	return &domain.Principal{UserID: claims.Subject, Email: claims.Email}, nil
}

// HeaderResolver 信任网关注入的 X-User-Id / X-User-Email（仅开发环境）
type HeaderResolver struct{}

func (HeaderResolver) Resolve(_ context.Context, r *http.Request) (*domain.Principal, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return nil, nil
	}
	return &domain.Principal{UserID: userID, Email: strings.TrimSpace(r.Header.Get("X-User-Email"))}, nil
}

// SessionVerifier 向身份服务校验会话 token
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*domain.Principal, error)
}

// SessionResolver 会话模式：先查 KV 缓存（session:<token>），未命中再问身份服务
type SessionResolver struct {
	kv       store.KV
	verifier SessionVerifier
	ttl      time.Duration
	logger   *zap.Logger
}

func NewSessionResolver(kv store.KV, verifier SessionVerifier, ttl time.Duration, logger *zap.Logger) *SessionResolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SessionResolver{kv: kv, verifier: verifier, ttl: ttl, logger: logger}
}

func sessionKey(token string) string { return "session:" + token }

func (s *SessionResolver) Resolve(ctx context.Context, r *http.Request) (*domain.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = strings.TrimSpace(c.Value)
		}
	}
	if token == "" {
		return nil, nil
	}

	key := sessionKey(token)
	cached, err := s.kv.Get(ctx, key)
	switch {
	case err == nil:
		var p domain.Principal
		if jerr := json.Unmarshal([]byte(cached), &p); jerr == nil && p.UserID != "" {
			return &p, nil
		}
		// 缓存内容损坏，重新校验
		_ = s.kv.Delete(ctx, key)
	case !errors.Is(err, store.ErrMiss):
		// 缓存不可用时直接问身份服务
		s.logger.Warn("session cache unavailable", zap.Error(err))
	}

	p, err := s.verifier.VerifySession(ctx, token)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(p); err == nil {
		if err := s.kv.Set(ctx, key, string(b), s.ttl); err != nil {
			s.logger.Warn("failed to cache session", zap.Error(err))
		}
	}
	return p, nil
}
