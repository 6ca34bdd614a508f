package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 校验通过后的 token 声明
type Claims struct {
	Subject  string
	Issuer   string
	Audience []string
	Email    string
}

// TokenValidator 校验 Bearer token 并返回声明
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// HS256Validator 共享密钥签名的 token（本地/开发环境）
type HS256Validator struct {
	secret   []byte
	audience string
}

// NewHS256Validator audience 为空时不校验 aud
func NewHS256Validator(secret, audience string) (*HS256Validator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), audience: audience}, nil
}

func (v *HS256Validator) Validate(_ context.Context, token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	tok, err := jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}

	claims := &Claims{}
	claims.Subject, _ = raw.GetSubject()
	claims.Issuer, _ = raw.GetIssuer()
	if aud, err := raw.GetAudience(); err == nil {
		claims.Audience = aud
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	return claims, nil
}

// OIDCValidator 通过 OIDC discovery 或 JWKS 校验 token
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCValidator jwksURL 非空时跳过 discovery
func NewOIDCValidator(ctx context.Context, issuerURL, jwksURL, audience string) (*OIDCValidator, error) {
	if issuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer is required")
	}
	cfg := &oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""}

	if jwksURL != "" {
		keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
		return &OIDCValidator{verifier: oidc.NewVerifier(issuerURL, keySet, cfg)}, nil
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}
	return &OIDCValidator{verifier: provider.Verifier(cfg)}, nil
}

func (v *OIDCValidator) Validate(ctx context.Context, token string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	var extra struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	return &Claims{
		Subject:  idToken.Subject,
		Issuer:   idToken.Issuer,
		Audience: idToken.Audience,
		Email:    extra.Email,
	}, nil
}
