package domain

// Principal 已登录用户身份（由外部身份提供方签发，只读）
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}
