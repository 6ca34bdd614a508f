package httpapi

import "invwe-data/internal/service"

// Result 前端统一响应结构
// - code: 2000 成功，-1 失败
// - type: 'success' | 'error' | 'warning'
// - message: string
// - result: any
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// FailRedirect 失败并告知前端跳转页
func FailRedirect(message string, target service.RedirectTarget, url string) Result[any] {
	return Result[any]{
		Code:    ResultError,
		Type:    "error",
		Message: message,
		Result:  map[string]any{"redirect": target, "redirect_url": url},
	}
}
