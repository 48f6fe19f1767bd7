// Package apperr 定义互动引擎的业务错误分类。
// 所有错误都是调用方可恢复的：携带机器可判定的 Kind 和面向用户的消息。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，值保持稳定
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindBanned
	KindNotFound
	KindValidation
	KindRateLimited
	KindCooldownActive
	KindAlreadyExists
	KindMarkedSpam
	KindFilteredByCommunity
	KindSelfFollow
	KindNoPermission
)

// Error 业务错误：Kind + 用户可见消息 + 可选的剩余等待秒数
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter int // 秒，仅 RateLimited/CooldownActive 使用
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is 支持 errors.Is 按 Kind 匹配
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New 创建业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf 创建格式化业务错误
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// RateLimited 创建带剩余等待时间的限流错误
func RateLimited(message string, retryAfter int) *Error {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Error{Kind: KindRateLimited, Message: message, RetryAfter: retryAfter}
}

// CooldownActive 创建带剩余等待时间的冷却错误
func CooldownActive(message string, retryAfter int) *Error {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return &Error{Kind: KindCooldownActive, Message: message, RetryAfter: retryAfter}
}

// KindOf 返回错误的分类，非业务错误返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus 将 Kind 映射为 HTTP 状态码
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindBanned, KindNoPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindMarkedSpam, KindFilteredByCommunity, KindSelfFollow:
		return http.StatusBadRequest
	case KindRateLimited, KindCooldownActive:
		return http.StatusTooManyRequests
	case KindAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
