// Package response 统一的 HTTP 响应信封。互动引擎的业务错误
// （apperr.Kind）在这里集中翻译为 HTTP 状态码和业务码，
// handler 只需要调用 Success 或 HandleError。
package response

import (
	"errors"
	"net/http"
	"strconv"

	"linka/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应，HTTP 状态码和业务码由调用方给定
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// HandleError 根据错误分类写出响应。限流和冷却类拒绝带上 Retry-After，
// 未分类错误按内部错误处理，不向客户端透出细节。
func HandleError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnknown {
		Error(c, http.StatusInternalServerError, ErrServerInternal, "internal server error")
		return
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && ae.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(ae.RetryAfter))
	}
	Error(c, apperr.HTTPStatus(kind), businessCode(kind), err.Error())
}

// businessCode 将错误分类映射为业务码
func businessCode(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return ErrTokenInvalid
	case apperr.KindBanned:
		return ErrUserBanned
	case apperr.KindNotFound:
		return ErrTargetNotFound
	case apperr.KindValidation:
		return ErrInvalidParam
	case apperr.KindRateLimited:
		return ErrRateLimited
	case apperr.KindCooldownActive:
		return ErrCooldownActive
	case apperr.KindAlreadyExists:
		return ErrAlreadyExists
	case apperr.KindMarkedSpam:
		return ErrMarkedSpam
	case apperr.KindFilteredByCommunity:
		return ErrFilteredComment
	case apperr.KindSelfFollow:
		return ErrSelfFollow
	case apperr.KindNoPermission:
		return ErrNoPermission
	default:
		return ErrServerInternal
	}
}
