// Package response 提供统一的 HTTP 响应封装
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/leadmarket/internal/apperr"
)

// Body 统一响应体
type Body struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Detail  string      `json:"detail,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: "OK", Data: data})
}

// Error 根据业务错误码映射 HTTP 状态
func Error(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	c.JSON(apperr.HTTPStatus(err), Body{
		Code:    string(code),
		Message: err.Error(),
	})
}

// ErrorWithStatus 指定 HTTP 状态的错误响应
func ErrorWithStatus(c *gin.Context, status int, message string, detail string) {
	c.JSON(status, Body{
		Code:    http.StatusText(status),
		Message: message,
		Detail:  detail,
	})
}
