// Package apperr 定义业务错误分类与 HTTP 状态映射
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 业务错误码
type Code string

const (
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeNotFound               Code = "NOT_FOUND"
	CodeAlreadyLocked          Code = "ALREADY_LOCKED"
	CodeAlreadyPurchased       Code = "ALREADY_PURCHASED"
	CodeValidation             Code = "VALIDATION_ERROR"
	CodePaymentProvider        Code = "PAYMENT_PROVIDER_ERROR"
	CodeForbidden              Code = "FORBIDDEN"
	CodeUnknown                Code = "UNKNOWN"
)

// Error 带错误码的业务错误
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New 创建业务错误
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap 包装底层错误
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NotFound 资源不存在
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Message: resource + " not found"}
}

// Validation 参数校验失败
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// AlreadyLocked 锁定冲突
func AlreadyLocked() *Error {
	return &Error{Code: CodeAlreadyLocked, Message: "failed to lock - already locked"}
}

// AlreadyPurchased 已购买，按成功路径处理
func AlreadyPurchased() *Error {
	return &Error{Code: CodeAlreadyPurchased, Message: "lead already purchased"}
}

// CodeOf 提取错误码，未分类的错误归为 UNKNOWN
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// HTTPStatus 错误码到 HTTP 状态码的映射
// ALREADY_PURCHASED 按成功语义返回 200，由调用方构造响应体
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeAuthenticationRequired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyLocked:
		return http.StatusConflict
	case CodeAlreadyPurchased:
		return http.StatusOK
	case CodeValidation:
		return http.StatusBadRequest
	case CodePaymentProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
