package response

import (
	"context"
	"errors"
	"fmt"
)

// BusinessError 携带错误码的错误.
type BusinessError struct {
	Code    Code
	Message string // 为空时使用 Code.Message
	Cause   error
	Details any // 随响应 data 字段返回，如字段校验错误
}

// NewError 创建业务错误.
func NewError(code Code) *BusinessError {
	return &BusinessError{Code: code}
}

// NewErrorWithMessage 创建带自定义消息的业务错误.
func NewErrorWithMessage(code Code, message string) *BusinessError {
	return &BusinessError{Code: code, Message: message}
}

// Wrap 用错误码包装底层错误.
func Wrap(code Code, err error) *BusinessError {
	return &BusinessError{Code: code, Cause: err}
}

// WrapWithMessage 用错误码和自定义消息包装底层错误.
func WrapWithMessage(code Code, message string, err error) *BusinessError {
	return &BusinessError{Code: code, Message: message, Cause: err}
}

// WithDetails 设置附加数据.
func (e *BusinessError) WithDetails(details any) *BusinessError {
	e.Details = details
	return e
}

func (e *BusinessError) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message
}

// Error 包含底层错误，只用于日志.
func (e *BusinessError) Error() string {
	if e.Cause == nil {
		return e.message()
	}
	return fmt.Sprintf("%s: %v", e.message(), e.Cause)
}

func (e *BusinessError) Unwrap() error {
	return e.Cause
}

// IsBusinessError 错误链中是否有业务错误.
func IsBusinessError(err error) bool {
	var bizErr *BusinessError
	return errors.As(err, &bizErr)
}

// ExtractCode 从错误链中解析错误码.
//
// 未携带错误码的 context 错误映射为取消或超时，其余为 CodeInternal.
func ExtractCode(err error) Code {
	code, _, _ := resolve(err)
	return code
}

// resolve 返回错误码、对外消息和附加数据，服务端故障只给出错误码的默认消息.
func resolve(err error) (Code, string, any) {
	if err == nil {
		return CodeSuccess, CodeSuccess.Message, nil
	}

	var bizErr *BusinessError
	if errors.As(err, &bizErr) {
		if bizErr.Code.Internal() {
			return bizErr.Code, bizErr.Code.Message, nil
		}
		return bizErr.Code, bizErr.message(), bizErr.Details
	}

	var code Code
	switch {
	case errors.As(err, &code):
	case errors.Is(err, context.Canceled):
		code = CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = CodeTimeout
	default:
		code = CodeInternal
	}
	return code, code.Message, nil
}
