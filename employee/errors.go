package employee

import (
	"errors"
	"strings"
)

// 预定义错误.
var (
	// ErrDuplicateEmail 邮箱已被其他员工使用.
	ErrDuplicateEmail = errors.New("employee: 邮箱已存在")
)

// 字段名.
const (
	FieldName    = "Name"
	FieldAddress = "Address"
	FieldEmail   = "Email"
	FieldPhone   = "Phone"
)

// 校验消息.
const (
	MsgNameRequired    = "Name is required."
	MsgNameTooLong     = "Name must not exceed 50 characters."
	MsgAddressRequired = "Address is required."
	MsgAddressTooLong  = "Address must not exceed 100 characters."
	MsgEmailRequired   = "Email is required."
	MsgEmailInvalid    = "A valid email is required."
	MsgEmailTooLong    = "Email must not exceed 100 characters."
	MsgPhoneTooLong    = "Phone must not exceed 12 characters."
)

// FieldError 单个字段的校验失败.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 输入校验失败，按发现顺序记录字段错误.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError 创建只含一个字段错误的校验错误.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message}}}
}

// Add 追加字段错误.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// HasErrors 报告是否存在字段错误.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

// Merge 合并另一个校验错误的字段错误.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	e.Errors = append(e.Errors, other.Errors...)
}

// Error 实现 error 接口.
func (e *ValidationError) Error() string {
	if !e.HasErrors() {
		return "employee: 校验失败"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "employee: 校验失败: " + strings.Join(msgs, "; ")
}

// IsValidationError 报告 err 链中是否包含校验错误.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
