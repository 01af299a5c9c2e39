package employee

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator 员工校验规则集.
//
// 返回 nil 表示通过，否则返回 *ValidationError.
type Validator interface {
	Validate(e *Employee) error
}

// ValidatorFunc 函数形式的校验器.
type ValidatorFunc func(e *Employee) error

// Validate 实现 Validator.
func (f ValidatorFunc) Validate(e *Employee) error { return f(e) }

// rules 校验规则，长度上限与存储列宽一致.
type rules struct {
	Name    string `validate:"required,max=50"`
	Address string `validate:"required,max=100"`
	Email   string `validate:"required,email,max=100"`
	Phone   string `validate:"omitempty,max=12"`
}

// messages 字段与规则标签到消息的映射.
var messages = map[string]map[string]string{
	FieldName: {
		"required": MsgNameRequired,
		"max":      MsgNameTooLong,
	},
	FieldAddress: {
		"required": MsgAddressRequired,
		"max":      MsgAddressTooLong,
	},
	FieldEmail: {
		"required": MsgEmailRequired,
		"email":    MsgEmailInvalid,
		"max":      MsgEmailTooLong,
	},
	FieldPhone: {
		"max": MsgPhoneTooLong,
	},
}

// RuleValidator 基于结构体标签的默认校验器.
type RuleValidator struct {
	once     sync.Once
	validate *validator.Validate
}

// NewValidator 创建默认校验器.
func NewValidator() *RuleValidator {
	return &RuleValidator{}
}

// Validate 实现 Validator.
func (v *RuleValidator) Validate(e *Employee) error {
	if e == nil {
		return NewValidationError(FieldName, MsgNameRequired)
	}

	v.once.Do(func() {
		v.validate = validator.New()
	})

	err := v.validate.Struct(rules{
		Name:    e.Name().FullName(),
		Address: e.Address(),
		Email:   e.Email(),
		Phone:   e.Phone(),
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		verr.Add(fe.Field(), msg)
	}
	return verr
}

var _ Validator = (*RuleValidator)(nil)
