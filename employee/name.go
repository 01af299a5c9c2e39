package employee

import (
	"strings"
	"unicode/utf8"
)

// MaxNameLength 姓名的最大字符数.
const MaxNameLength = 50

// Name 员工姓名值对象，构造后不可变.
type Name struct {
	fullName string
}

// NewName 创建姓名.
//
// 姓名按原样保存，不能全为空白，包括首尾空白在内不超过 MaxNameLength 个字符.
func NewName(fullName string) (Name, error) {
	if strings.TrimSpace(fullName) == "" {
		return Name{}, NewValidationError(FieldName, MsgNameRequired)
	}
	if utf8.RuneCountInString(fullName) > MaxNameLength {
		return Name{}, NewValidationError(FieldName, MsgNameTooLong)
	}
	return Name{fullName: fullName}, nil
}

// MustNewName 创建姓名，失败时 panic，用于测试与固定数据.
func MustNewName(fullName string) Name {
	n, err := NewName(fullName)
	if err != nil {
		panic(err)
	}
	return n
}

// FullName 返回完整姓名.
func (n Name) FullName() string { return n.fullName }

// String 实现 fmt.Stringer.
func (n Name) String() string { return n.fullName }

// IsZero 报告是否为零值.
func (n Name) IsZero() bool { return n.fullName == "" }
