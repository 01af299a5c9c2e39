// Package employee 定义员工聚合根及其值对象、校验规则、领域事件与仓储契约.
package employee

import (
	"strings"

	"github.com/Tsukikage7/employee-service/domain"
)

// ID 员工标识.
//
// 表示形式由存储后端决定: 关系库为十进制自增主键，文档库为 ObjectID 十六进制串.
// 空串表示尚未持久化.
type ID string

// String 实现 fmt.Stringer.
func (id ID) String() string { return string(id) }

// IsZero 报告是否为空标识.
func (id ID) IsZero() bool { return id == "" }

// Employee 员工聚合根.
type Employee struct {
	domain.Entity[ID]

	name    Name
	address string
	email   string
	phone   string
}

// New 创建员工，校验地址与邮箱非空.
//
// 邮箱格式等规则由 Validator 负责.
func New(name Name, address, email, phone string) (*Employee, error) {
	e := &Employee{}
	if err := e.apply(name, address, email, phone); err != nil {
		return nil, err
	}
	return e, nil
}

// Restore 由仓储从存储中重建员工，不做校验.
func Restore(id ID, name Name, address, email, phone string) *Employee {
	return &Employee{
		Entity:  domain.NewEntity(id),
		name:    name,
		address: address,
		email:   email,
		phone:   phone,
	}
}

// UpdateDetails 整体替换员工的全部字段.
//
// 校验失败时员工保持不变.
func (e *Employee) UpdateDetails(name Name, address, email, phone string) error {
	return e.apply(name, address, email, phone)
}

func (e *Employee) apply(name Name, address, email, phone string) error {
	verr := &ValidationError{}
	if name.IsZero() {
		verr.Add(FieldName, MsgNameRequired)
	}
	if strings.TrimSpace(address) == "" {
		verr.Add(FieldAddress, MsgAddressRequired)
	}
	if strings.TrimSpace(email) == "" {
		verr.Add(FieldEmail, MsgEmailRequired)
	}
	if verr.HasErrors() {
		return verr
	}

	e.name = name
	e.address = address
	e.email = email
	e.phone = phone
	return nil
}

// Name 返回员工姓名.
func (e *Employee) Name() Name { return e.name }

// Address 返回地址.
func (e *Employee) Address() string { return e.address }

// Email 返回邮箱.
func (e *Employee) Email() string { return e.email }

// Phone 返回电话，可能为空.
func (e *Employee) Phone() string { return e.phone }

// Clone 返回员工的独立副本.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// SameFields 报告两名员工除标识外的字段是否全部相同.
func (e *Employee) SameFields(o *Employee) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.name == o.name &&
		e.address == o.address &&
		e.email == o.email &&
		e.phone == o.phone
}
