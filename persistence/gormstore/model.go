package gormstore

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Tsukikage7/employee-service/employee"
)

// employeeModel 员工表.
type employeeModel struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;size:50;not null"`
	Address     string    `gorm:"column:address;size:100;not null"`
	Email       string    `gorm:"column:email;size:100;not null;uniqueIndex"`
	Phone       string    `gorm:"column:phone;size:12"`
	CreatedTime time.Time `gorm:"column:created_time;autoCreateTime"`
	UpdatedTime time.Time `gorm:"column:updated_time;autoUpdateTime"`
}

func (employeeModel) TableName() string { return "employees" }

func toModel(e *employee.Employee) employeeModel {
	id, _ := ParseID(e.ID())
	return employeeModel{
		ID:      id,
		Name:    e.Name().FullName(),
		Address: e.Address(),
		Email:   e.Email(),
		Phone:   e.Phone(),
	}
}

func (m *employeeModel) toDomain() (*employee.Employee, error) {
	name, err := employee.NewName(m.Name)
	if err != nil {
		return nil, fmt.Errorf("gormstore: 员工 %d 数据损坏: %w", m.ID, err)
	}
	return employee.Restore(FormatID(m.ID), name, m.Address, m.Email, m.Phone), nil
}

// FormatID 将自增主键转换为员工标识.
func FormatID(id uint64) employee.ID {
	return employee.ID(strconv.FormatUint(id, 10))
}

// ParseID 解析员工标识，只接受正整数.
func ParseID(id employee.ID) (uint64, bool) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
