package application

import "github.com/Tsukikage7/employee-service/employee"

// CreateEmployeeCommand 创建员工.
type CreateEmployeeCommand struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// UpdateEmployeeCommand 整体替换员工信息.
type UpdateEmployeeCommand struct {
	ID      employee.ID
	Name    string
	Address string
	Email   string
	Phone   string
}

// DeleteEmployeeCommand 删除员工.
type DeleteEmployeeCommand struct {
	ID employee.ID
}

// GetEmployeeByIDQuery 按标识查询员工.
type GetEmployeeByIDQuery struct {
	ID employee.ID
}

// GetEmployeeListQuery 查询全部员工.
type GetEmployeeListQuery struct{}

// UpdateResult 更新结果，Found 为 false 表示员工不存在.
type UpdateResult struct {
	ID    employee.ID
	Found bool
}
