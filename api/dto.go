package api

import (
	"net/http"

	"github.com/Tsukikage7/employee-service/employee"
)

// EmployeeRequest 创建与更新员工的请求体.
type EmployeeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// EmployeeDTO 员工响应体.
type EmployeeDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// AffectedDTO 更新与删除的响应体.
type AffectedDTO struct {
	ID       string `json:"id"`
	Affected int64  `json:"affected"`
}

// createdDTO 以 201 返回新建的员工.
type createdDTO struct {
	EmployeeDTO
}

func (createdDTO) StatusCode() int { return http.StatusCreated }

func toDTO(e *employee.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:      e.ID().String(),
		Name:    e.Name().FullName(),
		Address: e.Address(),
		Email:   e.Email(),
		Phone:   e.Phone(),
	}
}

func toDTOs(list []*employee.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, 0, len(list))
	for _, e := range list {
		out = append(out, toDTO(e))
	}
	return out
}
