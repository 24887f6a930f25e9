package employee

import (
	"context"

	"github.com/havelihousing/backoffice/id"
)

type Store interface {
	CreateEmployee(ctx context.Context, e *Employee) error
	GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context, opts ListOpts) ([]*Employee, int64, error)
	UpdateEmployee(ctx context.Context, e *Employee) error
}
