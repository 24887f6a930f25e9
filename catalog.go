package backoffice

import (
	"context"
	"strings"

	"github.com/havelihousing/backoffice/employee"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/property"
	"github.com/havelihousing/backoffice/query"
	"github.com/havelihousing/backoffice/types"
)

// ──────────────────────────────────────────────────
// Properties
// ──────────────────────────────────────────────────

// CreateProperty adds a property. The RERA number must be unused.
func (e *Engine) CreateProperty(ctx context.Context, p *property.Property) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return Required("name")
	case strings.TrimSpace(p.RERANumber) == "":
		return Required("rera_number")
	case p.Rate.IsNegative():
		return ValidationError{Field: "rate", Message: "rate must not be negative"}
	case p.TotalPlots < 0:
		return ValidationError{Field: "total_plots", Message: "total_plots must not be negative"}
	}
	if err := checkAmount("rate", p.Rate); err != nil {
		return err
	}

	if p.ID.IsNil() {
		p.ID = id.NewPropertyID()
	}
	p.Entity = types.NewEntity()

	if err := e.store.CreateProperty(ctx, p); err != nil {
		return err
	}

	e.plugins.EmitPropertyCreated(ctx, p)
	return nil
}

// GetProperty returns a property by ID.
func (e *Engine) GetProperty(ctx context.Context, propertyID id.PropertyID) (*property.Property, error) {
	return e.store.GetProperty(ctx, propertyID)
}

// ListProperties returns a page of properties in creation order.
func (e *Engine) ListProperties(ctx context.Context, opts property.ListOpts) (*query.Page[*property.Property], error) {
	opts.Params = opts.Params.Normalize()

	items, total, err := e.store.ListProperties(ctx, opts)
	if err != nil {
		return nil, err
	}
	return query.NewPage(items, opts.Params, total), nil
}

// UpdateProperty applies a partial update and reports whether anything
// changed. An unchanged property is not written.
func (e *Engine) UpdateProperty(ctx context.Context, propertyID id.PropertyID, u property.Update) (*property.Property, bool, error) {
	if u.Rate != nil {
		if u.Rate.IsNegative() {
			return nil, false, ValidationError{Field: "rate", Message: "rate must not be negative"}
		}
		if err := checkAmount("rate", *u.Rate); err != nil {
			return nil, false, err
		}
	}

	p, err := e.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, false, err
	}

	if !u.Apply(p) {
		return p, false, nil
	}
	if err := e.store.UpdateProperty(ctx, p); err != nil {
		return nil, false, err
	}

	e.plugins.EmitPropertyUpdated(ctx, p)
	return p, true, nil
}

// DeleteProperty removes a property. Its bookings are left in place.
func (e *Engine) DeleteProperty(ctx context.Context, propertyID id.PropertyID) error {
	if err := e.store.DeleteProperty(ctx, propertyID); err != nil {
		return err
	}

	e.plugins.EmitPropertyDeleted(ctx, propertyID)
	e.logger.Info("property deleted", "property_id", propertyID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Employees
// ──────────────────────────────────────────────────

// CreateEmployee adds an employee. The RERA number must be unused.
func (e *Engine) CreateEmployee(ctx context.Context, emp *employee.Employee) error {
	for _, f := range []struct{ name, value string }{
		{"name", emp.Name},
		{"aadhar_number", emp.NationalID},
		{"account_number", emp.AccountNumber},
		{"rera_number", emp.RERANumber},
		{"superior_name", emp.SuperiorName},
	} {
		if strings.TrimSpace(f.value) == "" {
			return Required(f.name)
		}
	}
	if emp.TotalSales < 0 {
		return ValidationError{Field: "total_sales", Message: "total_sales must not be negative"}
	}

	if emp.ID.IsNil() {
		emp.ID = id.NewEmployeeID()
	}
	if emp.OngoingWork == nil {
		emp.OngoingWork = []string{}
	}
	emp.Entity = types.NewEntity()

	if err := e.store.CreateEmployee(ctx, emp); err != nil {
		return err
	}

	e.plugins.EmitEmployeeCreated(ctx, emp)
	return nil
}

// GetEmployee returns an employee by ID.
func (e *Engine) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*employee.Employee, error) {
	return e.store.GetEmployee(ctx, employeeID)
}

// ListEmployees returns a page of employees in creation order.
func (e *Engine) ListEmployees(ctx context.Context, opts employee.ListOpts) (*query.Page[*employee.Employee], error) {
	opts.Params = opts.Params.Normalize()

	items, total, err := e.store.ListEmployees(ctx, opts)
	if err != nil {
		return nil, err
	}
	return query.NewPage(items, opts.Params, total), nil
}

// UpdateEmployee applies a partial update and reports whether anything
// changed.
func (e *Engine) UpdateEmployee(ctx context.Context, employeeID id.EmployeeID, u employee.Update) (*employee.Employee, bool, error) {
	emp, err := e.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, false, err
	}

	if !u.Apply(emp) {
		return emp, false, nil
	}
	if err := e.store.UpdateEmployee(ctx, emp); err != nil {
		return nil, false, err
	}

	e.plugins.EmitEmployeeUpdated(ctx, emp)
	return emp, true, nil
}

// EmployeePerformance summarizes an employee's sales.
func (e *Engine) EmployeePerformance(ctx context.Context, employeeID id.EmployeeID) (*employee.Performance, error) {
	emp, err := e.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	return &employee.Performance{
		TotalSales:      emp.TotalSales,
		OngoingProjects: len(emp.OngoingWork),
		MonthlyTarget:   e.monthlyTarget,
		MonthlyAchieved: emp.TotalSales,
	}, nil
}
