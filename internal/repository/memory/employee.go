package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
)

// Directory holds employees and departments for the memory driver.
type Directory struct {
	mu          sync.RWMutex
	employees   map[string]employee.Employee
	departments map[string]employee.Department
}

func NewDirectory() *Directory {
	return &Directory{
		employees:   make(map[string]employee.Employee),
		departments: make(map[string]employee.Department),
	}
}

// Employees returns the employee view of the directory.
func (d *Directory) Employees() employee.EmployeeRepository {
	return employeeRepositoryImpl{d}
}

// Departments returns the department view of the directory.
func (d *Directory) Departments() employee.DepartmentRepository {
	return departmentRepositoryImpl{d}
}

// PutEmployee adds or replaces an employee.
func (d *Directory) PutEmployee(e employee.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e.DepartmentID != nil {
		if dep, ok := d.departments[*e.DepartmentID]; ok {
			name := dep.Name
			e.DepartmentName = &name
		}
	}
	d.employees[e.ID] = e
}

// PutDepartment adds or replaces a department.
func (d *Directory) PutDepartment(dep employee.Department) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments[dep.ID] = dep
}

// Seed loads departments before employees so department names resolve.
func (d *Directory) Seed(departments []employee.Department, employees []employee.Employee) {
	for _, dep := range departments {
		d.PutDepartment(dep)
	}
	for _, e := range employees {
		d.PutEmployee(e)
	}
}

type employeeRepositoryImpl struct {
	*Directory
}

func (r employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]employee.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		if filter.DepartmentID != nil && (e.DepartmentID == nil || *e.DepartmentID != *filter.DepartmentID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r employeeRepositoryImpl) Count(ctx context.Context, filter employee.EmployeeFilter) (int64, error) {
	list, err := r.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

type departmentRepositoryImpl struct {
	*Directory
}

func (r departmentRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dep, ok := r.departments[id]
	if !ok {
		return employee.Department{}, employee.ErrDepartmentNotFound
	}
	return dep, nil
}

func (r departmentRepositoryImpl) List(ctx context.Context) ([]employee.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]employee.Department, 0, len(r.departments))
	for _, dep := range r.departments {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
