package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	e.id, e.name, e.email, e.department_id, e.role, e.created_at, e.updated_at,
	d.name AS department_name`

func scanEmployee(row rowScanner) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.Name, &emp.Email, &emp.DepartmentID, &emp.Role, &emp.CreatedAt, &emp.UpdatedAt,
		&emp.DepartmentName,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE e.id = $1
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by id %s: %w", id, err)
	}
	return emp, nil
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT ` + employeeColumns + `
		FROM employees e
		LEFT JOIN departments d ON d.id = e.department_id
		WHERE ($1::text IS NULL OR e.department_id = $1)
		ORDER BY e.name, e.id
	`

	rows, err := q.Query(ctx, query, filter.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := make([]employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// Count implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Count(ctx context.Context, filter employee.EmployeeFilter) (int64, error) {
	q := GetQuerier(ctx, e.db)

	var count int64
	query := `SELECT COUNT(*) FROM employees e WHERE ($1::text IS NULL OR e.department_id = $1)`
	if err := q.QueryRow(ctx, query, filter.DepartmentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}

type departmentRepositoryImpl struct {
	db *database.DB
}

func NewDepartmentRepository(db *database.DB) employee.DepartmentRepository {
	return &departmentRepositoryImpl{db: db}
}

// GetByID implements employee.DepartmentRepository.
func (r *departmentRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Department, error) {
	q := GetQuerier(ctx, r.db)

	var dep employee.Department
	query := `SELECT id, name, created_at FROM departments WHERE id = $1`
	if err := q.QueryRow(ctx, query, id).Scan(&dep.ID, &dep.Name, &dep.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Department{}, employee.ErrDepartmentNotFound
		}
		return employee.Department{}, fmt.Errorf("failed to get department by id %s: %w", id, err)
	}
	return dep, nil
}

// List implements employee.DepartmentRepository.
func (r *departmentRepositoryImpl) List(ctx context.Context) ([]employee.Department, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT id, name, created_at FROM departments ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	departments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (employee.Department, error) {
		var dep employee.Department
		err := row.Scan(&dep.ID, &dep.Name, &dep.CreatedAt)
		return dep, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan departments: %w", err)
	}
	return departments, nil
}
