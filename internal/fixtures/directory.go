package fixtures

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
)

func strPtr(s string) *string { return &s }

// DirectorySeed is the employee directory loaded by the memory driver.
type DirectorySeed struct {
	Departments []employee.Department
	Employees   []employee.Employee
}

// DefaultDirectory returns a small sample organization
func DefaultDirectory() DirectorySeed {
	return DirectorySeed{
		Departments: []employee.Department{
			{ID: "engineering", Name: "Engineering"},
			{ID: "operations", Name: "Operations"},
			{ID: "people", Name: "People"},
		},
		Employees: []employee.Employee{
			{ID: "emp-001", Name: "Alya Pratama", Email: "alya@example.com", DepartmentID: strPtr("engineering"), Role: "admin"},
			{ID: "emp-002", Name: "Bima Santoso", Email: "bima@example.com", DepartmentID: strPtr("engineering"), Role: "employee"},
			{ID: "emp-003", Name: "Citra Lestari", Email: "citra@example.com", DepartmentID: strPtr("operations"), Role: "manager"},
			{ID: "emp-004", Name: "Dimas Nugroho", Email: "dimas@example.com", DepartmentID: strPtr("operations"), Role: "employee"},
			{ID: "emp-005", Name: "Eka Putri", Email: "eka@example.com", DepartmentID: strPtr("people"), Role: "employee"},
		},
	}
}

type directoryFile struct {
	Departments []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"departments"`
	Employees []struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		Email        string  `json:"email"`
		DepartmentID *string `json:"department_id"`
		Role         string  `json:"role"`
	} `json:"employees"`
}

// LoadDirectory decodes a JSON directory file:
//
//	{"departments": [{"id": "eng", "name": "Engineering"}],
//	 "employees": [{"id": "e1", "name": "Ada", "email": "ada@example.com", "department_id": "eng", "role": "employee"}]}
func LoadDirectory(r io.Reader) (DirectorySeed, error) {
	var file directoryFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return DirectorySeed{}, fmt.Errorf("failed to decode directory: %w", err)
	}

	var seed DirectorySeed
	known := make(map[string]bool, len(file.Departments))
	for _, d := range file.Departments {
		if d.ID == "" {
			return DirectorySeed{}, fmt.Errorf("department without id")
		}
		known[d.ID] = true
		seed.Departments = append(seed.Departments, employee.Department{ID: d.ID, Name: d.Name})
	}

	for _, e := range file.Employees {
		if e.ID == "" {
			return DirectorySeed{}, fmt.Errorf("employee without id")
		}
		if e.DepartmentID != nil && !known[*e.DepartmentID] {
			return DirectorySeed{}, fmt.Errorf("employee %s: %w: %s", e.ID, employee.ErrDepartmentNotFound, *e.DepartmentID)
		}
		seed.Employees = append(seed.Employees, employee.Employee{
			ID:           e.ID,
			Name:         e.Name,
			Email:        e.Email,
			DepartmentID: e.DepartmentID,
			Role:         e.Role,
		})
	}
	return seed, nil
}
