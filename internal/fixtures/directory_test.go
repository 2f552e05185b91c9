package fixtures

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
)

func TestDefaultDirectory_ReferencesKnownDepartments(t *testing.T) {
	seed := DefaultDirectory()
	require.NotEmpty(t, seed.Employees)

	known := make(map[string]bool)
	for _, d := range seed.Departments {
		known[d.ID] = true
	}
	for _, e := range seed.Employees {
		require.NotNil(t, e.DepartmentID, e.ID)
		assert.True(t, known[*e.DepartmentID], e.ID)
	}
}

func TestLoadDirectory(t *testing.T) {
	seed, err := LoadDirectory(strings.NewReader(`{
		"departments": [{"id": "eng", "name": "Engineering"}],
		"employees": [
			{"id": "e1", "name": "Ada", "email": "ada@example.com", "department_id": "eng", "role": "employee"},
			{"id": "e2", "name": "Brian"}
		]
	}`))
	require.NoError(t, err)

	require.Len(t, seed.Departments, 1)
	require.Len(t, seed.Employees, 2)
	assert.Equal(t, "eng", *seed.Employees[0].DepartmentID)
	assert.Nil(t, seed.Employees[1].DepartmentID)
}

func TestLoadDirectory_Invalid(t *testing.T) {
	_, err := LoadDirectory(strings.NewReader(`{"employees": [{"id": "e1", "department_id": "sales"}]}`))
	assert.ErrorIs(t, err, employee.ErrDepartmentNotFound)

	_, err = LoadDirectory(strings.NewReader(`{"staff": []}`))
	assert.Error(t, err)

	_, err = LoadDirectory(strings.NewReader(`{"employees": [{"name": "Ada"}]}`))
	assert.Error(t, err)
}
