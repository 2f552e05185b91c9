package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/presence-backend-go/internal/config"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
)

func strPtr(s string) *string { return &s }

func memoryConfig(t *testing.T, seedFile string) *config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("DB_DRIVER", config.DriverMemory)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("DB_SEED_FILE", seedFile)

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	return cfg
}

func TestNew_MemoryDriverLoadsSampleDirectory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(t, ""))
	require.NoError(t, err)
	defer a.Close()

	now := time.Date(2023, time.May, 10, 12, 0, 0, 0, time.UTC)

	manual, err := a.Attendance.UpsertManual(ctx, attendance.ManualAttendanceRequest{
		EmployeeID: "emp-002",
		Date:       "2023-05-09",
		Status:     strPtr("late"),
		CheckIn:    strPtr("09:20"),
	})
	require.NoError(t, err)
	assert.Equal(t, "LATE", manual.Status)

	summary, err := a.Reports.Summary(ctx, report.SummaryRequest{Now: now})
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalEmployees)
	assert.Equal(t, 1, summary.Totals.Late)
	assert.Len(t, summary.Departments, 3)

	dep, err := a.Reports.Department(ctx, report.DepartmentReportRequest{DepartmentID: "engineering", Now: now})
	require.NoError(t, err)
	assert.Equal(t, 2, dep.EmployeeCount)

	_, err = a.Reports.EmployeeStats(ctx, report.EmployeeStatsRequest{EmployeeID: "emp-002", Now: now})
	require.NoError(t, err)
}

func TestNew_MemoryDriverLoadsSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"departments": [{"id": "eng", "name": "Engineering"}],
		"employees": [{"id": "e1", "name": "Ada", "department_id": "eng", "role": "employee"}]
	}`), 0o600))

	ctx := context.Background()
	a, err := New(ctx, memoryConfig(t, path))
	require.NoError(t, err)
	defer a.Close()

	rep, err := a.Reports.Employee(ctx, report.EmployeeReportRequest{
		EmployeeID: "e1",
		Now:        time.Date(2023, time.May, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", rep.Employee.Name)
	require.NotNil(t, rep.Employee.DepartmentName)
	assert.Equal(t, "Engineering", *rep.Employee.DepartmentName)
}

func TestNew_MemoryDriverRejectsBadSeedFile(t *testing.T) {
	_, err := New(context.Background(), memoryConfig(t, filepath.Join(t.TempDir(), "missing.json")))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "directory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"employees": [{"id": "e1", "department_id": "sales"}]}`), 0o600))
	_, err = New(context.Background(), memoryConfig(t, path))
	assert.Error(t, err)
}
