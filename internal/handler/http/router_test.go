package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
	reportService "github.com/cmlabs-hris/presence-backend-go/internal/service/report"
)

const handlerTestSecret = "test-secret-key-for-jwt"

var orgZone = time.FixedZone("UTC-4", -4*60*60)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	router http.Handler
	clock  *testClock
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := memory.NewDirectory()
	dept := "eng"
	dir.PutDepartment(employee.Department{ID: dept, Name: "Engineering"})
	dir.PutEmployee(employee.Employee{ID: "e1", Name: "Ada", DepartmentID: &dept, Role: string(user.RoleEmployee)})
	dir.PutEmployee(employee.Employee{ID: "m1", Name: "Mona", DepartmentID: &dept, Role: string(user.RoleManager)})
	dir.PutEmployee(employee.Employee{ID: "a1", Name: "Alan", DepartmentID: &dept, Role: string(user.RoleAdmin)})

	clock := &testClock{t: time.Date(2023, time.May, 1, 8, 0, 0, 0, orgZone)}

	repo := memory.NewAttendanceRepository(dir.Employees())
	attendanceSvc := attendanceService.NewAttendanceService(repo, dir.Employees(), nil, nil, attendanceService.Config{Location: orgZone})
	reportSvc := reportService.NewReportService(repo, dir.Employees(), dir.Departments(), nil, reportService.Config{Location: orgZone})

	jwtService := jwt.NewJWTService(handlerTestSecret, time.Hour)
	tokens := make(map[string]string)
	for id, role := range map[string]user.Role{"e1": user.RoleEmployee, "m1": user.RoleManager, "a1": user.RoleAdmin} {
		token, _, err := jwtService.GenerateAccessToken(user.Principal{EmployeeID: id, Role: role})
		require.NoError(t, err)
		tokens[id] = token
	}

	router := NewRouter(
		RouterOptions{Env: "test", AllowedOrigins: []string{"*"}, Location: orgZone, Now: clock.now},
		jwtService,
		NewAttendanceHandler(attendanceSvc, clock.now),
		NewReportHandler(reportSvc, clock.now),
	)

	return &testServer{t: t, router: router, clock: clock, tokens: tokens}
}

func (s *testServer) do(method, path, as string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestServerTime(t *testing.T) {
	s := newTestServer(t)
	s.clock.set(time.Date(2023, time.May, 2, 2, 30, 0, 0, time.UTC)) // 22:30 on May 1st in the org zone

	rec := s.do(http.MethodGet, "/api/v1/server-time", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out ServerTimeResponse
	decode(t, rec, &out)
	assert.Equal(t, "2023-05-01", out.Date)
	assert.Equal(t, "2023-05-01T22:30:00-04:00", out.ServerTime)
}

func TestAttendance_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/attendance/check-in", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendance_CheckInAndOutFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/attendance/check-out", "e1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/attendance/check-in", "e1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var checkedIn struct {
		ID      string `json:"id"`
		Date    string `json:"date"`
		Status  string `json:"status"`
		CheckIn string `json:"check_in"`
	}
	decode(t, rec, &checkedIn)
	assert.Equal(t, "2023-05-01", checkedIn.Date)
	assert.Equal(t, "PRESENT", checkedIn.Status)
	assert.Equal(t, "2023-05-01T08:00:00-04:00", checkedIn.CheckIn)

	// a second check-in keeps the first instant
	s.clock.set(time.Date(2023, time.May, 1, 9, 0, 0, 0, orgZone))
	rec = s.do(http.MethodPost, "/api/v1/attendance/check-in", "e1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var again struct {
		ID      string `json:"id"`
		CheckIn string `json:"check_in"`
	}
	decode(t, rec, &again)
	assert.Equal(t, checkedIn.ID, again.ID)
	assert.Equal(t, checkedIn.CheckIn, again.CheckIn)

	s.clock.set(time.Date(2023, time.May, 1, 17, 30, 0, 0, orgZone))
	rec = s.do(http.MethodPost, "/api/v1/attendance/check-out", "e1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/attendance/today", "e1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var today struct {
		HasCheckedIn  bool `json:"has_checked_in"`
		HasCheckedOut bool `json:"has_checked_out"`
		CanCheckOut   bool `json:"can_check_out"`
		Attendance    struct {
			WorkingHours float64 `json:"working_hours"`
		} `json:"attendance"`
	}
	decode(t, rec, &today)
	assert.True(t, today.HasCheckedIn)
	assert.True(t, today.HasCheckedOut)
	assert.False(t, today.CanCheckOut)
	assert.Equal(t, 9.5, today.Attendance.WorkingHours)

	rec = s.do(http.MethodGet, "/api/v1/attendance/my", "e1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		TotalCount int64 `json:"total_count"`
	}
	decode(t, rec, &mine)
	assert.Equal(t, int64(1), mine.TotalCount)

	rec = s.do(http.MethodGet, "/api/v1/attendance/"+checkedIn.ID, "e1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAttendance_PermissionChecks(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/attendance/check-in", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var managerRecord struct {
		ID string `json:"id"`
	}
	decode(t, rec, &managerRecord)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/attendance", "e1", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/attendance/"+managerRecord.ID, "e1", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/attendance", "m1", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/v1/attendance/reset", "m1", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/reports/summary", "e1", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/reports/employee-stats?employee_id=m1", "e1", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/reports/employee-stats", "e1", nil).Code)
}

func TestAttendance_ManualCorrections(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/attendance/manual", "a1", map[string]any{
		"employee_id": "e1",
		"date":        "2023-04-28",
		"status":      "sick",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec, nil)
	assert.Contains(t, env.Error.Details, "status")

	rec = s.do(http.MethodPost, "/api/v1/attendance/manual", "a1", map[string]any{
		"employee_id": "e1",
		"date":        "2023-04-28",
		"status":      "late",
		"check_in":    "09:15",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var manual struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		CheckIn string `json:"check_in"`
	}
	decode(t, rec, &manual)
	assert.Equal(t, "LATE", manual.Status)
	assert.Equal(t, "2023-04-28T09:15:00-04:00", manual.CheckIn)

	rec = s.do(http.MethodPut, "/api/v1/attendance/"+manual.ID, "a1", map[string]any{"check_out": "08:00"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/attendance/0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", "a1", map[string]any{"status": "ABSENT"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPut, "/api/v1/attendance/"+manual.ID, "a1", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/v1/attendance/employees/e1/days/2023-04-28", "a1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodDelete, "/api/v1/attendance/employees/e1/days/2023-04-28", "a1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/attendance/"+manual.ID, "a1", nil).Code)
}

func TestAttendance_ResetAll(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"e1", "m1", "a1"} {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/attendance/check-in", id, nil).Code)
	}

	rec := s.do(http.MethodPost, "/api/v1/attendance/reset", "a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, rec, &out)
	assert.Equal(t, int64(3), out.Deleted)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/attendance/check-in", "e1", nil).Code)

	rec := s.do(http.MethodGet, "/api/v1/reports/summary", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary struct {
		TotalEmployees int `json:"total_employees"`
		AttendanceRate int `json:"attendance_rate"`
	}
	decode(t, rec, &summary)
	assert.Equal(t, 3, summary.TotalEmployees)
	assert.Equal(t, 100, summary.AttendanceRate)

	rec = s.do(http.MethodGet, "/api/v1/reports/summary?start_date=2023-05-31&end_date=2023-05-01", "m1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/reports/overview?period=yearly", "m1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/reports/department?department_id=sales", "m1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/reports/daily", "m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var daily struct {
		Present int `json:"present"`
	}
	decode(t, rec, &daily)
	assert.Equal(t, 1, daily.Present)
}

func TestReports_Export(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/reports/summary/export", "a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))
	assert.NotZero(t, rec.Body.Len())

	rec = s.do(http.MethodGet, "/api/v1/reports/employee/export?employee_id=ghost", "a1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
