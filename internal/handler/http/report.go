package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
)

type ReportHandler interface {
	// Trailing week or four weeks of daily/weekly buckets
	Overview(w http.ResponseWriter, r *http.Request)

	// Organization totals for a date range
	Summary(w http.ResponseWriter, r *http.Request)
	ExportSummary(w http.ResponseWriter, r *http.Request)

	// One employee's breakdown for a date range
	Employee(w http.ResponseWriter, r *http.Request)
	ExportEmployee(w http.ResponseWriter, r *http.Request)

	Department(w http.ResponseWriter, r *http.Request)
	EmployeeStats(w http.ResponseWriter, r *http.Request)
	Daily(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
	now           func() time.Time
}

func NewReportHandler(reportService report.ReportService, now func() time.Time) ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &reportHandlerImpl{
		reportService: reportService,
		now:           now,
	}
}

// Overview handles GET /reports/overview?period=weekly|monthly
func (h *reportHandlerImpl) Overview(w http.ResponseWriter, r *http.Request) {
	req := report.OverviewRequest{
		Period: report.Period(r.URL.Query().Get("period")),
		Now:    h.now(),
	}

	result, err := h.reportService.Overview(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *reportHandlerImpl) summaryRequest(r *http.Request) report.SummaryRequest {
	return report.SummaryRequest{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Now:       h.now(),
	}
}

// Summary handles GET /reports/summary
func (h *reportHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.Summary(r.Context(), h.summaryRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportSummary handles GET /reports/summary/export
func (h *reportHandlerImpl) ExportSummary(w http.ResponseWriter, r *http.Request) {
	req := h.summaryRequest(r)
	filename := fmt.Sprintf("attendance-summary-%s.xlsx", req.Now.Format("2006-01-02"))

	err := response.Attachment(w, export.ContentTypeXLSX, filename, func(out io.Writer) error {
		return h.reportService.ExportSummary(r.Context(), req, out)
	})
	if err != nil {
		response.HandleError(w, err)
	}
}

func (h *reportHandlerImpl) employeeRequest(r *http.Request) report.EmployeeReportRequest {
	return report.EmployeeReportRequest{
		EmployeeID: r.URL.Query().Get("employee_id"),
		StartDate:  r.URL.Query().Get("start_date"),
		EndDate:    r.URL.Query().Get("end_date"),
		Now:        h.now(),
	}
}

// Employee handles GET /reports/employee?employee_id=
func (h *reportHandlerImpl) Employee(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.Employee(r.Context(), h.employeeRequest(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportEmployee handles GET /reports/employee/export?employee_id=
func (h *reportHandlerImpl) ExportEmployee(w http.ResponseWriter, r *http.Request) {
	req := h.employeeRequest(r)
	filename := fmt.Sprintf("attendance-%s-%s.xlsx", req.EmployeeID, req.Now.Format("2006-01-02"))

	err := response.Attachment(w, export.ContentTypeXLSX, filename, func(out io.Writer) error {
		return h.reportService.ExportEmployee(r.Context(), req, out)
	})
	if err != nil {
		response.HandleError(w, err)
	}
}

// Department handles GET /reports/department?department_id=
func (h *reportHandlerImpl) Department(w http.ResponseWriter, r *http.Request) {
	req := report.DepartmentReportRequest{
		DepartmentID: r.URL.Query().Get("department_id"),
		Now:          h.now(),
	}

	result, err := h.reportService.Department(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// EmployeeStats handles GET /reports/employee-stats. Without employee_id the caller's
// own statistics are returned; other employees require reports.view.
func (h *reportHandlerImpl) EmployeeStats(w http.ResponseWriter, r *http.Request) {
	principal, err := jwt.PrincipalFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		employeeID = principal.EmployeeID
	}
	if employeeID != principal.EmployeeID && !user.HasPermission(principal.Role, user.PermissionReportsView) {
		response.HandleError(w, user.ErrInsufficientPermissions)
		return
	}

	result, err := h.reportService.EmployeeStats(r.Context(), report.EmployeeStatsRequest{EmployeeID: employeeID, Now: h.now()})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Daily handles GET /reports/daily
func (h *reportHandlerImpl) Daily(w http.ResponseWriter, r *http.Request) {
	result, err := h.reportService.Daily(r.Context(), report.DailyRequest{Now: h.now()})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
