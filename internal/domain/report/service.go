package report

import (
	"context"
	"io"
)

// ReportService assembles attendance analytics from stored records
type ReportService interface {
	// Overview buckets the trailing 7 days (weekly) or trailing 4 weeks (monthly)
	Overview(ctx context.Context, req OverviewRequest) (OverviewReport, error)

	// Summary returns organization totals and per-department rates for a date range
	Summary(ctx context.Context, req SummaryRequest) (SummaryReport, error)

	// Employee returns one employee's weekly breakdown and summary for a date range
	Employee(ctx context.Context, req EmployeeReportRequest) (EmployeeReport, error)

	// Department returns a department's 6-month trend and current-month statistics
	Department(ctx context.Context, req DepartmentReportRequest) (DepartmentReport, error)

	// EmployeeStats returns an employee's yearly and monthly attendance for the current year
	EmployeeStats(ctx context.Context, req EmployeeStatsRequest) (EmployeeStats, error)

	// Daily returns today's counts and the all-time attendance rate
	Daily(ctx context.Context, req DailyRequest) (DailyStats, error)

	// ExportSummary writes the summary report as an xlsx workbook
	ExportSummary(ctx context.Context, req SummaryRequest, w io.Writer) error

	// ExportEmployee writes the employee report as an xlsx workbook
	ExportEmployee(ctx context.Context, req EmployeeReportRequest, w io.Writer) error
}
