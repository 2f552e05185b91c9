package report

import (
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ========================================
// OVERVIEW
// ========================================

type OverviewRequest struct {
	Period Period    `json:"period"`
	Now    time.Time `json:"-"`
}

func (r *OverviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Period == "" {
		r.Period = PeriodWeekly
	}
	if !validator.IsInSlice(string(r.Period), []string{string(PeriodWeekly), string(PeriodMonthly)}) {
		errs = append(errs, validator.ValidationError{
			Field:   "period",
			Message: "period must be one of: weekly, monthly",
		})
	}

	errs = append(errs, validateNow(r.Now)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type Bucket struct {
	Name    string `json:"name"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Late    int    `json:"late"`
}

type OverviewReport struct {
	Period    Period   `json:"period"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Buckets   []Bucket `json:"buckets"`
}

// ========================================
// SUMMARY
// ========================================

type SummaryRequest struct {
	StartDate string    `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to first day of the current month
	EndDate   string    `json:"end_date,omitempty"`   // YYYY-MM-DD, defaults to last day of the current month
	Now       time.Time `json:"-"`
}

func (r *SummaryRequest) Validate() error {
	errs := validateDates(r.StartDate, r.EndDate)
	errs = append(errs, validateNow(r.Now)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type StatusTotals struct {
	Present  int `json:"present"`
	Absent   int `json:"absent"`
	Late     int `json:"late"`
	HalfDays int `json:"half_days"`
	Total    int `json:"total"`
}

type DepartmentRate struct {
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name"`
	EmployeeCount  int    `json:"employee_count"`
	AttendanceRate int    `json:"attendance_rate"`
}

type SummaryReport struct {
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	TotalEmployees    int              `json:"total_employees"`
	Totals            StatusTotals     `json:"totals"`
	AttendanceRate    int              `json:"attendance_rate"`
	PerfectAttendance int              `json:"perfect_attendance"`
	ChronicLateness   int              `json:"chronic_lateness"`
	Departments       []DepartmentRate `json:"departments"`
	GeneratedAt       string           `json:"generated_at"`
}

// ========================================
// EMPLOYEE
// ========================================

type EmployeeReportRequest struct {
	EmployeeID string    `json:"employee_id"`
	StartDate  string    `json:"start_date,omitempty"`
	EndDate    string    `json:"end_date,omitempty"`
	Now        time.Time `json:"-"`
}

func (r *EmployeeReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	errs = append(errs, validateDates(r.StartDate, r.EndDate)...)
	errs = append(errs, validateNow(r.Now)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeInfo struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	DepartmentID   *string `json:"department_id,omitempty"`
	DepartmentName *string `json:"department_name,omitempty"`
}

type EmployeeSummary struct {
	Present        int `json:"present"`
	Absent         int `json:"absent"`
	Late           int `json:"late"`
	HalfDays       int `json:"half_days"`
	TotalDays      int `json:"total_days"`
	AttendanceRate int `json:"attendance_rate"`
}

type WorkHours struct {
	TotalHours      float64 `json:"total_hours"`
	AverageHours    float64 `json:"average_hours"`
	Sessions        int     `json:"sessions"`
	OpenSessions    int     `json:"open_sessions"`
	InvalidSessions int     `json:"invalid_sessions"`
}

type DailyLog struct {
	Date         string   `json:"date"`
	DayOfWeek    string   `json:"day_of_week"`
	Status       string   `json:"status"`
	CheckIn      *string  `json:"check_in"`
	CheckOut     *string  `json:"check_out"`
	WorkingHours *float64 `json:"working_hours,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

type EmployeeReport struct {
	Employee  EmployeeInfo    `json:"employee"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Weekly    []Bucket        `json:"weekly"`
	Summary   EmployeeSummary `json:"summary"`
	WorkHours WorkHours       `json:"work_hours"`
	DailyLogs []DailyLog      `json:"daily_logs"`
}

// ========================================
// DEPARTMENT
// ========================================

type DepartmentReportRequest struct {
	DepartmentID string    `json:"department_id"`
	Now          time.Time `json:"-"`
}

func (r *DepartmentReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DepartmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "department_id",
			Message: "department_id is required",
		})
	}

	errs = append(errs, validateNow(r.Now)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TrendPoint struct {
	Month string `json:"month"`
	Rate  int    `json:"rate"`
}

type DepartmentReport struct {
	DepartmentID      string       `json:"department_id"`
	DepartmentName    string       `json:"department_name"`
	Month             string       `json:"month"` // YYYY-MM
	EmployeeCount     int          `json:"employee_count"`
	AttendanceRate    int          `json:"attendance_rate"`
	PerfectAttendance int          `json:"perfect_attendance"`
	Improvement       string       `json:"improvement"`
	Trend             []TrendPoint `json:"trend"`
}

// ========================================
// EMPLOYEE STATS
// ========================================

type EmployeeStatsRequest struct {
	EmployeeID string    `json:"employee_id"`
	Now        time.Time `json:"-"`
}

func (r *EmployeeStatsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	errs = append(errs, validateNow(r.Now)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeStats struct {
	EmployeeID                  string `json:"employee_id"`
	Year                        int    `json:"year"`
	YearlyAttendancePercentage  int    `json:"yearly_attendance_percentage"`
	MonthlyAttendancePercentage int    `json:"monthly_attendance_percentage"`
	PresentDays                 int    `json:"present_days"`
	AbsentDays                  int    `json:"absent_days"`
	TotalDays                   int    `json:"total_days"`
}

// ========================================
// DAILY DASHBOARD
// ========================================

type DailyRequest struct {
	Now time.Time `json:"-"`
}

func (r *DailyRequest) Validate() error {
	if errs := validateNow(r.Now); len(errs) > 0 {
		return errs
	}
	return nil
}

type DailyStats struct {
	Date           string `json:"date"`
	Present        int    `json:"present"`
	Absent         int    `json:"absent"`
	Late           int    `json:"late"`
	Rate           int    `json:"rate"`
	TotalEmployees int    `json:"total_employees"`
}

func validateDates(start, end string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if start != "" {
		if _, valid := validator.IsValidDate(start); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if end != "" {
		if _, valid := validator.IsValidDate(end); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	return errs
}

func validateNow(now time.Time) validator.ValidationErrors {
	if now.IsZero() {
		return validator.ValidationErrors{{Field: "now", Message: "report time is required"}}
	}
	return nil
}
