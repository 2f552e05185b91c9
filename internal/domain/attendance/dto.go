package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// ========================================
// CHECK-IN / CHECK-OUT DTOs
// ========================================

type CheckInRequest struct {
	EmployeeID string    `json:"employee_id"`
	Now        time.Time `json:"-"`
}

func (r *CheckInRequest) Validate() error {
	return validateClockEvent(r.EmployeeID, r.Now)
}

type CheckOutRequest struct {
	EmployeeID string    `json:"employee_id"`
	Now        time.Time `json:"-"`
}

func (r *CheckOutRequest) Validate() error {
	return validateClockEvent(r.EmployeeID, r.Now)
}

type TodayRequest struct {
	EmployeeID string    `json:"employee_id"`
	Now        time.Time `json:"-"`
}

func (r *TodayRequest) Validate() error {
	return validateClockEvent(r.EmployeeID, r.Now)
}

func validateClockEvent(employeeID string, now time.Time) error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(employeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if now.IsZero() {
		errs = append(errs, validator.ValidationError{
			Field:   "now",
			Message: "event time is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type TodayResponse struct {
	Date          string              `json:"date"`
	Attendance    *AttendanceResponse `json:"attendance"`
	HasCheckedIn  bool                `json:"has_checked_in"`
	HasCheckedOut bool                `json:"has_checked_out"`
	CanCheckIn    bool                `json:"can_check_in"`
	CanCheckOut   bool                `json:"can_check_out"`
}

// ========================================
// MANUAL ENTRY DTOs
// ========================================

// ManualAttendanceRequest creates or corrects the record of an employee on a day.
// CheckIn and CheckOut accept a full ISO-8601 instant or a time of day ("08:30").
type ManualAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"` // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`
	CheckIn    *string `json:"check_in,omitempty"`
	CheckOut   *string `json:"check_out,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

func (r *ManualAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	errs = append(errs, validateCorrection(r.Status, r.CheckIn, r.CheckOut)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateAttendanceRequest struct {
	ID       string  `json:"-"`
	Status   *string `json:"status,omitempty"`
	CheckIn  *string `json:"check_in,omitempty"`
	CheckOut *string `json:"check_out,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	errs = append(errs, validateCorrection(r.Status, r.CheckIn, r.CheckOut)...)

	if r.Status == nil && r.CheckIn == nil && r.CheckOut == nil && r.Notes == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "body",
			Message: "at least one of status, check_in, check_out, notes must be provided",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateCorrection(status, checkIn, checkOut *string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if status != nil {
		if _, err := ParseStatus(*status); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + statusList(),
			})
		}
	}

	if checkIn != nil && validator.IsEmpty(*checkIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in",
			Message: "check_in must not be empty when provided",
		})
	}

	if checkOut != nil && validator.IsEmpty(*checkOut) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out",
			Message: "check_out must not be empty when provided",
		})
	}

	return errs
}

func statusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// ========================================
// RESET DTOs
// ========================================

type ResetDayRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
}

func (r *ResetDayRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ResetAllResponse struct {
	Deleted int64 `json:"deleted"`
}

// ========================================
// QUERY DTOs
// ========================================

type AttendanceResponse struct {
	ID           string   `json:"id"`
	EmployeeID   string   `json:"employee_id"`
	EmployeeName *string  `json:"employee_name,omitempty"`
	DepartmentID *string  `json:"department_id,omitempty"`
	Date         string   `json:"date"`
	CheckIn      *string  `json:"check_in,omitempty"`
	CheckOut     *string  `json:"check_out,omitempty"`
	WorkingHours *float64 `json:"working_hours,omitempty"`
	Status       string   `json:"status"`
	Notes        *string  `json:"notes,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

type AttendanceFilter struct {
	EmployeeID   *string   `json:"employee_id,omitempty"`
	DepartmentID *string   `json:"department_id,omitempty"`
	Status       *string   `json:"status,omitempty"`
	StartDate    string    `json:"start_date,omitempty"` // YYYY-MM-DD, defaults to first day of the current month
	EndDate      string    `json:"end_date,omitempty"`   // YYYY-MM-DD, defaults to last day of the current month
	Now          time.Time `json:"-"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		if _, err := ParseStatus(*f.Status); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + statusList(),
			})
		}
	}

	if f.StartDate != "" {
		if _, valid := validator.IsValidDate(f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != "" {
		if _, valid := validator.IsValidDate(f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	StartDate   string               `json:"start_date"`
	EndDate     string               `json:"end_date"`
	Attendances []AttendanceResponse `json:"attendances"`
}
