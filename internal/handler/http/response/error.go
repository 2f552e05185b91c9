package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Input errors
	case errors.Is(err, calendar.ErrInvalidTimestamp):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, calendar.ErrInvalidRange):
		BadRequest(w, err.Error(), nil)

	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrNoCheckInYet):
		BadRequest(w, "You have not checked in yet", nil)
	case errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		BadRequest(w, "Check-out cannot be earlier than check-in", nil)
	case errors.Is(err, attendance.ErrStatusRequired):
		BadRequest(w, "Status is required when creating an attendance record", nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrStoreUnavailable):
		slog.Error("attendance store unavailable", "error", err)
		ServiceUnavailable(w, "Attendance store is temporarily unavailable, please retry")
	case errors.Is(err, cache.ErrLockNotObtained):
		Conflict(w, "Another reset is already in progress")

	// Directory errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrDepartmentNotFound):
		NotFound(w, "Department not found")

	// Report errors
	case errors.Is(err, report.ErrExportFailed):
		slog.Error("report export failed", "error", err)
		InternalServerError(w, "Failed to export report")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
