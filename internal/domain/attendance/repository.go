package attendance

import (
	"context"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

// AttendanceRepository is the store contract the reconciler and report services rely on.
// Implementations must enforce uniqueness of (employeeID, day) inside CreateIfAbsent.
type AttendanceRepository interface {
	// Find returns the record for an employee on a day, or nil when there is none
	Find(ctx context.Context, employeeID string, day calendar.Day) (*Record, error)

	// GetByID returns ErrAttendanceNotFound when the id is unknown
	GetByID(ctx context.Context, id string) (Record, error)

	// CreateIfAbsent inserts the record, or fails with ErrAlreadyExists when a record for
	// the same employee and day is already stored
	CreateIfAbsent(ctx context.Context, record Record) (Record, error)

	// Update applies the patch atomically to one record
	Update(ctx context.Context, id string, patch RecordPatch) (Record, error)

	// Delete removes one record; ErrAttendanceNotFound when it is already gone
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every record and reports how many were deleted
	DeleteAll(ctx context.Context) (int64, error)

	// QueryRange returns the records matching the filter ordered by day, then employee
	QueryRange(ctx context.Context, filter RecordFilter) ([]Record, error)
}
