package attendance

import (
	"context"
)

// AttendanceService reconciles check-in/check-out events and manual corrections
// into one record per employee per calendar day.
type AttendanceService interface {
	// CheckIn records the first arrival of the day; repeated calls return the existing record
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes today's session, or an overnight session started the previous day
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// Today reports the caller's record for the current day and what they may do next
	Today(ctx context.Context, req TodayRequest) (TodayResponse, error)

	// UpsertManual creates or corrects a record, overwriting only the supplied fields
	UpsertManual(ctx context.Context, req ManualAttendanceRequest) (AttendanceResponse, error)

	// UpdateAttendance corrects an existing record by ID
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)

	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)

	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)

	// ResetDay deletes the record of an employee on a day; no-op when there is none
	ResetDay(ctx context.Context, req ResetDayRequest) error

	// ResetAll deletes every record
	ResetAll(ctx context.Context) (ResetAllResponse, error)
}
