package attendance

import "errors"

// Attendance domain errors
var (
	// Check-in / check-out errors
	ErrNoCheckInYet          = errors.New("you have not checked in yet")
	ErrCheckOutBeforeCheckIn = errors.New("check-out cannot be earlier than check-in")

	// Store errors
	ErrAlreadyExists    = errors.New("attendance record already exists for this employee and day")
	ErrStoreUnavailable = errors.New("attendance store unavailable")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrStatusRequired     = errors.New("status is required when creating an attendance record")
)
