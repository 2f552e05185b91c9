package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
	StatusHalfDay Status = "HALF_DAY"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusHalfDay}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

// ParseStatus accepts any casing, e.g. "half_day".
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown attendance status %q", s)
	}
	return st, nil
}

// Record is the single attendance row of one employee on one calendar day.
type Record struct {
	ID         string
	EmployeeID string
	Day        calendar.Day
	CheckIn    *time.Time
	CheckOut   *time.Time
	Status     Status
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined from the employee directory by range queries
	EmployeeName *string
	DepartmentID *string
}

// RecordPatch carries the fields an update touches; nil fields are left alone.
type RecordPatch struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Status   *Status
	Notes    *string

	// WriteOnce applies the patch only while every timestamp it sets is still empty.
	// Otherwise the record is left unchanged.
	WriteOnce bool
}

// Conflicts reports whether a WriteOnce patch would overwrite a filled timestamp of r.
func (p RecordPatch) Conflicts(r Record) bool {
	if !p.WriteOnce {
		return false
	}
	return (p.CheckIn != nil && r.CheckIn != nil) || (p.CheckOut != nil && r.CheckOut != nil)
}

// Apply returns r with the patch applied, following the same rules a store uses.
func (p RecordPatch) Apply(r Record) Record {
	if p.Conflicts(r) {
		return r
	}
	if p.CheckIn != nil {
		v := *p.CheckIn
		r.CheckIn = &v
	}
	if p.CheckOut != nil {
		v := *p.CheckOut
		r.CheckOut = &v
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Notes != nil {
		v := *p.Notes
		r.Notes = &v
	}
	return r
}

// CheckOrdering enforces check-out only after a check-in and never before it.
func (r Record) CheckOrdering() error {
	if r.CheckOut == nil {
		return nil
	}
	if r.CheckIn == nil {
		return ErrNoCheckInYet
	}
	if r.CheckOut.Before(*r.CheckIn) {
		return fmt.Errorf("%w: check-out %s is before check-in %s",
			ErrCheckOutBeforeCheckIn, r.CheckOut.Format(time.RFC3339), r.CheckIn.Format(time.RFC3339))
	}
	return nil
}

// RecordFilter selects records for range queries. Range is required.
type RecordFilter struct {
	EmployeeID   *string
	DepartmentID *string
	Status       *Status
	Range        calendar.Range
}
