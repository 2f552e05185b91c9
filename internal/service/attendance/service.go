package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/aggregate"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

// maxWriteAttempts bounds the find/create loop when concurrent resets keep deleting the
// record another request just created.
const maxWriteAttempts = 3

const resetAllLockTTL = 30 * time.Second

// DefaultMaxSessionLength applies when Config leaves MaxSessionLength unset.
const DefaultMaxSessionLength = 16 * time.Hour

type Config struct {
	Location *time.Location
	// MaxSessionLength is how long after check-in a check-out on the next calendar day
	// still closes the previous day's session.
	MaxSessionLength time.Duration
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	reportCache cache.ReportCache
	locker      cache.Locker
	loc         *time.Location
	maxSession  time.Duration
}

func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(time.RFC3339)
	return &format
}

func (a *AttendanceServiceImpl) toResponse(r attendance.Record) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		DepartmentID: r.DepartmentID,
		Date:         r.Day.String(),
		CheckIn:      timePtrToString(r.CheckIn, a.loc),
		CheckOut:     timePtrToString(r.CheckOut, a.loc),
		Status:       string(r.Status),
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.In(a.loc).Format(time.RFC3339),
		UpdatedAt:    r.UpdatedAt.In(a.loc).Format(time.RFC3339),
	}
	if hours, ok := aggregate.WorkHours(r); ok {
		h := hours.InexactFloat64()
		resp.WorkingHours = &h
	}
	return resp
}

// invalidateReports drops cached reports after a write. Failures only cost freshness.
func (a *AttendanceServiceImpl) invalidateReports(ctx context.Context) {
	if err := a.reportCache.Invalidate(ctx); err != nil {
		slog.Warn("failed to invalidate report cache", "error", err)
	}
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day := calendar.DayOf(req.Now, a.loc)
	present := attendance.StatusPresent

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		existing, err := a.AttendanceRepository.Find(ctx, req.EmployeeID, day)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to find attendance: %w", err)
		}

		if existing == nil {
			created, err := a.AttendanceRepository.CreateIfAbsent(ctx, attendance.Record{
				EmployeeID: req.EmployeeID,
				Day:        day,
				CheckIn:    &req.Now,
				Status:     present,
			})
			if errors.Is(err, attendance.ErrAlreadyExists) {
				// lost the race to a concurrent check-in; read the winner
				continue
			}
			if err != nil {
				return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
			}
			a.invalidateReports(ctx)
			return a.toResponse(created), nil
		}

		if existing.CheckIn != nil {
			return a.toResponse(*existing), nil
		}

		// a manual entry created the record without a check-in
		updated, err := a.AttendanceRepository.Update(ctx, existing.ID, attendance.RecordPatch{
			CheckIn:   &req.Now,
			Status:    &present,
			WriteOnce: true,
		})
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			continue
		}
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
		}
		a.invalidateReports(ctx)
		return a.toResponse(updated), nil
	}

	return attendance.AttendanceResponse{}, fmt.Errorf("%w: check-in for employee %s on %s kept conflicting",
		attendance.ErrStoreUnavailable, req.EmployeeID, day)
}

// openSession returns the record a check-out at now applies to: today's record with a
// check-in, or the previous day's when its check-in is at most maxSession ago.
func (a *AttendanceServiceImpl) openSession(ctx context.Context, employeeID string, now time.Time) (*attendance.Record, error) {
	today := calendar.DayOf(now, a.loc)

	rec, err := a.AttendanceRepository.Find(ctx, employeeID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance: %w", err)
	}
	if rec != nil && rec.CheckIn != nil {
		return rec, nil
	}

	prev, err := a.AttendanceRepository.Find(ctx, employeeID, today.AddDays(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance: %w", err)
	}
	if prev != nil && prev.CheckIn != nil && !now.Before(*prev.CheckIn) && now.Sub(*prev.CheckIn) <= a.maxSession {
		return prev, nil
	}

	return nil, nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	session, err := a.openSession(ctx, req.EmployeeID, req.Now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if session == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNoCheckInYet
	}

	if session.CheckOut != nil {
		return a.toResponse(*session), nil
	}

	if req.Now.Before(*session.CheckIn) {
		return attendance.AttendanceResponse{}, fmt.Errorf("%w: check-in was at %s",
			attendance.ErrCheckOutBeforeCheckIn, session.CheckIn.In(a.loc).Format(time.RFC3339))
	}

	updated, err := a.AttendanceRepository.Update(ctx, session.ID, attendance.RecordPatch{
		CheckOut:  &req.Now,
		WriteOnce: true,
	})
	if errors.Is(err, attendance.ErrAttendanceNotFound) {
		// reset between the read and the write
		return attendance.AttendanceResponse{}, attendance.ErrNoCheckInYet
	}
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.invalidateReports(ctx)
	return a.toResponse(updated), nil
}

// Today implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Today(ctx context.Context, req attendance.TodayRequest) (attendance.TodayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TodayResponse{}, err
	}

	day := calendar.DayOf(req.Now, a.loc)
	resp := attendance.TodayResponse{Date: day.String()}

	rec, err := a.AttendanceRepository.Find(ctx, req.EmployeeID, day)
	if err != nil {
		return attendance.TodayResponse{}, fmt.Errorf("failed to find attendance: %w", err)
	}
	if rec != nil {
		r := a.toResponse(*rec)
		resp.Attendance = &r
		resp.HasCheckedIn = rec.CheckIn != nil
		resp.HasCheckedOut = rec.CheckOut != nil
	}
	resp.CanCheckIn = !resp.HasCheckedIn

	session, err := a.openSession(ctx, req.EmployeeID, req.Now)
	if err != nil {
		return attendance.TodayResponse{}, err
	}
	resp.CanCheckOut = session != nil && session.CheckOut == nil

	return resp, nil
}

// resolveClock reads a manual timestamp: a time of day on the record's day, or a full instant.
func (a *AttendanceServiceImpl) resolveClock(value string, day calendar.Day) (time.Time, error) {
	if t, err := calendar.ParseClock(value, day, a.loc); err == nil {
		return t, nil
	}
	return calendar.ParseInstant(value, a.loc)
}

func (a *AttendanceServiceImpl) correctionPatch(day calendar.Day, status, checkIn, checkOut, notes *string) (attendance.RecordPatch, error) {
	var patch attendance.RecordPatch

	if status != nil {
		st, err := attendance.ParseStatus(*status)
		if err != nil {
			return patch, err
		}
		patch.Status = &st
	}

	if checkIn != nil {
		t, err := a.resolveClock(*checkIn, day)
		if err != nil {
			return patch, fmt.Errorf("check_in: %w", err)
		}
		patch.CheckIn = &t
	}

	if checkOut != nil {
		t, err := a.resolveClock(*checkOut, day)
		if err != nil {
			return patch, fmt.Errorf("check_out: %w", err)
		}
		patch.CheckOut = &t
	}

	patch.Notes = notes
	return patch, nil
}

// UpsertManual implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpsertManual(ctx context.Context, req attendance.ManualAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	day, err := calendar.ParseDay(req.Date)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if a.EmployeeRepository != nil {
		if _, err := a.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
			if errors.Is(err, employee.ErrEmployeeNotFound) {
				return attendance.AttendanceResponse{}, employee.ErrEmployeeNotFound
			}
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
		}
	}

	patch, err := a.correctionPatch(day, req.Status, req.CheckIn, req.CheckOut, req.Notes)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		existing, err := a.AttendanceRepository.Find(ctx, req.EmployeeID, day)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to find attendance: %w", err)
		}

		if existing == nil {
			if patch.Status == nil {
				return attendance.AttendanceResponse{}, attendance.ErrStatusRequired
			}
			record := patch.Apply(attendance.Record{EmployeeID: req.EmployeeID, Day: day})
			if err := record.CheckOrdering(); err != nil {
				return attendance.AttendanceResponse{}, err
			}

			created, err := a.AttendanceRepository.CreateIfAbsent(ctx, record)
			if errors.Is(err, attendance.ErrAlreadyExists) {
				continue
			}
			if err != nil {
				return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
			}
			a.invalidateReports(ctx)
			return a.toResponse(created), nil
		}

		updated, err := a.applyCorrection(ctx, *existing, patch)
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			continue
		}
		if err != nil {
			return attendance.AttendanceResponse{}, err
		}
		return a.toResponse(updated), nil
	}

	return attendance.AttendanceResponse{}, fmt.Errorf("%w: manual entry for employee %s on %s kept conflicting",
		attendance.ErrStoreUnavailable, req.EmployeeID, day)
}

func (a *AttendanceServiceImpl) applyCorrection(ctx context.Context, existing attendance.Record, patch attendance.RecordPatch) (attendance.Record, error) {
	if err := patch.Apply(existing).CheckOrdering(); err != nil {
		return attendance.Record{}, err
	}

	updated, err := a.AttendanceRepository.Update(ctx, existing.ID, patch)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to update attendance: %w", err)
	}

	a.invalidateReports(ctx)
	return updated, nil
}

// UpdateAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	existing, err := a.AttendanceRepository.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	patch, err := a.correctionPatch(existing.Day, req.Status, req.CheckIn, req.CheckOut, req.Notes)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	updated, err := a.applyCorrection(ctx, existing, patch)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return a.toResponse(updated), nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	rec, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a.toResponse(rec), nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	rng, err := calendar.ParseRange(filter.StartDate, filter.EndDate, calendar.MonthOf(calendar.DayOf(filter.Now, a.loc)))
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	query := attendance.RecordFilter{
		EmployeeID:   filter.EmployeeID,
		DepartmentID: filter.DepartmentID,
		Range:        rng,
	}
	if filter.Status != nil {
		st, _ := attendance.ParseStatus(*filter.Status)
		query.Status = &st
	}

	records, err := a.AttendanceRepository.QueryRange(ctx, query)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	total := len(records)
	from := min((filter.Page-1)*filter.Limit, total)
	to := min(from+filter.Limit, total)

	responses := make([]attendance.AttendanceResponse, 0, to-from)
	for _, rec := range records[from:to] {
		responses = append(responses, a.toResponse(rec))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  int64(total),
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		StartDate:   rng.Start.String(),
		EndDate:     rng.End.String(),
		Attendances: responses,
	}, nil
}

// ResetDay implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ResetDay(ctx context.Context, req attendance.ResetDayRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	day, err := calendar.ParseDay(req.Date)
	if err != nil {
		return err
	}

	existing, err := a.AttendanceRepository.Find(ctx, req.EmployeeID, day)
	if err != nil {
		return fmt.Errorf("failed to find attendance: %w", err)
	}
	if existing == nil {
		return nil
	}

	if err := a.AttendanceRepository.Delete(ctx, existing.ID); err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}

	a.invalidateReports(ctx)
	return nil
}

// ResetAll implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ResetAll(ctx context.Context) (attendance.ResetAllResponse, error) {
	var deleted int64
	err := a.locker.WithLock(ctx, "attendance-reset-all", resetAllLockTTL, func(ctx context.Context) error {
		n, err := a.AttendanceRepository.DeleteAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete attendances: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return attendance.ResetAllResponse{}, err
	}

	slog.Info("attendance records reset", "deleted", deleted)
	a.invalidateReports(ctx)
	return attendance.ResetAllResponse{Deleted: deleted}, nil
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	reportCache cache.ReportCache,
	locker cache.Locker,
	cfg Config,
) attendance.AttendanceService {
	if reportCache == nil {
		reportCache = cache.NopReportCache{}
	}
	if locker == nil {
		locker = cache.NopLocker{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	maxSession := cfg.MaxSessionLength
	if maxSession <= 0 {
		maxSession = DefaultMaxSessionLength
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		reportCache:          reportCache,
		locker:               locker,
		loc:                  loc,
		maxSession:           maxSession,
	}
}
