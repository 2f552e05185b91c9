// Package memory keeps attendance data in process memory. It backs tests and the
// DB_DRIVER=memory development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
)

type dayKey struct {
	employeeID string
	day        calendar.Day
}

type attendanceRepositoryImpl struct {
	mu        sync.RWMutex
	byID      map[string]attendance.Record
	byDay     map[dayKey]string
	directory employee.EmployeeRepository
	now       func() time.Time
}

// NewAttendanceRepository returns a store whose range queries join employee data from
// directory. directory may be nil.
func NewAttendanceRepository(directory employee.EmployeeRepository) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{
		byID:      make(map[string]attendance.Record),
		byDay:     make(map[dayKey]string),
		directory: directory,
		now:       time.Now,
	}
}

func (r *attendanceRepositoryImpl) Find(ctx context.Context, employeeID string, day calendar.Day) (*attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDay[dayKey{employeeID, day}]
	if !ok {
		return nil, nil
	}
	rec := clone(r.byID[id])
	return &rec, nil
}

func (r *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	return clone(rec), nil
}

func (r *attendanceRepositoryImpl) CreateIfAbsent(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey{record.EmployeeID, record.Day}
	if _, exists := r.byDay[key]; exists {
		return attendance.Record{}, attendance.ErrAlreadyExists
	}

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Record{}, err
		}
		record.ID = id.String()
	}
	now := r.now()
	record.CreatedAt, record.UpdatedAt = now, now
	record.EmployeeName, record.DepartmentID = nil, nil

	record = clone(record)
	r.byID[record.ID] = record
	r.byDay[key] = record.ID
	return clone(record), nil
}

func (r *attendanceRepositoryImpl) Update(ctx context.Context, id string, patch attendance.RecordPatch) (attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Record{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}
	if patch.Conflicts(rec) {
		return clone(rec), nil
	}
	rec = patch.Apply(rec)
	rec.UpdatedAt = r.now()
	r.byID[id] = rec
	return clone(rec), nil
}

func (r *attendanceRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	delete(r.byID, id)
	delete(r.byDay, dayKey{rec.EmployeeID, rec.Day})
	return nil
}

func (r *attendanceRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.byID))
	r.byID = make(map[string]attendance.Record)
	r.byDay = make(map[dayKey]string)
	return n, nil
}

func (r *attendanceRepositoryImpl) QueryRange(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filter.Range.Start.After(filter.Range.End) {
		return nil, fmt.Errorf("%w: %s", calendar.ErrInvalidRange, filter.Range)
	}

	r.mu.RLock()
	matched := make([]attendance.Record, 0)
	for _, rec := range r.byID {
		if !filter.Range.Contains(rec.Day) {
			continue
		}
		if filter.EmployeeID != nil && rec.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && rec.Status != *filter.Status {
			continue
		}
		matched = append(matched, clone(rec))
	}
	r.mu.RUnlock()

	out := matched[:0]
	for _, rec := range matched {
		if r.directory != nil {
			emp, err := r.directory.GetByID(ctx, rec.EmployeeID)
			if err == nil {
				name := emp.Name
				rec.EmployeeName = &name
				rec.DepartmentID = emp.DepartmentID
			}
		}
		if filter.DepartmentID != nil && (rec.DepartmentID == nil || *rec.DepartmentID != *filter.DepartmentID) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Day.Compare(out[j].Day); c != 0 {
			return c < 0
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func clone(r attendance.Record) attendance.Record {
	r.CheckIn = copyPtr(r.CheckIn)
	r.CheckOut = copyPtr(r.CheckOut)
	r.Notes = copyPtr(r.Notes)
	r.EmployeeName = copyPtr(r.EmployeeName)
	r.DepartmentID = copyPtr(r.DepartmentID)
	return r
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
