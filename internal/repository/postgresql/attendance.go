package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

const recordColumns = `
	a.id::text, a.employee_id, a.calendar_day, a.check_in, a.check_out,
	a.status, a.notes, a.created_at, a.updated_at`

const joinedColumns = recordColumns + `, e.name, e.department_id`

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads recordColumns, followed by the employee join when joined is set.
func scanRecord(row rowScanner, joined bool) (attendance.Record, error) {
	var (
		rec    attendance.Record
		day    time.Time
		status string
	)
	dest := []any{
		&rec.ID, &rec.EmployeeID, &day, &rec.CheckIn, &rec.CheckOut,
		&status, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt,
	}
	if joined {
		dest = append(dest, &rec.EmployeeName, &rec.DepartmentID)
	}
	if err := row.Scan(dest...); err != nil {
		return attendance.Record{}, err
	}
	rec.Day = calendar.FromDate(day.Year(), day.Month(), day.Day())
	rec.Status = attendance.Status(status)
	return rec, nil
}

func dateParam(d calendar.Day) time.Time {
	return d.Midnight(time.UTC)
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", attendance.ErrStoreUnavailable, op, err)
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// Find implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Find(ctx context.Context, employeeID string, day calendar.Day) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records a
		WHERE a.employee_id = $1 AND a.calendar_day = $2
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, dateParam(day)), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No attendance for that day yet
		}
		return nil, storeError("find attendance", err)
	}
	return &rec, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + joinedColumns + `
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Record{}, storeError("get attendance by id", err)
	}
	return rec, nil
}

// CreateIfAbsent implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) CreateIfAbsent(ctx context.Context, record attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}
	record.ID = id.String()

	query := `
		INSERT INTO attendance_records (id, employee_id, calendar_day, check_in, check_out, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (employee_id, calendar_day) DO NOTHING
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		dateParam(record.Day),
		record.CheckIn,
		record.CheckOut,
		string(record.Status),
		record.Notes,
	).Scan(&record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// the conflict clause swallowed the insert
			return attendance.Record{}, attendance.ErrAlreadyExists
		case pgErrorCode(err) == pgUniqueViolation:
			return attendance.Record{}, attendance.ErrAlreadyExists
		case pgErrorCode(err) == pgForeignKeyViolation:
			return attendance.Record{}, employee.ErrEmployeeNotFound
		case pgErrorCode(err) == pgCheckViolation:
			return attendance.Record{}, fmt.Errorf("%w: rejected by store", attendance.ErrCheckOutBeforeCheckIn)
		}
		return attendance.Record{}, storeError("create attendance", err)
	}

	return record, nil
}

// Update implements attendance.AttendanceRepository.
//
// A WriteOnce patch only matches while every timestamp it sets is still NULL, so two
// concurrent fills cannot both win. A non-matching update returns the stored row unchanged.
func (a *attendanceRepositoryImpl) Update(ctx context.Context, id string, patch attendance.RecordPatch) (attendance.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.Record{}, attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	query := `
		UPDATE attendance_records a
		SET check_in = COALESCE($2::timestamptz, a.check_in),
			check_out = COALESCE($3::timestamptz, a.check_out),
			status = COALESCE($4::text, a.status),
			notes = COALESCE($5::text, a.notes),
			updated_at = NOW()
		WHERE a.id = $1
		  AND (NOT $6::boolean OR (
				($2::timestamptz IS NULL OR a.check_in IS NULL) AND
				($3::timestamptz IS NULL OR a.check_out IS NULL)
		  ))
		RETURNING ` + recordColumns

	rec, err := scanRecord(q.QueryRow(ctx, query, id, patch.CheckIn, patch.CheckOut, status, patch.Notes, patch.WriteOnce), false)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// either the id is unknown or a write-once patch lost
		return a.GetByID(ctx, id)
	}
	if pgErrorCode(err) == pgCheckViolation {
		return attendance.Record{}, fmt.Errorf("%w: rejected by store", attendance.ErrCheckOutBeforeCheckIn)
	}
	return attendance.Record{}, storeError("update attendance", err)
}

// Delete implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.ErrAttendanceNotFound
	}

	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return storeError("delete attendance", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// DeleteAll implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendance_records`)
	if err != nil {
		return 0, storeError("delete all attendance", err)
	}
	return tag.RowsAffected(), nil
}

// QueryRange implements attendance.AttendanceRepository.
func (a *attendanceRepositoryImpl) QueryRange(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	if filter.Range.Start.After(filter.Range.End) {
		return nil, fmt.Errorf("%w: %s", calendar.ErrInvalidRange, filter.Range)
	}

	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	where := []string{"a.calendar_day BETWEEN $1 AND $2"}
	args := []interface{}{dateParam(filter.Range.Start), dateParam(filter.Range.End)}
	argIdx := 3

	if filter.EmployeeID != nil {
		where = append(where, fmt.Sprintf("a.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.DepartmentID != nil {
		where = append(where, fmt.Sprintf("e.department_id = $%d", argIdx))
		args = append(args, *filter.DepartmentID)
		argIdx++
	}

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("a.status = $%d", argIdx))
		args = append(args, string(*filter.Status))
	}

	query := `
		SELECT ` + joinedColumns + `
		FROM attendance_records a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY a.calendar_day, a.employee_id
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("query attendance range", err)
	}
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, true)
		if err != nil {
			return nil, storeError("scan attendance", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("iterate attendance", err)
	}

	return records, nil
}
