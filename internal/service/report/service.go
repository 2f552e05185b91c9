package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/aggregate"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/export"
)

const trendMonths = 6

// firstDay bounds all-time queries.
var firstDay = calendar.Day{Year: 1970, Month: time.January, Day: 1}

type Config struct {
	Location             *time.Location
	ChronicLateThreshold int
}

type ReportServiceImpl struct {
	attendanceRepo   attendance.AttendanceRepository
	employeeRepo     employee.EmployeeRepository
	departmentRepo   employee.DepartmentRepository
	reportCache      cache.ReportCache
	loc              *time.Location
	chronicThreshold int
}

func NewReportService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	departmentRepo employee.DepartmentRepository,
	reportCache cache.ReportCache,
	cfg Config,
) report.ReportService {
	if reportCache == nil {
		reportCache = cache.NopReportCache{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	threshold := cfg.ChronicLateThreshold
	if threshold <= 0 {
		threshold = aggregate.DefaultChronicLateThreshold
	}
	return &ReportServiceImpl{
		attendanceRepo:   attendanceRepo,
		employeeRepo:     employeeRepo,
		departmentRepo:   departmentRepo,
		reportCache:      reportCache,
		loc:              loc,
		chronicThreshold: threshold,
	}
}

// cached serves key from the report cache, building and storing it on a miss.
// The report is stored under the generation seen before building, so a write that
// invalidates the cache meanwhile leaves it unreachable. Cache failures are logged
// and never fail the report.
func cached[T any](ctx context.Context, c cache.ReportCache, key string, build func() (T, error)) (T, error) {
	var out T
	gen, found, err := c.Get(ctx, key, &out)
	if err != nil {
		slog.Warn("failed to read report cache", "key", key, "error", err)
	} else if found {
		return out, nil
	}
	store := err == nil

	out, err = build()
	if err != nil {
		return out, err
	}

	if store {
		if err := c.Set(ctx, gen, key, out); err != nil {
			slog.Warn("failed to write report cache", "key", key, "error", err)
		}
	}
	return out, nil
}

func toBuckets(buckets []aggregate.Bucket) []report.Bucket {
	out := make([]report.Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, report.Bucket{Name: b.Label, Present: b.Present, Absent: b.Absent, Late: b.Late})
	}
	return out
}

func (s *ReportServiceImpl) records(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	records, err := s.attendanceRepo.QueryRange(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance %s: %w", filter.Range, err)
	}
	return records, nil
}

// Overview implements report.ReportService.
func (s *ReportServiceImpl) Overview(ctx context.Context, req report.OverviewRequest) (report.OverviewReport, error) {
	if err := req.Validate(); err != nil {
		return report.OverviewReport{}, err
	}

	today := calendar.DayOf(req.Now, s.loc)
	rng, unit := calendar.TrailingDays(today, 7), aggregate.UnitDay
	if req.Period == report.PeriodMonthly {
		rng, unit = calendar.TrailingDays(today, 28), aggregate.UnitWeek
	}

	key := fmt.Sprintf("overview:%s:%s", req.Period, today)
	return cached(ctx, s.reportCache, key, func() (report.OverviewReport, error) {
		records, err := s.records(ctx, attendance.RecordFilter{Range: rng})
		if err != nil {
			return report.OverviewReport{}, err
		}

		buckets, err := aggregate.BucketBy(records, unit, rng)
		if err != nil {
			return report.OverviewReport{}, err
		}

		return report.OverviewReport{
			Period:    req.Period,
			StartDate: rng.Start.String(),
			EndDate:   rng.End.String(),
			Buckets:   toBuckets(buckets),
		}, nil
	})
}

// Summary implements report.ReportService.
func (s *ReportServiceImpl) Summary(ctx context.Context, req report.SummaryRequest) (report.SummaryReport, error) {
	if err := req.Validate(); err != nil {
		return report.SummaryReport{}, err
	}

	rng, err := calendar.ParseRange(req.StartDate, req.EndDate, calendar.MonthOf(calendar.DayOf(req.Now, s.loc)))
	if err != nil {
		return report.SummaryReport{}, err
	}

	rep, err := cached(ctx, s.reportCache, "summary:"+rng.String(), func() (report.SummaryReport, error) {
		var (
			records     []attendance.Record
			employees   []employee.Employee
			departments []employee.Department
		)

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			records, err = s.records(gCtx, attendance.RecordFilter{Range: rng})
			return err
		})

		g.Go(func() error {
			var err error
			employees, err = s.employeeRepo.List(gCtx, employee.EmployeeFilter{})
			if err != nil {
				return fmt.Errorf("failed to list employees: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			var err error
			departments, err = s.departmentRepo.List(gCtx)
			if err != nil {
				return fmt.Errorf("failed to list departments: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return report.SummaryReport{}, err
		}

		counts := aggregate.Tally(records)

		perfect, err := aggregate.PerfectAttendance(records, employee.IDs(employees), rng)
		if err != nil {
			return report.SummaryReport{}, err
		}

		chronic, err := aggregate.ChronicLateness(records, rng, s.chronicThreshold)
		if err != nil {
			return report.SummaryReport{}, err
		}

		headcount := make(map[string]int)
		for _, e := range employees {
			if e.DepartmentID != nil {
				headcount[*e.DepartmentID]++
			}
		}

		rates := make([]report.DepartmentRate, 0, len(departments))
		for _, d := range departments {
			rate, err := aggregate.DepartmentRate(records, d.ID, rng)
			if err != nil {
				return report.SummaryReport{}, err
			}
			rates = append(rates, report.DepartmentRate{
				DepartmentID:   d.ID,
				DepartmentName: d.Name,
				EmployeeCount:  headcount[d.ID],
				AttendanceRate: rate,
			})
		}

		return report.SummaryReport{
			StartDate:      rng.Start.String(),
			EndDate:        rng.End.String(),
			TotalEmployees: len(employees),
			Totals: report.StatusTotals{
				Present:  counts.Present,
				Absent:   counts.Absent,
				Late:     counts.Late,
				HalfDays: counts.HalfDay,
				Total:    counts.Total,
			},
			AttendanceRate:    counts.Rate(),
			PerfectAttendance: perfect,
			ChronicLateness:   chronic,
			Departments:       rates,
		}, nil
	})
	if err != nil {
		return report.SummaryReport{}, err
	}

	rep.GeneratedAt = req.Now.In(s.loc).Format(time.RFC3339)
	return rep, nil
}

func (s *ReportServiceImpl) getEmployee(ctx context.Context, id string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format(time.RFC3339)
	return &format
}

// Employee implements report.ReportService.
func (s *ReportServiceImpl) Employee(ctx context.Context, req report.EmployeeReportRequest) (report.EmployeeReport, error) {
	if err := req.Validate(); err != nil {
		return report.EmployeeReport{}, err
	}

	rng, err := calendar.ParseRange(req.StartDate, req.EndDate, calendar.MonthOf(calendar.DayOf(req.Now, s.loc)))
	if err != nil {
		return report.EmployeeReport{}, err
	}

	key := fmt.Sprintf("employee:%s:%s", req.EmployeeID, rng)
	return cached(ctx, s.reportCache, key, func() (report.EmployeeReport, error) {
		var (
			emp     employee.Employee
			records []attendance.Record
		)

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			emp, err = s.getEmployee(gCtx, req.EmployeeID)
			return err
		})

		g.Go(func() error {
			var err error
			records, err = s.records(gCtx, attendance.RecordFilter{EmployeeID: &req.EmployeeID, Range: rng})
			return err
		})

		if err := g.Wait(); err != nil {
			return report.EmployeeReport{}, err
		}

		info := report.EmployeeInfo{
			ID:             emp.ID,
			Name:           emp.Name,
			Email:          emp.Email,
			DepartmentID:   emp.DepartmentID,
			DepartmentName: emp.DepartmentName,
		}
		if info.DepartmentName == nil && emp.DepartmentID != nil {
			if dep, err := s.departmentRepo.GetByID(ctx, *emp.DepartmentID); err == nil {
				info.DepartmentName = &dep.Name
			}
		}

		weekly, err := aggregate.WeeklyBreakdown(records, rng)
		if err != nil {
			return report.EmployeeReport{}, err
		}

		counts := aggregate.Tally(records)
		work := aggregate.WorkSummary(records)

		logs := make([]report.DailyLog, 0, len(records))
		for _, r := range records {
			log := report.DailyLog{
				Date:      r.Day.String(),
				DayOfWeek: r.Day.Weekday().String(),
				Status:    string(r.Status),
				CheckIn:   timePtrToString(r.CheckIn, s.loc),
				CheckOut:  timePtrToString(r.CheckOut, s.loc),
				Notes:     r.Notes,
			}
			if hours, ok := aggregate.WorkHours(r); ok {
				h := hours.InexactFloat64()
				log.WorkingHours = &h
			}
			logs = append(logs, log)
		}

		return report.EmployeeReport{
			Employee:  info,
			StartDate: rng.Start.String(),
			EndDate:   rng.End.String(),
			Weekly:    toBuckets(weekly),
			Summary: report.EmployeeSummary{
				Present:        counts.Present,
				Absent:         counts.Absent,
				Late:           counts.Late,
				HalfDays:       counts.HalfDay,
				TotalDays:      counts.Total,
				AttendanceRate: counts.Rate(),
			},
			WorkHours: report.WorkHours{
				TotalHours:      work.TotalHours.InexactFloat64(),
				AverageHours:    work.AverageHours.InexactFloat64(),
				Sessions:        work.Sessions,
				OpenSessions:    work.OpenSessions,
				InvalidSessions: work.InvalidSessions,
			},
			DailyLogs: logs,
		}, nil
	})
}

// Department implements report.ReportService.
func (s *ReportServiceImpl) Department(ctx context.Context, req report.DepartmentReportRequest) (report.DepartmentReport, error) {
	if err := req.Validate(); err != nil {
		return report.DepartmentReport{}, err
	}

	today := calendar.DayOf(req.Now, s.loc)
	months := calendar.TrailingMonths(today, trendMonths)
	current, previous := months[len(months)-1], months[len(months)-2]
	span := calendar.Range{Start: months[0].Start, End: current.End}

	key := fmt.Sprintf("department:%s:%d-%02d", req.DepartmentID, today.Year, today.Month)
	return cached(ctx, s.reportCache, key, func() (report.DepartmentReport, error) {
		var (
			dep       employee.Department
			employees []employee.Employee
			records   []attendance.Record
		)

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			dep, err = s.departmentRepo.GetByID(gCtx, req.DepartmentID)
			if err != nil {
				if errors.Is(err, employee.ErrDepartmentNotFound) {
					return employee.ErrDepartmentNotFound
				}
				return fmt.Errorf("failed to get department: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			var err error
			employees, err = s.employeeRepo.List(gCtx, employee.EmployeeFilter{DepartmentID: &req.DepartmentID})
			if err != nil {
				return fmt.Errorf("failed to list employees: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			var err error
			records, err = s.records(gCtx, attendance.RecordFilter{DepartmentID: &req.DepartmentID, Range: span})
			return err
		})

		if err := g.Wait(); err != nil {
			return report.DepartmentReport{}, err
		}

		trend := aggregate.MonthlyTrend(records, months)

		perfect, err := aggregate.PerfectAttendance(records, employee.IDs(employees), current)
		if err != nil {
			return report.DepartmentReport{}, err
		}

		currentRate := aggregate.Rate(aggregate.FilterRange(records, current))
		previousRate := aggregate.Rate(aggregate.FilterRange(records, previous))

		points := make([]report.TrendPoint, 0, len(trend))
		for _, p := range trend {
			points = append(points, report.TrendPoint{Month: p.Month, Rate: p.Rate})
		}

		return report.DepartmentReport{
			DepartmentID:      dep.ID,
			DepartmentName:    dep.Name,
			Month:             fmt.Sprintf("%d-%02d", today.Year, today.Month),
			EmployeeCount:     len(employees),
			AttendanceRate:    currentRate,
			PerfectAttendance: perfect,
			Improvement:       aggregate.Improvement(currentRate, previousRate),
			Trend:             points,
		}, nil
	})
}

// EmployeeStats implements report.ReportService.
func (s *ReportServiceImpl) EmployeeStats(ctx context.Context, req report.EmployeeStatsRequest) (report.EmployeeStats, error) {
	if err := req.Validate(); err != nil {
		return report.EmployeeStats{}, err
	}

	today := calendar.DayOf(req.Now, s.loc)
	year, month := calendar.YearOf(today), calendar.MonthOf(today)

	key := fmt.Sprintf("employee-stats:%s:%s", req.EmployeeID, today)
	return cached(ctx, s.reportCache, key, func() (report.EmployeeStats, error) {
		if _, err := s.getEmployee(ctx, req.EmployeeID); err != nil {
			return report.EmployeeStats{}, err
		}

		records, err := s.records(ctx, attendance.RecordFilter{EmployeeID: &req.EmployeeID, Range: year})
		if err != nil {
			return report.EmployeeStats{}, err
		}

		yearly := aggregate.Tally(records)
		return report.EmployeeStats{
			EmployeeID:                  req.EmployeeID,
			Year:                        today.Year,
			YearlyAttendancePercentage:  yearly.Rate(),
			MonthlyAttendancePercentage: aggregate.Rate(aggregate.FilterRange(records, month)),
			PresentDays:                 yearly.Present + yearly.Late,
			AbsentDays:                  yearly.Absent,
			TotalDays:                   yearly.Total,
		}, nil
	})
}

// Daily implements report.ReportService.
func (s *ReportServiceImpl) Daily(ctx context.Context, req report.DailyRequest) (report.DailyStats, error) {
	if err := req.Validate(); err != nil {
		return report.DailyStats{}, err
	}

	today := calendar.DayOf(req.Now, s.loc)

	return cached(ctx, s.reportCache, "daily:"+today.String(), func() (report.DailyStats, error) {
		var (
			allTime   []attendance.Record
			employees int64
		)

		g, gCtx := errgroup.WithContext(ctx)

		g.Go(func() error {
			var err error
			allTime, err = s.records(gCtx, attendance.RecordFilter{Range: calendar.Range{Start: firstDay, End: today}})
			return err
		})

		g.Go(func() error {
			var err error
			employees, err = s.employeeRepo.Count(gCtx, employee.EmployeeFilter{})
			if err != nil {
				return fmt.Errorf("failed to count employees: %w", err)
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return report.DailyStats{}, err
		}

		todays := aggregate.Tally(aggregate.FilterRange(allTime, calendar.Range{Start: today, End: today}))
		return report.DailyStats{
			Date:           today.String(),
			Present:        todays.Present,
			Absent:         todays.Absent,
			Late:           todays.Late,
			Rate:           aggregate.Rate(allTime),
			TotalEmployees: int(employees),
		}, nil
	})
}

// ExportSummary implements report.ReportService.
func (s *ReportServiceImpl) ExportSummary(ctx context.Context, req report.SummaryRequest, w io.Writer) error {
	rep, err := s.Summary(ctx, req)
	if err != nil {
		return err
	}

	f, err := export.SummaryWorkbook(rep)
	if err != nil {
		return fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}
	return export.Write(f, w)
}

// ExportEmployee implements report.ReportService.
func (s *ReportServiceImpl) ExportEmployee(ctx context.Context, req report.EmployeeReportRequest, w io.Writer) error {
	rep, err := s.Employee(ctx, req)
	if err != nil {
		return err
	}

	f, err := export.EmployeeWorkbook(rep)
	if err != nil {
		return fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}
	return export.Write(f, w)
}
