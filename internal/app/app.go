// Package app wires stores, caches and services from the configuration. It is shared
// by the API server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/cmlabs-hris/presence-backend-go/internal/config"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/presence-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
	reportService "github.com/cmlabs-hris/presence-backend-go/internal/service/report"
)

type App struct {
	Config     *config.Config
	JWT        jwt.Service
	Attendance attendance.AttendanceService
	Reports    report.ReportService

	db  *database.DB
	rdb *redis.Client
}

type stores struct {
	attendance  attendance.AttendanceRepository
	employees   employee.EmployeeRepository
	departments employee.DepartmentRepository
}

// New connects the configured backends and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	var s stores
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on exit")
		seed, err := loadDirectory(cfg.Database.SeedFile)
		if err != nil {
			return nil, err
		}
		dir := memory.NewDirectory()
		dir.Seed(seed.Departments, seed.Employees)
		slog.Info("employee directory loaded", "departments", len(seed.Departments), "employees", len(seed.Employees))
		s = stores{
			attendance:  memory.NewAttendanceRepository(dir.Employees()),
			employees:   dir.Employees(),
			departments: dir.Departments(),
		}
	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		if cfg.Database.ApplySchema {
			if err := postgresql.EnsureSchema(ctx, db); err != nil {
				a.Close()
				return nil, err
			}
		}

		s = stores{
			attendance:  postgresql.NewAttendanceRepository(db),
			employees:   postgresql.NewEmployeeRepository(db),
			departments: postgresql.NewDepartmentRepository(db),
		}
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.rdb = rdb
	} else {
		slog.Info("redis not configured, report cache and reset lock disabled")
	}

	reportCache := cache.NewReportCache(a.rdb, cfg.Redis.KeyPrefix+":reports", cfg.Redis.CacheTTL)
	locker := cache.NewLocker(a.rdb, cfg.Redis.KeyPrefix+":locks")
	loc := cfg.App.Location()

	a.JWT = jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	a.Attendance = attendanceService.NewAttendanceService(s.attendance, s.employees, reportCache, locker, attendanceService.Config{
		Location:         loc,
		MaxSessionLength: cfg.Attendance.MaxSessionLength,
	})
	a.Reports = reportService.NewReportService(s.attendance, s.employees, s.departments, reportCache, reportService.Config{
		Location:             loc,
		ChronicLateThreshold: cfg.Attendance.ChronicLateThreshold,
	})

	return a, nil
}

func loadDirectory(path string) (fixtures.DirectorySeed, error) {
	if path == "" {
		return fixtures.DefaultDirectory(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fixtures.DirectorySeed{}, fmt.Errorf("failed to open DB_SEED_FILE: %w", err)
	}
	defer f.Close()

	seed, err := fixtures.LoadDirectory(f)
	if err != nil {
		return fixtures.DirectorySeed{}, fmt.Errorf("invalid DB_SEED_FILE %s: %w", path, err)
	}
	return seed, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
