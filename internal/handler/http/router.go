package http

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
)

type RouterOptions struct {
	Env            string
	Version        string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Location       *time.Location
	Now            func() time.Time
	LogLevel       slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, attendanceHandler AttendanceHandler, reportHandler ReportHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "presence"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))
	r.Use(chiMiddleware.Timeout(timeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/server-time", ServerTime(opts.Now, loc))

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/attendance", func(r chi.Router) {
				// Self service
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceCreate))
					r.Post("/check-in", attendanceHandler.CheckIn)
					r.Post("/check-out", attendanceHandler.CheckOut)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewOwn))
					r.Get("/today", attendanceHandler.Today)
					r.Get("/my", attendanceHandler.GetMyAttendance)
					r.Get("/{id}", attendanceHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceViewAll))
					r.Get("/", attendanceHandler.List)
				})

				// Corrections
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceManage))
					r.Post("/manual", attendanceHandler.Manual)
					r.Put("/{id}", attendanceHandler.Update)
					r.Delete("/employees/{employeeID}/days/{date}", attendanceHandler.ResetDay)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceResetAll))
					r.Post("/reset", attendanceHandler.ResetAll)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/employee-stats", reportHandler.EmployeeStats)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionReportsView))
					r.Get("/overview", reportHandler.Overview)
					r.Get("/summary", reportHandler.Summary)
					r.Get("/summary/export", reportHandler.ExportSummary)
					r.Get("/employee", reportHandler.Employee)
					r.Get("/employee/export", reportHandler.ExportEmployee)
					r.Get("/department", reportHandler.Department)
					r.Get("/daily", reportHandler.Daily)
				})
			})
		})
	})
	return r
}
