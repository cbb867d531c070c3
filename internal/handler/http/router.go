package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Attendance   AttendanceHandler
	OfflineQueue OfflineQueueHandler
	Shift        ShiftHandler
	Correction   CorrectionHandler
	Exception    ExceptionHandler
	Lateness     LatenessHandler
	Notification NotificationHandler
	Admin        AdminHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(JWTService jwt.Service, h Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/punch", h.Attendance.RecordPunch)
				r.Get("/{id}", h.Attendance.Get)
				r.Get("/employees/{employeeID}/days/{date}", h.Attendance.GetEmployeeDay)
			})

			// Kiosks upload punches captured while offline
			r.Route("/devices/{deviceID}", func(r chi.Router) {
				r.Use(middleware.RequireRoles(jwt.RoleKiosk, jwt.RoleAdmin))
				r.Post("/punches", h.OfflineQueue.Enqueue)
			})

			r.Route("/shift-types", func(r chi.Router) {
				r.Get("/", h.Shift.ListShiftTypes)
				r.Get("/{id}", h.Shift.GetShiftType)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", h.Shift.CreateShiftType)
				})
			})

			r.Route("/shift-assignments", func(r chi.Router) {
				r.Use(middleware.RequireReviewer)
				r.Post("/", h.Shift.CreateAssignments)
				r.Post("/{id}/transition", h.Shift.TransitionAssignment)
				r.Get("/employees/{employeeID}/active", h.Shift.ActiveAssignment)
			})

			r.Route("/corrections", func(r chi.Router) {
				r.Post("/", h.Correction.Submit)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Correction.Get)
					r.Post("/cancel", h.Correction.Cancel)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireReviewer)
						r.Post("/approve", h.Correction.Approve)
						r.Post("/reject", h.Correction.Reject)
						r.Get("/audit", h.Correction.AuditTrail)
					})
				})
			})

			r.Route("/exceptions", func(r chi.Router) {
				r.Use(middleware.RequireReviewer)
				r.Post("/", h.Exception.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Exception.Get)
					r.Post("/attach", h.Exception.Attach)
					r.Post("/process", h.Exception.Process)
					r.Get("/audit", h.Exception.AuditTrail)
				})
			})

			r.Route("/lateness", func(r chi.Router) {
				r.Use(middleware.RequireReviewer)
				r.Post("/detect", h.Lateness.Detect)
				r.Get("/departments/{departmentID}", h.Lateness.DepartmentReport)
			})

			r.With(middleware.RequireReviewer).Get("/notifications", h.Notification.ListRecent)

			// HR and admin only
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/payroll/sync", h.Admin.SyncPayroll)
				r.Post("/jobs/{name}/run", h.Admin.RunJob)

				r.Route("/offline-queues", func(r chi.Router) {
					r.Get("/", h.OfflineQueue.Status)
					r.Post("/process", h.OfflineQueue.Process)
					r.Get("/{deviceID}", h.OfflineQueue.DeviceStatus)
					r.Delete("/{deviceID}", h.OfflineQueue.Clear)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	return r
}
