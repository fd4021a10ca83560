package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/medsync/scheduling/internal/schedule"
)

type RouterConfig struct {
	Store   *schedule.Store
	Logger  zerolog.Logger
	Env     string
	Version string
	// DataDir is probed by the readiness check.
	DataDir string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.DataDir, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/", serviceInfoHandler(cfg.Version))

	// Reference data for the booking UI
	r.Get("/api/doctors", doctorsHandler)
	r.Get("/api/visit-types", visitTypesHandler)
	r.Get("/api/statuses", statusesHandler)
	r.Get("/api/tags", tagsHandler)
	r.Get("/api/dates", datesHandler(cfg.Store))

	// Schedule reads
	r.Get("/api/schedule/{date}", getScheduleHandler(cfg.Store))
	r.Get("/api/schedule/{date}/available", availableSlotsHandler(cfg.Store))
	r.Get("/api/schedule/{date}/filtered", filteredScheduleHandler(cfg.Store))
	r.Get("/api/schedule/{date}/statistics", statisticsHandler(cfg.Store))

	// Appointment lifecycle
	r.Post("/api/appointments", bookAppointmentHandler(cfg.Store))
	r.Patch("/api/appointments/{date}/{time}", updateAppointmentHandler(cfg.Store))
	r.Delete("/api/appointments/{date}/{time}", cancelAppointmentHandler(cfg.Store))
	r.Post("/api/appointments/{date}/{time}/move", moveAppointmentHandler(cfg.Store))
	r.Post("/api/appointments/{date}/{time}/restore", restoreAppointmentHandler(cfg.Store))

	return r
}
