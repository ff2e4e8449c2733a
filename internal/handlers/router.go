package handlers

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/urbanpulse/report-server/internal/events"
	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/middleware"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var openapiYAML []byte

const requestTimeout = 30 * time.Second

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Reports    *services.ReportService
	Activity   *services.ActivityService
	Users      *services.UserService
	Categories *services.CategoryService
	Digest     *services.DigestService
	Sessions   *filter.Sessions
	Broker     events.Broker

	Backend        string
	JWTSecret      string
	AllowedOrigins []string
	RateLimitRPM   int
	// Stop ends background work owned by middleware, such as rate limit cleanup.
	Stop <-chan struct{}

	Logger *zap.Logger
}

// NewRouter wires middleware and every API endpoint.
func NewRouter(d Deps) http.Handler {
	sugar := d.Logger.Sugar()

	reportHandler := NewReportHandler(d.Reports, d.Activity, sugar)
	filterHandler := NewFilterHandler(d.Sessions, sugar)
	analyticsHandler := NewAnalyticsHandler(d.Reports, d.Sessions, sugar)
	exportHandler := NewExportHandler(d.Reports, d.Activity, d.Sessions, sugar)
	activityHandler := NewActivityHandler(d.Activity, sugar)
	integrityHandler := NewIntegrityHandler(d.Digest, sugar)
	healthHandler := NewHealthHandler(d.Reports, d.Backend, d.Digest.Root, sugar)
	authHandler := NewAuthHandler(d.Users, d.JWTSecret, sugar)
	adminHandler := NewAdminHandler(d.Users, d.Categories, sugar)
	streamHandler := NewStreamHandler(d.Broker, sugar)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.SessionHeader},
		ExposedHeaders:   []string{"X-Request-ID", middleware.SessionHeader, "Content-Disposition", "X-Export-Status"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if d.RateLimitRPM > 0 {
		r.Use(middleware.RateLimit(d.RateLimitRPM, d.Stop))
	}
	r.Use(middleware.Session())

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(openapiYAML)
	})
	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		// Live updates stay open past the request timeout
		r.Get("/reports/stream", streamHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.Get("/health", healthHandler.Check)
			r.Get("/health/ready", healthHandler.Ready)
			r.Post("/auth/login", authHandler.Login)
			r.Get("/categories", adminHandler.ListCategories)

			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.OptionalAuth(d.JWTSecret))
				r.Get("/", reportHandler.List)
				r.Post("/", reportHandler.Create)
				r.Get("/{id}", reportHandler.Get)
				r.Get("/{id}/activity", reportHandler.Activity)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAuth(d.JWTSecret))
					r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleModerator))
					r.Patch("/{id}", reportHandler.Update)
					r.Delete("/{id}", reportHandler.Delete)
				})
			})

			r.Route("/filter", func(r chi.Router) {
				r.Get("/", filterHandler.Get)
				r.Patch("/", filterHandler.Patch)
				r.Put("/view", filterHandler.SetView)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/timeseries", analyticsHandler.TimeSeries)
				r.Get("/categories", analyticsHandler.Categories)
				r.Get("/hotspots", analyticsHandler.Hotspots)
				r.Get("/summary", analyticsHandler.Summary)
			})

			r.With(middleware.OptionalAuth(d.JWTSecret)).Get("/export/{file}", exportHandler.Export)

			r.Route("/activity", func(r chi.Router) {
				r.Get("/", activityHandler.Query)
				r.Get("/recent", activityHandler.Recent)
				r.Get("/integrity/root", integrityHandler.GetRoot)
				r.Get("/integrity/proof/{index}", integrityHandler.GetProof)
				r.Post("/integrity/verify", integrityHandler.Verify)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAuth(d.JWTSecret))
				r.Use(middleware.RequireRole(models.RoleAdmin))

				r.Get("/users", adminHandler.ListUsers)
				r.Post("/users", adminHandler.CreateUser)
				r.Get("/users/{id}", adminHandler.GetUser)
				r.Put("/users/{id}", adminHandler.UpdateUser)
				r.Delete("/users/{id}", adminHandler.DeleteUser)

				r.Get("/categories", adminHandler.ListCategories)
				r.Post("/categories", adminHandler.CreateCategory)
				r.Put("/categories/{id}", adminHandler.UpdateCategory)
				r.Delete("/categories/{id}", adminHandler.DeleteCategory)
			})
		})
	})

	return r
}
