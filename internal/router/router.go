package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/travelx-planner/internal/api/trip"
)

// Config contains dependencies needed for the router setup
type Config struct {
	TripHandler       *trip.HandlerImpl
	SessionMiddleware func(http.Handler) http.Handler
	AllowedOrigins    []string
}

// SetupRouter builds the API router. Server-wide middleware (request ID,
// logging, recovery) is applied in main before this router is mounted.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cfg.SessionMiddleware)

			r.Post("/trips/plan", cfg.TripHandler.PlanTrip)
			r.Get("/trips/plan", cfg.TripHandler.GetPlan)
			r.Delete("/trips/plan", cfg.TripHandler.ClearPlan)
		})
	})

	return r
}
