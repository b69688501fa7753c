package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Catalog is everything the routes need from the catalog service.
type Catalog interface {
	ActorService
	MovieService
	Pinger
}

// RouterConfig carries everything NewRouter wires together. Limiter and
// Realtime are optional.
type RouterConfig struct {
	Catalog        Catalog
	Backend        string
	Logger         zerolog.Logger
	AllowedOrigins []string
	Limiter        *IPRateLimiter
	Realtime       http.HandlerFunc
	VerboseErrors  bool
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	ew := errorWriter{Verbose: cfg.VerboseErrors}
	actorHandler := &ActorHandler{Catalog: cfg.Catalog, errorWriter: ew}
	movieHandler := &MovieHandler{Catalog: cfg.Catalog, errorWriter: ew}
	healthHandler := &HealthHandler{Store: cfg.Catalog, Backend: cfg.Backend}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(corsHandler.Handler)
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Handler)
		}
		r.Use(Metrics)

		r.Route("/actors", func(r chi.Router) {
			r.Post("/", actorHandler.CreateActor)
			r.Get("/", actorHandler.ListActors)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", actorHandler.GetActor)
				r.Put("/", actorHandler.UpdateActor)
				r.Delete("/", actorHandler.DeleteActor)
			})
		})

		r.Route("/movies", func(r chi.Router) {
			r.Post("/", movieHandler.CreateMovie)
			r.Get("/", movieHandler.ListMovies)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", movieHandler.GetMovie)
				r.Put("/", movieHandler.UpdateMovie)
				r.Delete("/", movieHandler.DeleteMovie)
			})
		})

		r.Get("/status", healthHandler.Status)
	})

	r.Handle("/metrics", promhttp.Handler())

	// long lived, kept out of the request timeout
	if cfg.Realtime != nil {
		r.Get("/ws", cfg.Realtime)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
