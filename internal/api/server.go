// Package api serves the grouped catalog over HTTP: the hierarchy tree,
// single products, full-text search and extraction stats. The surface
// is read only; writes happen through the scraper and grouper CLIs.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/GadCoder/Ripley-Scrapper/internal/pricehistory"
	"github.com/GadCoder/Ripley-Scrapper/internal/ratelimit"
	"github.com/GadCoder/Ripley-Scrapper/internal/search"
	"github.com/GadCoder/Ripley-Scrapper/internal/store"
)

const apiVersion = "1.0.0"

// Options configure the API server. Store is required; Search and
// Prices degrade the matching endpoints when nil.
type Options struct {
	Store  *store.Store
	Search *search.SearchIndex
	Prices *pricehistory.Store
	Logger *slog.Logger

	// RequestsPerMinute caps traffic per client IP. Zero disables the
	// limiter.
	RequestsPerMinute int
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	store  *store.Store
	search *search.SearchIndex
	prices *pricehistory.Store
	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.RequestsPerMinute > 0 {
		limiter := ratelimit.New(float64(opts.RequestsPerMinute)/60, opts.RequestsPerMinute)
		router.Use(RateLimitMiddleware(limiter, logger))
	}

	humaConfig := huma.DefaultConfig("Ripley Catalog API", apiVersion)
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		store:  opts.Store,
		search: opts.Search,
		prices: opts.Prices,
		router: router,
		api:    api,
		logger: logger,
	}

	s.registerHealthRoutes()
	s.registerHierarchyRoutes()
	s.registerProductRoutes()
	s.registerSearchRoutes()
	s.registerStatsRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
