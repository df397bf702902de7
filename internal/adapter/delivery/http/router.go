// Package http provides the HTTP delivery layer for the short link service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, validating input, and formatting responses.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vadimbarashkov/shortlink/docs"
)

// Options tunes the router. Zero values fall back to defaults.
type Options struct {
	// BaseURL is the public origin encoded into QR images.
	BaseURL string
	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration
	// QRSize is the default QR image edge in pixels.
	QRSize int
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the short link API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Get("/ping", handlePing)

	h := newURLHandler(urlUseCase, validator.New(), opts)

	r.Post("/shorten", h.shortenURL)
	r.Get("/check/{shortCode}", h.checkURL)
	r.Get("/stats/{shortCode}", h.getURLStats)
	r.Get("/qr/{shortCode}", h.getQRCode)

	r.Route("/urls", func(r chi.Router) {
		r.Get("/", h.listURLs)
		r.Delete("/{shortCode}", h.deactivateURL)
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
