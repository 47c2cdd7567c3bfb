// Package api serves the assessment service over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cardiorisk/cardiorisk/internal/model"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Service is the assessment flow the handlers call.
type Service interface {
	Assess(ctx context.Context, userID string, p model.PatientProfile) (*model.FinalReport, error)
	OverallInsight(ctx context.Context, userID string, diseases []model.DiseaseEstimate) (model.Insight, error)
	History(ctx context.Context, userID string, limit, offset int) ([]model.ReportRecord, error)
}

// Options configures NewRouter.
type Options struct {
	Service     Service
	Auth        AuthConfig
	CORSOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// StoreHealthy reports store reachability on /health when set.
	StoreHealthy func() bool
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) http.Handler {
	h := &handlers{svc: opts.Service, storeHealthy: opts.StoreHealthy}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(opts.Auth))
		r.Post("/predict", h.predict)
		r.Post("/overall-insight", h.overallInsight)
		r.Get("/reports", h.reports)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
