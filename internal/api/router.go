package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/wonny/clusterfolio/internal/api/handlers"
	"github.com/wonny/clusterfolio/pkg/config"
	"github.com/wonny/clusterfolio/pkg/logger"
	"github.com/wonny/clusterfolio/pkg/redis"
)

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "clusterfolio",
	Subsystem: "api",
	Name:      "requests_total",
	Help:      "HTTP requests by route and status code.",
}, []string{"method", "route", "status"})

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(portfolioHandler *handlers.PortfolioHandler, cfg *config.Config, limiter *redis.RateLimiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Portfolio endpoints
	construct := rateLimitMiddleware(cfg.API, limiter, log)(
		timeoutMiddleware(cfg.API.RequestTimeout)(http.HandlerFunc(portfolioHandler.Construct)),
	)
	api.Handle("/portfolio/construct", construct).Methods("POST")

	api.HandleFunc("/portfolio/latest", portfolioHandler.GetLatest).Methods("GET")
	api.HandleFunc("/portfolio/runs/{run_id}", portfolioHandler.GetRun).Methods("GET")
	api.HandleFunc("/portfolio/runs/{run_id}/communities/{index}", portfolioHandler.GetCommunity).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "clusterfolio-api",
	})
}

// statusRecorder captures the response status for logs and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests and counts them per route
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					handlers.RespondError(w, http.StatusInternalServerError, handlers.CodeInternal, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware limits construct requests per process (token bucket)
// and across instances (Redis sliding window, skipped when Redis is off)
func rateLimitMiddleware(cfg config.APIConfig, shared *redis.RateLimiter, log *logger.Logger) mux.MiddlewareFunc {
	local := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	sharedCfg := redis.ConstructRateLimit(cfg.RateLimit, cfg.RateBurst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !local.Allow() {
				handlers.RespondError(w, http.StatusTooManyRequests, handlers.CodeRateLimited, "Too many construct requests")
				return
			}

			if shared != nil {
				allowed, _, err := shared.Allow(r.Context(), sharedCfg)
				if err != nil {
					// Redis 장애 시 로컬 리밋만 적용
					log.WithError(err).Warn("Shared rate limit check failed")
				} else if !allowed {
					handlers.RespondError(w, http.StatusTooManyRequests, handlers.CodeRateLimited, "Too many construct requests")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// timeoutMiddleware bounds the request context
func timeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
