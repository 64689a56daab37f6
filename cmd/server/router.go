package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tvhook/internal/config"
	tradehttp "tvhook/internal/trade/transport/http"
	"tvhook/pkg/middleware"
)

func newRouter(cfg *config.Config, h *tradehttp.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// Forwarded headers are client-controlled unless a proxy rewrites them,
	// and the rate limiter keys on the resulting RemoteAddr.
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.MetricsMiddleware)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	var webhookMW []func(http.Handler) http.Handler
	if cfg.RateLimitPerMinute > 0 {
		webhookMW = append(webhookMW, middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware)
	}
	h.Register(r, cfg.AppSecret, cfg.MaxBodyBytes, webhookMW...)

	if cfg.MetricsUser != "" {
		r.With(middleware.BasicAuth(cfg.MetricsUser, cfg.MetricsPassword)).Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}
