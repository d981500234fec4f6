// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calebh42/rankwatch/internal/config"
	"github.com/calebh42/rankwatch/internal/metrics"
)

// staticDirs are the resource subdirectories all mounted at the web root,
// searched in order.
var staticDirs = []string{"html", "js", "icon"}

// Router assembles the admin HTTP handler.
type Router struct {
	handler      *Handler
	resourcePath string
}

// NewRouter creates a router over the live configuration. resourcePath
// points at the dashboard assets; empty disables static serving.
func NewRouter(store *config.Store, resourcePath string) *Router {
	return &Router{handler: NewHandler(store), resourcePath: resourcePath}
}

// Setup builds the chi handler: admin endpoints, health, metrics and the
// static dashboard.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(120, time.Minute))
		r.Use(metricsMiddleware)

		r.Get("/health", router.handler.Health)

		// Strictest limit on login: it is the password oracle.
		r.With(httprate.LimitByIP(10, time.Minute)).
			Get("/login", router.handler.withAuth(router.handler.Login))

		r.Get("/get_config", router.handler.withAuth(router.handler.GetConfig))
		r.Get("/update_config", router.handler.withAuth(router.handler.UpdateConfig))
	})

	r.Handle("/metrics", promhttp.Handler())

	if router.resourcePath != "" {
		r.Get("/*", router.serveStatic)
	}

	return r
}

// serveStatic serves the dashboard assets. The html, js and icon resource
// directories are all mounted at the web root; the first hit wins. The bare
// root falls back to index.html.
func (router *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(r.URL.Path)
	if name == "/" || name == "." {
		name = "/index.html"
	}

	for _, dir := range staticDirs {
		candidate := filepath.Join(router.resourcePath, dir, filepath.FromSlash(name))
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		http.ServeFile(w, r, candidate)
		return
	}

	http.NotFound(w, r)
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.ObserveAPIRequest(r.Method, endpoint, ww.Status(), time.Since(start))
	})
}
