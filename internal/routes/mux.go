// Package routes
package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(app *App) http.Handler {
	mux := http.NewServeMux()

	// health check
	mux.HandleFunc("/healthz", app.healthHandler)

	// metrics
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
