package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/ntentasd/nostradamus-telemetry/pkg/utils"
)

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.ReplyJSON(w, http.StatusMethodNotAllowed, utils.Body{
			"error": "method not allowed",
		})
		return
	}

	body := utils.Body{
		"state":           "healthy",
		"queue_depth":     app.Pipeline.QueueDepth(),
		"sensors_running": app.Pipeline.SensorsRunning(),
		"flushed":         app.Pipeline.Flushed(),
	}

	status := http.StatusOK
	if app.Cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.Cache.Ping(ctx); err != nil {
			app.logger.Warn().Err(err).Msg("cache ping failed")
			body["state"] = "degraded"
			body["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			body["cache"] = "ok"
		}
	}

	if err := utils.ReplyJSON(w, status, body); err != nil {
		app.logger.Error().Err(err).Msg("failed to write health response")
	}
}
