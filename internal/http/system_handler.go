package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var endpointIndex = map[string]map[string]string{
	"auth": {
		"register":     "POST /api/register",
		"login":        "POST /api/login",
		"current_user": "GET /api/current-user",
		"logout":       "POST /api/logout",
	},
	"invoices": {
		"list":   "GET /api/invoices",
		"create": "POST /api/invoices",
		"get":    "GET /api/invoices/<id>",
		"update": "PUT /api/invoices/<id>",
		"delete": "DELETE /api/invoices/<id>",
		"stats":  "GET /api/invoices/stats",
	},
}

// @Summary     Service index
// @Tags        system
// @Produce     json
// @Success     200  {object}  map[string]any
// @Router      / [get]
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	database := "PostgreSQL"
	if h.db == nil {
		database = "memory"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Invoice Management System API",
		"status":    "running",
		"database":  database,
		"endpoints": endpointIndex,
	})
}

// @Summary     Database health
// @Tags        system
// @Produce     json
// @Success     200  {object}  map[string]string
// @Failure     500  {object}  map[string]string
// @Router      /api/health [get]
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "unhealthy",
			"error":  "database unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}
