package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-admin/pkg/response"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	Checks map[string]Check
	Logger *logrus.Logger
}

func NewHealthHandler(checks map[string]Check, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Checks: checks, Logger: logger}
}

// Healthz GET /healthz
func (h *HealthHandler) Healthz(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "alive", nil)
}

// Readyz GET /readyz
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.Checks))
	ready := true
	for name, check := range h.Checks {
		if check == nil {
			continue
		}
		if err := check(ctx); err != nil {
			ready = false
			status[name] = err.Error()
			if h.Logger != nil {
				h.Logger.WithError(err).WithField("dependency", name).Warn("readiness check failed")
			}
			continue
		}
		status[name] = "ok"
	}
	if !ready {
		response.Error[any](c, http.StatusServiceUnavailable, "not ready", status)
		return
	}
	response.Success(c, http.StatusOK, status, "ready", nil)
}
