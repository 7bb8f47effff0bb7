package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/jobscribe-backend/internal/platform/envutil"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

// Pinger is any collaborator that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	log     *logger.Logger
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealthHandler(log *logger.Logger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		log:     log.With("service", "HealthHandler"),
		checks:  checks,
		timeout: envutil.Duration("HEALTHCHECK_TIMEOUT", 5*time.Second),
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.Warn("health check failed", "dependency", name, "error", err)
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
