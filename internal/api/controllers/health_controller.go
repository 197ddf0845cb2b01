package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"alumni/pkg/utils"
)

// Pinger is satisfied by the database handle and the Redis token store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	checks map[string]Pinger
}

func NewHealthController(checks map[string]Pinger) *HealthController {
	return &HealthController{checks: checks}
}

// Health godoc
// @Summary Liveness and dependency check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
			deps[name] = "down"
			utils.Logger(c).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			continue
		}
		deps[name] = "up"
	}

	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}
