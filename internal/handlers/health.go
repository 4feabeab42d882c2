package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/ongkir/fare-service/internal/database"
	"github.com/ongkir/fare-service/internal/providers"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string              `json:"status"`
	Database  string              `json:"database"`
	Pool      *database.PoolStats `json:"pool,omitempty"`
	Zones     int                 `json:"zones"`
	Providers []providers.Status  `json:"providers"`
}

// HealthCheck handles the health check endpoint. An open provider breaker
// only degrades the status since zone pricing still answers.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Providers: registry.Status(),
	}

	if engine == nil {
		response.Status = "starting"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Zones = len(engine.Zones())

	// Check database connection
	if database.Pool() != nil {
		err := database.Status(c.Request.Context())
		if err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
		if stats, ok := database.Stats(); ok {
			response.Pool = &stats
		}
	} else {
		response.Database = "not configured"
	}

	for _, p := range response.Providers {
		if p.State == gobreaker.StateOpen.String() {
			response.Status = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, response)
}
