package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/wavepng/api/types"
)

// Get handles health check requests
// @Summary      Health check
// @Description  Reports server status and the envelope cache database connection
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Failure      503  {object}  types.HealthResponse
// @Router       /health [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := types.HealthResponse{
			Status:    types.StatusHealthy,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Database:  getDatabaseStatus(deps),
		}

		status := http.StatusOK
		if response.Database.Status == types.StatusUnhealthy {
			response.Status = types.StatusUnhealthy
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, response)
	}
}

// getDatabaseStatus returns the database connection status
func getDatabaseStatus(deps *types.Dependencies) types.DatabaseStatus {
	if deps == nil || deps.DB == nil || deps.DB.DB == nil {
		return types.DatabaseStatus{Status: "not configured"}
	}

	if err := deps.DB.HealthCheck(); err != nil {
		return types.DatabaseStatus{Status: types.StatusUnhealthy, Error: err.Error()}
	}

	return types.DatabaseStatus{Status: types.StatusHealthy}
}
