package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler handles the request to get analytics data
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.analytics.GetDashboardData())
}

// HealthCheckHandler provides a simple health check endpoint. The service is
// healthy even without a corpus; /api/status tells the two apart.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "imagination-concordance",
		"corpus_loaded": api.corpus.Loaded(),
		"records":       api.corpus.Len(),
		"sessions":      api.sessions.Count(),
		"timestamp":     fmt.Sprintf("%d", time.Now().Unix()),
	})
}
