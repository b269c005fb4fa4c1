package server

import (
	"net/http"

	"adnexus/internal/api"
	"adnexus/internal/bidder"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Bidder fleet health
// @Description  Pings every configured bidder host and reports per-host status.
// @Tags         system
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /bidders/health [get]
func BidderHealth(client *bidder.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses := map[string]string{}
		for host, err := range client.Ping(c.Request.Context()) {
			if err != nil {
				statuses[host] = err.Error()
				continue
			}
			statuses[host] = "ok"
		}

		c.JSON(http.StatusOK, statuses)
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
