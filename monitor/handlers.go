package monitor

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/readflow/observability"
	"github.com/kbukum/readflow/pipeline"
	"github.com/kbukum/readflow/version"
)

// healthHandler aggregates component health. Unhealthy answers 503.
func healthHandler(service string, checker HealthChecker, stats StatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(service, version.Get().String())
		if stats != nil {
			sh.RunID = stats.RunID()
		}
		if checker != nil {
			for _, h := range checker(c.Request.Context()) {
				sh.AddComponent(h)
			}
		}

		status := http.StatusOK
		if !sh.Healthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}

type statsResponse struct {
	RunID     string               `json:"run_id,omitempty"`
	Timestamp string               `json:"timestamp"`
	Nodes     []pipeline.NodeStats `json:"nodes"`
}

func statsHandler(stats StatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := statsResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Nodes:     []pipeline.NodeStats{},
		}
		if stats != nil {
			resp.RunID = stats.RunID()
			resp.Nodes = stats.Stats()
		}
		if name := c.Query("node"); name != "" {
			resp.Nodes = filterNode(resp.Nodes, name)
			if len(resp.Nodes) == 0 {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown node " + name})
				return
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func filterNode(nodes []pipeline.NodeStats, name string) []pipeline.NodeStats {
	for _, n := range nodes {
		if n.Name == name {
			return []pipeline.NodeStats{n}
		}
	}
	return nil
}

func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
