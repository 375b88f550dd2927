package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/opportunity/logging"
)

const saveEvery = 100

// analysisPaths are the routes whose latency and failures are tracked
var analysisPaths = map[string]bool{
	"/api/run-analysis":   true,
	"/api/run-automation": true,
}

// Stats tracks visitors, analysis load times and failures
func Stats(stats *logging.Statistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		total := stats.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.Method == http.MethodPost && analysisPaths[c.Request.URL.Path] {
			loadTime := float64(time.Since(start).Milliseconds())
			stats.TrackAnalysis(loadTime, c.Writer.Status() >= http.StatusBadRequest)
		}

		if total%saveEvery == 0 {
			go func() {
				if err := stats.Save(); err != nil {
					log.Printf("Error saving statistics: %v", err)
				}
			}()
		}
	}
}
