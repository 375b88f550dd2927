package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/automation"
	"github.com/seo-optimizer/opportunity/logging"
	"github.com/seo-optimizer/opportunity/middleware"
	"github.com/seo-optimizer/opportunity/stats"
)

// Analyzer runs one analysis request
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// AutomationRunner runs the analysis in a child process
type AutomationRunner interface {
	Run(ctx context.Context, config interface{}, env ...string) (*automation.Output, error)
}

// Deps are the services the HTTP handlers use
type Deps struct {
	Analyzer      Analyzer
	Fallback      Analyzer // answers automation runs whose output is unusable
	Runner        AutomationRunner
	Statistics    *logging.Statistics
	Storage       *stats.Storage
	ServerKey     string
	AllowedOrigin string
}

type Server struct {
	Deps
}

func NewServer(d Deps) *Server {
	return &Server{Deps: d}
}

// Router builds the gin engine with middlewares and the /api routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORS(s.AllowedOrigin))
	if s.Statistics != nil {
		r.Use(middleware.Stats(s.Statistics))
	}

	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			log.Printf("Health check request received from: %s\n", c.ClientIP())
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		api.POST("/run-analysis", s.runAnalysis)
		api.POST("/validate-api-key", s.validateAPIKey)
		api.POST("/run-automation", s.runAutomation)

		api.GET("/statistics", s.statistics)
		api.GET("/statistics/monthly", s.monthlyStatistics)
	}

	return r
}
