package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/automation"
	"github.com/seo-optimizer/opportunity/stats"
)

const minAPIKeyLength = 10

// Where an automation response came from
const (
	sourceAutomation = "automation"
	sourceFallback   = "fallback"
)

func (s *Server) runAnalysis(c *gin.Context) {
	log.Printf("Analysis request received from: %s\n", c.ClientIP())

	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	result, err := s.Analyzer.Run(c.Request.Context(), req)
	if err != nil {
		if analysis.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		log.Printf("Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Analysis failed",
			"details": err.Error(),
		})
		return
	}

	if s.Statistics != nil {
		s.Statistics.TrackKeywords(result.Config.Data)
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) validateAPIKey(c *gin.Context) {
	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	key := strings.TrimSpace(body.APIKey)
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "API key is required",
		})
		return
	}
	if len(key) <= minAPIKeyLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid API key format",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "API key format is valid",
	})
}

func (s *Server) runAutomation(c *gin.Context) {
	log.Printf("Automation request received from: %s\n", c.ClientIP())

	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		req.APIKey = s.ServerKey
	}

	req, err := analysis.Normalize(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	// The key travels through the child's environment, never its arguments.
	config := req
	config.APIKey = ""

	out, err := s.Runner.Run(c.Request.Context(), config, "VALUE_SERP_API_KEY="+req.APIKey)
	if s.Storage != nil {
		s.Storage.RecordAutomation(err != nil)
	}
	if err != nil {
		status := gin.H{"error": "Automation failed", "details": err.Error()}
		if errors.Is(err, automation.ErrTimeout) {
			status["error"] = "Automation timed out"
		}
		c.JSON(http.StatusInternalServerError, status)
		return
	}

	source := sourceAutomation
	var result analysis.Result
	if err := json.Unmarshal(out.Stdout, &result); err != nil || result.AnalysisID == "" {
		log.Printf("[AUTOMATION] Output is not an analysis result, using fallback data")
		fallback, ferr := s.Fallback.Run(c.Request.Context(), req)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Automation failed",
				"details": ferr.Error(),
			})
			return
		}
		result = *fallback
		source = sourceFallback
	}

	if s.Statistics != nil {
		s.Statistics.TrackKeywords(req.Data)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"source":        source,
		"executionTime": out.Duration.Round(time.Millisecond).String(),
		"results":       result,
	})
}

func (s *Server) statistics(c *gin.Context) {
	if s.Statistics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.Statistics.GetStatistics())
}

type monthEntry struct {
	Month string `json:"month"`
	stats.MonthlyStats
}

func (s *Server) monthlyStatistics(c *gin.Context) {
	months := []monthEntry{}
	if s.Storage != nil {
		for _, m := range s.Storage.GetAllMonths() {
			if ms, ok := s.Storage.GetMonthlyStats(m); ok {
				months = append(months, monthEntry{Month: m, MonthlyStats: ms})
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"months": months,
	})
}
