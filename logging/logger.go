package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const statisticsFile = "statistics.json"

// Statistics represents the collected request statistics
type Statistics struct {
	UniqueVisitors   map[string]time.Time `json:"uniqueVisitors"`   // IP -> Last Visit Time
	TotalRequests    int                  `json:"totalRequests"`    // Every request seen by the middleware
	AnalysisRequests int                  `json:"analysisRequests"` // Analysis and automation requests
	ErrorCount       int                  `json:"errorCount"`       // Analysis requests answered with status >= 400
	PopularKeywords  map[string]int       `json:"popularKeywords"`  // keyword -> Count
	AverageLoadTime  float64              `json:"averageLoadTime"`  // milliseconds
	TotalLoadTime    float64              `json:"totalLoadTime"`
	RequestCount     int                  `json:"requestCount"`
	LastPersisted    time.Time            `json:"lastPersisted"`

	filePath string
	devMode  bool
	mutex    sync.RWMutex
}

// KeywordCount is one entry of the popular keyword ranking
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

var (
	stats *Statistics
	once  sync.Once
)

// Initialize creates or loads the process-wide statistics kept in dataDir.
// devMode exposes popular keywords in GetStatistics.
func Initialize(dataDir string, devMode bool) *Statistics {
	once.Do(func() {
		stats = New(dataDir, devMode)

		if err := stats.Load(); err != nil {
			fmt.Printf("Could not load existing statistics: %v\n", err)
		}
	})
	return stats
}

// New creates empty statistics persisted under dataDir
func New(dataDir string, devMode bool) *Statistics {
	return &Statistics{
		UniqueVisitors:  make(map[string]time.Time),
		PopularKeywords: make(map[string]int),
		LastPersisted:   time.Now(),
		filePath:        filepath.Join(dataDir, statisticsFile),
		devMode:         devMode,
	}
}

// TrackVisitor records a request from ip and returns the total request count
func (s *Statistics) TrackVisitor(ip string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.UniqueVisitors[ip] = time.Now()
	s.TotalRequests++
	return s.TotalRequests
}

// normalizeKeyword lower-cases and collapses whitespace
func normalizeKeyword(keyword string) string {
	return strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
}

// TrackKeywords counts the keywords or URLs submitted for analysis
func (s *Statistics) TrackKeywords(keywords []string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, k := range keywords {
		if k = normalizeKeyword(k); k != "" {
			s.PopularKeywords[k]++
		}
	}
}

// TrackAnalysis records an analysis request
func (s *Statistics) TrackAnalysis(loadTime float64, hasError bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.AnalysisRequests++
	if hasError {
		s.ErrorCount++
	}

	s.TotalLoadTime += loadTime
	s.RequestCount++
	s.AverageLoadTime = s.TotalLoadTime / float64(s.RequestCount)
}

// GetUniqueVisitorsCount returns the number of unique visitors in the last 24 hours
func (s *Statistics) GetUniqueVisitorsCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.uniqueVisitors()
}

func (s *Statistics) uniqueVisitors() int {
	count := 0
	cutoff := time.Now().Add(-24 * time.Hour)

	for _, lastVisit := range s.UniqueVisitors {
		if lastVisit.After(cutoff) {
			count++
		}
	}

	return count
}

// GetPopularKeywords returns the n most submitted keywords, most popular first
func (s *Statistics) GetPopularKeywords(n int) []KeywordCount {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.popularKeywords(n)
}

func (s *Statistics) popularKeywords(n int) []KeywordCount {
	ranked := make([]KeywordCount, 0, len(s.PopularKeywords))
	for k, c := range s.PopularKeywords {
		ranked = append(ranked, KeywordCount{Keyword: k, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Keyword < ranked[j].Keyword
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// GetErrorRate returns the error rate as a percentage
func (s *Statistics) GetErrorRate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.errorRate()
}

func (s *Statistics) errorRate() float64 {
	if s.AnalysisRequests == 0 {
		return 0
	}
	return (float64(s.ErrorCount) / float64(s.AnalysisRequests)) * 100
}

// Save persists the statistics to a file
func (s *Statistics) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.LastPersisted = time.Now()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("could not create statistics directory: %w", err)
	}

	file, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("could not create statistics file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(s); err != nil {
		return fmt.Errorf("could not encode statistics: %w", err)
	}

	return nil
}

// Load reads the statistics from a file
func (s *Statistics) Load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not open statistics file: %w", err)
	}
	defer file.Close()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := json.NewDecoder(file).Decode(s); err != nil {
		return fmt.Errorf("could not decode statistics: %w", err)
	}
	// Files written before the load time totals were persisted only carry
	// the average.
	if s.RequestCount == 0 && s.AnalysisRequests > 0 {
		s.RequestCount = s.AnalysisRequests
		s.TotalLoadTime = s.AverageLoadTime * float64(s.AnalysisRequests)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.PopularKeywords == nil {
		s.PopularKeywords = make(map[string]int)
	}

	return nil
}

// GetStatistics returns a snapshot. Popular keywords are only included in
// development mode.
func (s *Statistics) GetStatistics() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := map[string]interface{}{
		"uniqueVisitors24h": s.uniqueVisitors(),
		"totalRequests":     s.TotalRequests,
		"analysisRequests":  s.AnalysisRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}

	if s.devMode {
		out["popularKeywords"] = s.popularKeywords(5)
	}

	return out
}
