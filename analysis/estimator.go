package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// MetricsEstimator supplies the metrics the service has no real data source
// for. RandomEstimator is a mock; a model backed by real traffic data can
// replace it without touching the Orchestrator.
type MetricsEstimator interface {
	SearchVolume(keyword string) int
	CPC(keyword string) float64
	Competition(keyword string) Level
	RelatedTerms(keyword string, templates []string) []string
	Trend(keyword string) KeywordTrend
}

var (
	seasonalities = []string{"stable", "rising", "declining", "seasonal"}
	hotspots      = []string{"United States", "United Kingdom", "Canada", "Australia", "Germany", "India"}
	levels        = []Level{LevelLow, LevelMedium, LevelHigh}
)

const trendPoints = 12

// RandomEstimator draws every metric from a uniform distribution
type RandomEstimator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomEstimator seeds from the clock
func NewRandomEstimator() *RandomEstimator {
	return NewSeededEstimator(uint64(time.Now().UnixNano()))
}

// NewSeededEstimator returns an estimator with a reproducible sequence
func NewSeededEstimator(seed uint64) *RandomEstimator {
	return &RandomEstimator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (e *RandomEstimator) SearchVolume(string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return 1000 + e.rng.IntN(49000)
}

func (e *RandomEstimator) CPC(string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return math.Round((0.5+e.rng.Float64()*4.5)*100) / 100
}

func (e *RandomEstimator) Competition(string) Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return levels[e.rng.IntN(len(levels))]
}

// RelatedTerms fills a random subset of templates, between 2 and 5 of them
func (e *RandomEstimator) RelatedTerms(keyword string, templates []string) []string {
	if len(templates) == 0 {
		return []string{}
	}

	e.mu.Lock()
	perm := e.rng.Perm(len(templates))
	n := 2 + e.rng.IntN(4)
	e.mu.Unlock()

	if n > len(templates) {
		n = len(templates)
	}
	terms := make([]string, 0, n)
	for _, i := range perm[:n] {
		terms = append(terms, fmt.Sprintf(templates[i], keyword))
	}
	return terms
}

func (e *RandomEstimator) Trend(keyword string) KeywordTrend {
	e.mu.Lock()
	defer e.mu.Unlock()

	interest := make([]int, trendPoints)
	for i := range interest {
		interest[i] = e.rng.IntN(101)
	}

	perm := e.rng.Perm(len(hotspots))
	spots := make([]string, 0, 3)
	for _, i := range perm[:1+e.rng.IntN(3)] {
		spots = append(spots, hotspots[i])
	}

	return KeywordTrend{
		Keyword:            keyword,
		Momentum:           e.rng.IntN(101),
		Seasonality:        seasonalities[e.rng.IntN(len(seasonalities))],
		GeographicHotspots: spots,
		Interest:           interest,
	}
}
