package analysis

import "time"

// Analysis types accepted in a Request
const (
	TypeKeywords = "keywords"
	TypeURLs     = "urls"
)

// Phase names accepted in a Request
const (
	Phase1 = "phase1"
	Phase2 = "phase2"
	Phase3 = "phase3"
)

// Level is a low/medium/high rating
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Inverse maps low to high and high to low
func (l Level) Inverse() Level {
	switch l {
	case LevelLow:
		return LevelHigh
	case LevelHigh:
		return LevelLow
	default:
		return LevelMedium
	}
}

// Source tells whether a SearchResult came from the provider or was substituted
type Source string

const (
	SourceReal     Source = "real"
	SourceFallback Source = "fallback"
)

// Request is the input of one analysis run
type Request struct {
	AnalysisType string   `json:"analysisType,omitempty"`
	Data         []string `json:"data"`
	Location     string   `json:"location,omitempty"`
	APIKey       string   `json:"apiKey,omitempty"`
	Phases       []string `json:"phases,omitempty"`
}

type SearchResult struct {
	Keyword  string `json:"keyword"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Snippet  string `json:"snippet"`
	Domain   string `json:"domain"`
	Position int    `json:"position"`
	IsPaid   bool   `json:"isPaid"`
	Source   Source `json:"source"`
}

type KeywordStat struct {
	Keyword          string  `json:"keyword"`
	SearchVolume     int     `json:"searchVolume"`
	CPCEstimate      float64 `json:"cpcEstimate"`
	DistinctDomains  int     `json:"distinctDomains"`
	CompetitionLevel Level   `json:"competitionLevel"`
	OpportunityScore Level   `json:"opportunityScore"`
}

type CompetitorEntry struct {
	Domain         string   `json:"domain"`
	Appearances    int      `json:"appearances"`
	AvgPosition    float64  `json:"avgPosition"`
	Keywords       []string `json:"keywords"`
	MarketSharePct int      `json:"marketSharePct"`
	StrengthScore  Level    `json:"strengthScore,omitempty"`
}

type KeywordTrend struct {
	Keyword            string   `json:"keyword"`
	Momentum           int      `json:"momentum"`
	Seasonality        string   `json:"seasonality"`
	GeographicHotspots []string `json:"geographicHotspots"`
	Interest           []int    `json:"interest"`
}

// Current returns the latest interest value
func (t KeywordTrend) Current() int {
	if len(t.Interest) == 0 {
		return 0
	}
	return t.Interest[len(t.Interest)-1]
}

// AdStrength is the phase 1 section
type AdStrength struct {
	GoodAds           int               `json:"goodAds"`
	BadAds            int               `json:"badAds"`
	PaidResults       int               `json:"paidResults"`
	TopAds            []SearchResult    `json:"topAds"`
	CompaniesShowing  []CompetitorEntry `json:"companiesShowing"`
	MessagingInsights []string          `json:"messagingInsights"`
	PositioningGaps   []string          `json:"positioningGaps"`
}

type LookalikeKeyword struct {
	Keyword          string   `json:"keyword"`
	SearchVolume     int      `json:"searchVolume"`
	CompetitionLevel Level    `json:"competitionLevel"`
	OpportunityScore Level    `json:"opportunityScore"`
	RelatedTerms     []string `json:"relatedTerms"`
	ResultCount      int      `json:"resultCount"`
	Source           Source   `json:"source,omitempty"`
}

type ExpandedKeyword struct {
	Original     string             `json:"original"`
	SourceDomain string             `json:"sourceDomain,omitempty"`
	Lookalikes   []LookalikeKeyword `json:"lookalikes"`
	Trend        KeywordTrend       `json:"trendData"`
}

type TrendIntelligence struct {
	TotalKeywordsDiscovered int      `json:"totalKeywordsDiscovered"`
	HighMomentumKeywords    int      `json:"highMomentumKeywords"`
	SeasonalPatterns        []string `json:"seasonalPatterns"`
	GeographicInsights      []string `json:"geographicInsights"`
}

// LookalikeDiscovery is the phase 2 section
type LookalikeDiscovery struct {
	ExpandedKeywords  []ExpandedKeyword `json:"expandedKeywords"`
	TrendIntelligence TrendIntelligence `json:"trendIntelligence"`
}

// CompetitiveMatrix is the phase 3 section
type CompetitiveMatrix struct {
	HighTrendLowCompetition int               `json:"highTrendLowCompetition"`
	CompetitorWeaknesses    []string          `json:"competitorWeaknesses"`
	OrganicOpportunities    []string          `json:"organicOpportunities"`
	PaidOpportunities       []string          `json:"paidOpportunities"`
	TopCompetitors          []CompetitorEntry `json:"topCompetitors"`
}

type RunConfig struct {
	Type      string   `json:"type"`
	Data      []string `json:"data"`
	Location  string   `json:"location,omitempty"`
	Phases    []string `json:"phases"`
	APISource string   `json:"apiSource"`
}

type Summary struct {
	TotalKeywords           int      `json:"totalKeywords"`
	SuccessRate             float64  `json:"successRate"`
	OpportunitiesIdentified int      `json:"opportunitiesIdentified"`
	PhasesCompleted         int      `json:"phasesCompleted"`
	ProviderCalls           int      `json:"providerCalls"`
	FallbackQueries         []string `json:"fallbackQueries"`
	ProcessingTimeMs        int64    `json:"processingTimeMs"`
	APISource               string   `json:"apiSource"`
}

// Result is the document returned for one analysis run
type Result struct {
	AnalysisID   string              `json:"analysisId"`
	Timestamp    time.Time           `json:"timestamp"`
	Config       RunConfig           `json:"analysisConfig"`
	Phase1       *AdStrength         `json:"phase1,omitempty"`
	Phase2       *LookalikeDiscovery `json:"phase2,omitempty"`
	Phase3       *CompetitiveMatrix  `json:"phase3,omitempty"`
	Trends       []KeywordTrend      `json:"trends"`
	KeywordStats []KeywordStat       `json:"keywordStats"`
	Summary      Summary             `json:"summary"`
}
