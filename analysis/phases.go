package analysis

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
)

const (
	topAdsPerKeyword   = 5
	lookalikesSearched = 5
	topCompetitorLimit = 10
	highMomentum       = 70
)

var lookalikeTemplates = []string{
	"%s tutorial",
	"%s examples",
	"%s guide",
	"best %s",
	"%s tools",
	"%s tips",
	"how to use %s",
	"%s for beginners",
	"%s alternatives",
	"%s software",
}

var relatedTermTemplates = []string{
	"%s pricing",
	"%s reviews",
	"%s near me",
	"free %s",
	"%s online",
	"%s comparison",
	"%s strategy",
	"%s benefits",
}

var (
	messagingInsights = []string{
		"Competitors lead with price and discount messaging",
		"Few ads mention free trials or guarantees",
		"Benefit-driven headlines outperform feature lists",
		"Urgency phrases appear in most top ads",
		"Social proof is rarely used in ad copy",
	}
	positioningGaps = []string{
		"No advertiser targets beginners directly",
		"Premium positioning is underrepresented",
		"Local service angle is missing",
		"Few ads address integration needs",
		"Comparison messaging is absent",
	}
	competitorWeaknesses = []string{
		"Limited mobile optimization on landing pages",
		"Weak local SEO presence",
		"Outdated content on key pages",
		"Generic ad copy with little differentiation",
		"Slow page load times",
	}
	organicOpportunities = []string{
		"Long-tail tutorial content is underserved",
		"Featured snippet opportunities on how-to queries",
		"Comparison pages rank with thin content",
		"FAQ schema is missing from top results",
		"Video results appear without strong competitors",
	}
	paidOpportunities = []string{
		"Low ad density on long-tail variations",
		"Competitors skip branded comparison terms",
		"Sitelink extensions are rarely used",
		"Mobile-specific ad copy is missing",
		"Evening and weekend dayparts are uncontested",
	}
	seasonalPatterns   = []string{"Q1 peak", "Summer dip", "Q4 surge"}
	geographicInsights = []string{"US dominant", "UK growing", "APAC emerging"}
)

// collectAdStrength folds one keyword's results into the phase 1 section and
// the competitor accumulation
func (r *run) collectAdStrength(query string, organic, paid []SearchResult) {
	n := len(organic)
	r.adStrength.GoodAds += n * 6 / 10
	r.adStrength.BadAds += n * 2 / 10
	r.adStrength.PaidResults += len(paid)

	top := organic
	if len(top) > topAdsPerKeyword {
		top = top[:topAdsPerKeyword]
	}
	r.adStrength.TopAds = append(r.adStrength.TopAds, top...)

	for _, res := range organic {
		if res.Domain == "" {
			continue
		}
		r.track(res.Domain, res.Position, query)
	}
}

// track updates the running mean position of domain
func (r *run) track(domain string, position int, query string) {
	entry, ok := r.competitors[domain]
	if !ok {
		entry = &CompetitorEntry{Domain: domain, Keywords: []string{}}
		r.competitors[domain] = entry
	}
	entry.Appearances++
	entry.AvgPosition += (float64(position) - entry.AvgPosition) / float64(entry.Appearances)

	for _, k := range entry.Keywords {
		if k == query {
			return
		}
	}
	entry.Keywords = append(entry.Keywords, query)
}

// rankCompetitors orders competitors by appearances, then domain
func rankCompetitors(m map[string]*CompetitorEntry, totalKeywords int) []CompetitorEntry {
	out := make([]CompetitorEntry, 0, len(m))
	for _, e := range m {
		c := *e
		c.AvgPosition = math.Round(c.AvgPosition*100) / 100
		if totalKeywords > 0 {
			c.MarketSharePct = int(math.Round(float64(c.Appearances) / float64(totalKeywords) * 100))
		}
		if c.MarketSharePct > 100 {
			c.MarketSharePct = 100
		}
		c.StrengthScore = strength(c.AvgPosition)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Appearances != out[j].Appearances {
			return out[i].Appearances > out[j].Appearances
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

func strength(avgPosition float64) Level {
	switch {
	case avgPosition <= 3:
		return LevelHigh
	case avgPosition <= 7:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Lookalikes returns the fixed lookalike expansions of keyword
func Lookalikes(keyword string) []string {
	out := make([]string, len(lookalikeTemplates))
	for i, t := range lookalikeTemplates {
		out[i] = fmt.Sprintf(t, keyword)
	}
	return out
}

// discover runs phase 2 for one input entry
func (r *run) discover(entry, query string, trend KeywordTrend) error {
	seeds := []string{query}
	sourceDomain := ""

	if r.req.AnalysisType == TypeURLs {
		sourceDomain = query
		seeds = r.seeds(entry, query)
	}

	for _, seed := range seeds {
		if err := r.ctx.Err(); err != nil {
			return fmt.Errorf("analysis aborted: %w", err)
		}

		seedTrend := trend
		if seed != query {
			seedTrend = r.o.estimator.Trend(seed)
		}

		expanded := ExpandedKeyword{
			Original:     seed,
			SourceDomain: sourceDomain,
			Lookalikes:   make([]LookalikeKeyword, 0, len(lookalikeTemplates)),
			Trend:        seedTrend,
		}

		for i, kw := range Lookalikes(seed) {
			competition := r.o.estimator.Competition(kw)
			la := LookalikeKeyword{
				Keyword:          kw,
				SearchVolume:     r.o.estimator.SearchVolume(kw),
				CompetitionLevel: competition,
				OpportunityScore: competition.Inverse(),
				RelatedTerms:     r.o.estimator.RelatedTerms(kw, relatedTermTemplates),
			}
			if i < lookalikesSearched {
				organic, _ := r.search(kw)
				la.ResultCount = len(organic)
				la.Source = SourceReal
				if len(organic) > 0 && organic[0].Source == SourceFallback {
					la.Source = SourceFallback
				}
			}
			expanded.Lookalikes = append(expanded.Lookalikes, la)
		}

		r.discovery.ExpandedKeywords = append(r.discovery.ExpandedKeywords, expanded)
	}
	return nil
}

// seeds picks phase 2 seed keywords for a competitor URL
func (r *run) seeds(entry, domain string) []string {
	if r.o.scanner != nil {
		seeds, err := r.o.scanner.SeedKeywords(r.ctx, entry, seedsPerURL)
		if err == nil && len(seeds) > 0 {
			return seeds
		}
		if err != nil {
			log.Printf("[ANALYSIS] Could not scan %s for seed keywords: %v", entry, err)
		}
	}
	return []string{domainLabel(domain)}
}

// domainLabel turns "shop.example.co.uk" into "example". The short
// second-level rule (co, com, org) only applies under country-code TLDs.
func domainLabel(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return domain
	}
	tld := parts[len(parts)-1]
	label := parts[len(parts)-2]
	if len(parts) >= 3 && len(tld) == 2 && len(label) <= 3 {
		label = parts[len(parts)-3]
	}
	return label
}

func (r *run) trendIntelligence() TrendIntelligence {
	high := 0
	for _, e := range r.discovery.ExpandedKeywords {
		if e.Trend.Momentum > highMomentum {
			high++
		}
	}
	return TrendIntelligence{
		TotalKeywordsDiscovered: len(r.discovery.ExpandedKeywords),
		HighMomentumKeywords:    high,
		SeasonalPatterns:        seasonalPatterns,
		GeographicInsights:      geographicInsights,
	}
}

func (r *run) competitiveMatrix(ranked []CompetitorEntry) CompetitiveMatrix {
	top := ranked
	if len(top) > topCompetitorLimit {
		top = top[:topCompetitorLimit]
	}
	return CompetitiveMatrix{
		HighTrendLowCompetition: r.highTrend,
		CompetitorWeaknesses:    competitorWeaknesses,
		OrganicOpportunities:    organicOpportunities,
		PaidOpportunities:       paidOpportunities,
		TopCompetitors:          top,
	}
}
