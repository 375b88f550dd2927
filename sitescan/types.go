package sitescan

// PageProfile describes the keyword-bearing parts of a competitor page
type PageProfile struct {
	URL            string             `json:"url"`
	Domain         string             `json:"domain"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	MetaKeywords   []string           `json:"metaKeywords"`
	Headings       []string           `json:"headings"`
	WordCount      int                `json:"wordCount"`
	KeywordDensity map[string]float64 `json:"keywordDensity"`
	TopTerms       []string           `json:"topTerms"`
}
