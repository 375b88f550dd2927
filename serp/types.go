package serp

import "context"

// Provider runs one search query against a SERP backend
type Provider interface {
	Search(ctx context.Context, apiKey string, q Query) (*Response, error)
}

// Query holds the parameters sent to the /search endpoint
type Query struct {
	Q        string
	Location string
	GL       string
	HL       string
	Num      int
}

// Result is one organic or paid hit
type Result struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	Position      int    `json:"position"`
	DisplayedLink string `json:"displayed_link"`
}

type RequestInfo struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Response is the subset of the Value SERP payload the service reads
type Response struct {
	RequestInfo    *RequestInfo `json:"request_info,omitempty"`
	OrganicResults []Result     `json:"organic_results"`
	PaidResults    []Result     `json:"paid_results"`
	AdsResults     []Result     `json:"ads_results"`
	Error          string       `json:"error,omitempty"`
}

// Paid returns paid_results followed by ads_results
func (r *Response) Paid() []Result {
	paid := make([]Result, 0, len(r.PaidResults)+len(r.AdsResults))
	paid = append(paid, r.PaidResults...)
	return append(paid, r.AdsResults...)
}
