package serp

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const (
	DefaultBaseURL = "https://api.valueserp.com"
	DefaultTimeout = 30 * time.Second
	defaultNum     = 10
	maxBodySize    = 4 << 20
	userAgent      = "OpportunityAnalyzer/1.0"
)

// Client talks to the Value SERP /search endpoint
type Client struct {
	baseURL string
	client  *http.Client
	policy  *bluemonday.Policy
}

// NewClient creates a client for baseURL. An empty baseURL uses DefaultBaseURL
// and a zero timeout uses DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		policy: bluemonday.StrictPolicy(),
	}
}

// CountryCode maps a free-form location to the gl parameter
func CountryCode(location string) string {
	l := strings.ToLower(location)
	if strings.Contains(l, "united kingdom") || l == "uk" || strings.HasSuffix(l, ", uk") {
		return "uk"
	}
	return "us"
}

// Search performs a single /search request
func (c *Client) Search(ctx context.Context, apiKey string, q Query) (*Response, error) {
	if q.GL == "" {
		q.GL = CountryCode(q.Location)
	}
	if q.HL == "" {
		q.HL = "en"
	}
	if q.Num <= 0 {
		q.Num = defaultNum
	}

	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("q", q.Q)
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	params.Set("gl", q.GL)
	params.Set("hl", q.HL)
	params.Set("num", strconv.Itoa(q.Num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Query: q.Q, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	log.Printf("[SERP] Searching %q (location=%q gl=%s)", q.Q, q.Location, q.GL)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Query: q.Q, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &ProviderError{Query: q.Q, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Query:      q.Q,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ProviderError{Query: q.Q, StatusCode: resp.StatusCode, Err: err}
	}

	if out.Error != "" {
		return nil, &ProviderError{Query: q.Q, StatusCode: resp.StatusCode, Message: out.Error}
	}
	if out.RequestInfo != nil && !out.RequestInfo.Success {
		return nil, &ProviderError{Query: q.Q, StatusCode: resp.StatusCode, Message: out.RequestInfo.Message}
	}

	c.clean(out.OrganicResults)
	c.clean(out.PaidResults)
	c.clean(out.AdsResults)

	return &out, nil
}

// clean strips markup the provider sometimes leaves in titles and snippets
func (c *Client) clean(results []Result) {
	for i := range results {
		results[i].Title = c.text(results[i].Title)
		results[i].Snippet = c.text(results[i].Snippet)
	}
}

func (c *Client) text(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}
