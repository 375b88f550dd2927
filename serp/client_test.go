package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSearch(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"request_info": {"success": true},
			"organic_results": [
				{"title": "<b>Go</b> &amp; you", "link": "https://www.go.dev/doc", "snippet": "Learn <em>Go</em>", "position": 1}
			],
			"ads_results": [
				{"title": "Buy Go", "link": "https://ads.example.com", "position": 1}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.Search(context.Background(), "secret-key-123", Query{Q: "golang", Location: "United Kingdom"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/search", got.URL.Path)
	assert.Equal(t, "secret-key-123", got.URL.Query().Get("api_key"))
	assert.Equal(t, "golang", got.URL.Query().Get("q"))
	assert.Equal(t, "United Kingdom", got.URL.Query().Get("location"))
	assert.Equal(t, "uk", got.URL.Query().Get("gl"))
	assert.Equal(t, "en", got.URL.Query().Get("hl"))
	assert.Equal(t, "10", got.URL.Query().Get("num"))

	require.Len(t, resp.OrganicResults, 1)
	assert.Equal(t, "Go & you", resp.OrganicResults[0].Title)
	assert.Equal(t, "Learn Go", resp.OrganicResults[0].Snippet)
	assert.Len(t, resp.Paid(), 1)
}

func TestClientSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http status", http.StatusUnauthorized, `{"error":"bad key"}`},
		{"error field", http.StatusOK, `{"error":"quota exceeded"}`},
		{"request_info failure", http.StatusOK, `{"request_info":{"success":false,"message":"invalid location"}}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "k", Query{Q: "seo"})
			require.Error(t, err)

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, "seo", perr.Query)
		})
	}
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "uk", CountryCode("United Kingdom"))
	assert.Equal(t, "uk", CountryCode("London, UK"))
	assert.Equal(t, "us", CountryCode("United States"))
	assert.Equal(t, "us", CountryCode(""))
}

func TestMockProvider(t *testing.T) {
	resp, err := MockProvider{}.Search(context.Background(), "", Query{Q: "Digital Marketing"})
	require.NoError(t, err)
	require.Len(t, resp.OrganicResults, 2)
	assert.Equal(t, "https://example.com/digital-marketing", resp.OrganicResults[0].Link)
	assert.Contains(t, resp.OrganicResults[0].Title, "Digital Marketing")
	assert.Len(t, resp.Paid(), 1)
}
