package serp

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider returns fixed offline results. It is used when no API key is
// configured and when an automation run produces no usable output.
type MockProvider struct{}

func (MockProvider) Search(_ context.Context, _ string, q Query) (*Response, error) {
	slug := Slug(q.Q)
	return &Response{
		OrganicResults: []Result{
			{
				Title:         fmt.Sprintf("Top result for %s", q.Q),
				Link:          "https://example.com/" + slug,
				Snippet:       fmt.Sprintf("This is a comprehensive guide about %s with detailed information.", q.Q),
				Position:      1,
				DisplayedLink: "example.com",
			},
			{
				Title:         fmt.Sprintf("Best practices for %s", q.Q),
				Link:          "https://competitor.com/" + slug,
				Snippet:       fmt.Sprintf("Learn the best practices and strategies for %s.", q.Q),
				Position:      2,
				DisplayedLink: "competitor.com",
			},
		},
		AdsResults: []Result{
			{
				Title:         fmt.Sprintf("Premium %s solution", q.Q),
				Link:          "https://advertiser.com/" + slug,
				Snippet:       fmt.Sprintf("Get the best %s solution with premium features.", q.Q),
				Position:      1,
				DisplayedLink: "advertiser.com",
			},
		},
	}, nil
}

// Slug turns a query into a URL path segment
func Slug(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), "-")
}
