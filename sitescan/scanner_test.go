package sitescan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html>
<head>
  <title>Trail Running Shoes</title>
  <meta name="description" content="Shop trail running shoes">
  <meta name="keywords" content="trail shoes, Running Gear ,">
</head>
<body>
  <h1>Trail running</h1>
  <h2>Shoes for every trail</h2>
  <p>Our trail shoes grip every trail. Running on a trail is fun.</p>
  <script>var trackingTrail = "trail trail trail";</script>
</body>
</html>`

func TestScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	p, err := NewWithClient(srv.Client()).Scan(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Trail Running Shoes", p.Title)
	assert.Equal(t, "Shop trail running shoes", p.Description)
	assert.Equal(t, []string{"trail shoes", "Running Gear"}, p.MetaKeywords)
	assert.Equal(t, []string{"Trail running", "Shoes for every trail"}, p.Headings)
	require.NotEmpty(t, p.TopTerms)
	assert.Equal(t, "trail", p.TopTerms[0])
	assert.NotContains(t, p.TopTerms, "our")
	assert.Greater(t, p.KeywordDensity["trail"], 0.0)

	seeds := p.Seeds(3)
	assert.Equal(t, []string{"trail shoes", "running gear", "trail"}, seeds)
}

func TestScanBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewWithClient(srv.Client()).SeedKeywords(context.Background(), srv.URL, 5)
	assert.Error(t, err)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", Domain("https://www.example.com/path?q=1"))
	assert.Equal(t, "shop.example.com", Domain("shop.example.com"))
	assert.Equal(t, "example.com", Domain("HTTP://WWW.Example.com"))
	assert.Equal(t, "", Domain(""))
}

func TestScanRejectsInternalAddresses(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`<meta name="keywords" content="secret-admin-token">`))
	}))
	defer srv.Close()

	_, err := New().SeedKeywords(context.Background(), srv.URL, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBlockedAddress))
	assert.Equal(t, 0, hits)
}

func TestScanRejectsScheme(t *testing.T) {
	_, err := New().Scan(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)

	_, err = New().Scan(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)
}

func TestPublicOnly(t *testing.T) {
	tests := []struct {
		address string
		blocked bool
	}{
		{"127.0.0.1:80", true},
		{"10.1.2.3:443", true},
		{"192.168.0.10:80", true},
		{"172.16.5.5:80", true},
		{"169.254.169.254:80", true},
		{"[::1]:443", true},
		{"[fe80::1]:443", true},
		{"[::ffff:127.0.0.1]:80", true},
		{"0.0.0.0:80", true},
		{"93.184.216.34:443", false},
		{"[2606:2800:220:1:248:1893:25c8:1946]:443", false},
	}

	for _, tt := range tests {
		err := publicOnly("tcp", tt.address, nil)
		if tt.blocked {
			assert.True(t, errors.Is(err, ErrBlockedAddress), tt.address)
		} else {
			assert.NoError(t, err, tt.address)
		}
	}
}
