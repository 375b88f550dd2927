package sitescan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxPageSize   = 5 << 20
	topTermsLimit = 20
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true, "been": true, "but": true,
	"by": true, "can": true, "do": true, "for": true, "from": true, "get": true, "has": true,
	"have": true, "how": true, "if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "more": true, "most": true, "new": true, "not": true, "of": true, "on": true,
	"or": true, "our": true, "out": true, "so": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "to": true, "up": true, "us": true, "was": true, "we": true, "what": true,
	"when": true, "which": true, "who": true, "will": true, "with": true, "you": true, "your": true,
}

// Scanner fetches a page and extracts candidate keywords from it
type Scanner struct {
	client *http.Client
}

// ErrBlockedAddress is returned for pages on loopback, private or link-local
// addresses
var ErrBlockedAddress = errors.New("address not allowed")

// publicOnly rejects connections to addresses that are not publicly routable.
// It runs after DNS resolution, so it also covers redirects and rebinding.
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	ip = ip.Unmap()
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified() || ip.IsMulticast() || ip.IsInterfaceLocalMulticast() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// New creates a Scanner with a pooled HTTP client that only connects to
// public addresses
func New() *Scanner {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnly,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return NewWithClient(&http.Client{
		Timeout:   15 * time.Second,
		Transport: transport,
	})
}

func NewWithClient(client *http.Client) *Scanner {
	return &Scanner{client: client}
}

// Domain returns the host of rawURL without a leading "www.". Bare hosts such
// as "example.com" are accepted.
func Domain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Scan fetches rawURL and builds its PageProfile
func (s *Scanner) Scan(ctx context.Context, rawURL string) (*PageProfile, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("fetch %s: unsupported scheme %q", rawURL, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "OpportunityAnalyzer/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(resp.Body, maxPageSize)); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, err
	}

	return profile(doc, rawURL), nil
}

// SeedKeywords returns up to n keywords for rawURL: meta keywords first,
// then the most frequent content terms.
func (s *Scanner) SeedKeywords(ctx context.Context, rawURL string, n int) ([]string, error) {
	p, err := s.Scan(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return p.Seeds(n), nil
}

// Seeds merges meta keywords and top terms without duplicates
func (p *PageProfile) Seeds(n int) []string {
	seen := make(map[string]bool, n)
	seeds := make([]string, 0, n)
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] || len(seeds) >= n {
			return
		}
		seen[k] = true
		seeds = append(seeds, k)
	}
	for _, k := range p.MetaKeywords {
		add(k)
	}
	for _, k := range p.TopTerms {
		add(k)
	}
	return seeds
}

func profile(doc *goquery.Document, rawURL string) *PageProfile {
	p := &PageProfile{
		URL:            rawURL,
		Domain:         Domain(rawURL),
		KeywordDensity: make(map[string]float64),
	}

	p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	p.Description, _ = doc.Find("meta[name='description']").Attr("content")

	if kw, ok := doc.Find("meta[name='keywords']").Attr("content"); ok {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				p.MetaKeywords = append(p.MetaKeywords, k)
			}
		}
	}

	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			p.Headings = append(p.Headings, text)
		}
	})

	doc.Find("script, style, noscript").Remove()
	words := tokenize(doc.Find("body").Text())
	p.WordCount = len(words)

	// title and headings count double
	counts := make(map[string]int)
	for _, w := range words {
		counts[w]++
	}
	for _, w := range tokenize(p.Title + " " + strings.Join(p.Headings, " ")) {
		counts[w] += 2
	}

	type term struct {
		word  string
		count int
	}
	terms := make([]term, 0, len(counts))
	for w, c := range counts {
		if len(w) < 3 || stopWords[w] {
			continue
		}
		terms = append(terms, term{w, c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].count != terms[j].count {
			return terms[i].count > terms[j].count
		}
		return terms[i].word < terms[j].word
	})

	for i, t := range terms {
		if i >= topTermsLimit {
			break
		}
		p.TopTerms = append(p.TopTerms, t.word)
		if p.WordCount > 0 {
			p.KeywordDensity[t.word] = float64(t.count) / float64(p.WordCount) * 100
		}
	}

	return p
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	})
}
