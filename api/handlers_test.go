package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/opportunity/analysis"
	"github.com/seo-optimizer/opportunity/automation"
	"github.com/seo-optimizer/opportunity/logging"
	"github.com/seo-optimizer/opportunity/serp"
	"github.com/seo-optimizer/opportunity/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingProvider struct{}

func (failingProvider) Search(_ context.Context, _ string, q serp.Query) (*serp.Response, error) {
	return nil, &serp.ProviderError{Query: q.Q, StatusCode: http.StatusBadGateway, Message: "upstream down"}
}

type stubRunner struct {
	out    *automation.Output
	err    error
	config interface{}
	env    []string
}

func (r *stubRunner) Run(_ context.Context, config interface{}, env ...string) (*automation.Output, error) {
	r.config = config
	r.env = env
	return r.out, r.err
}

func newTestServer(t *testing.T, provider serp.Provider, runner AutomationRunner) *Server {
	t.Helper()

	storage, err := stats.NewStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Shutdown() })

	return NewServer(Deps{
		Analyzer:   analysis.New(provider, analysis.WithEstimator(analysis.NewSeededEstimator(1))),
		Fallback:   analysis.New(serp.MockProvider{}, analysis.WithAPISource("Mock data")),
		Runner:     runner,
		Statistics: logging.New(t.TempDir(), true),
		Storage:    storage,
		ServerKey:  "server-side-key-123",
	})
}

func post(t *testing.T, s *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)
	return w
}

func TestRunAnalysisValidation(t *testing.T) {
	s := newTestServer(t, serp.MockProvider{}, &stubRunner{})

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing api key", map[string]interface{}{"data": []string{"crm"}}},
		{"empty data", map[string]interface{}{"data": []string{}, "apiKey": "k"}},
		{"blank data", map[string]interface{}{"data": []string{"  "}, "apiKey": "k"}},
		{"bad type", map[string]interface{}{"analysisType": "images", "data": []string{"crm"}, "apiKey": "k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, s, "/api/run-analysis", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestRunAnalysisMalformedBody(t *testing.T) {
	s := newTestServer(t, serp.MockProvider{}, &stubRunner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/run-analysis", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunAnalysisProviderFailureStillSucceeds(t *testing.T) {
	s := newTestServer(t, failingProvider{}, &stubRunner{})

	w := post(t, s, "/api/run-analysis", map[string]interface{}{
		"data":   []string{"crm software"},
		"apiKey": "test-key",
		"phases": []string{"phase1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result analysis.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Phase1)
	require.Len(t, result.Phase1.TopAds, 1)
	assert.Contains(t, result.Phase1.TopAds[0].Title, "crm software")
	assert.Equal(t, analysis.SourceFallback, result.Phase1.TopAds[0].Source)
	assert.Equal(t, 1, result.Summary.TotalKeywords)
	assert.Equal(t, []string{"crm software"}, result.Summary.FallbackQueries)

	assert.Equal(t, 1, s.Statistics.GetPopularKeywords(1)[0].Count)
}

func TestValidateAPIKey(t *testing.T) {
	s := newTestServer(t, serp.MockProvider{}, &stubRunner{})

	tests := []struct {
		key    string
		status int
	}{
		{"", http.StatusBadRequest},
		{"short", http.StatusBadRequest},
		{"exactly10c", http.StatusBadRequest},
		{"long-enough-key", http.StatusOK},
	}

	for _, tt := range tests {
		w := post(t, s, "/api/validate-api-key", map[string]string{"apiKey": tt.key})
		assert.Equal(t, tt.status, w.Code, "key %q", tt.key)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		if tt.status == http.StatusOK {
			assert.Equal(t, true, resp["success"])
		} else {
			assert.NotEmpty(t, resp["error"])
		}
	}
}

func TestRunAutomationParsesChildOutput(t *testing.T) {
	child, err := json.Marshal(analysis.Result{AnalysisID: "child-run", Summary: analysis.Summary{TotalKeywords: 1}})
	require.NoError(t, err)

	runner := &stubRunner{out: &automation.Output{Stdout: child, Duration: 1500 * time.Millisecond}}
	s := newTestServer(t, serp.MockProvider{}, runner)

	w := post(t, s, "/api/run-automation", map[string]interface{}{"data": []string{"crm"}})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Source  string          `json:"source"`
		Results analysis.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sourceAutomation, resp.Source)
	assert.Equal(t, "child-run", resp.Results.AnalysisID)

	// The key is handed over through the environment only.
	assert.Equal(t, []string{"VALUE_SERP_API_KEY=server-side-key-123"}, runner.env)
	cfg, ok := runner.config.(analysis.Request)
	require.True(t, ok)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, []string{"crm"}, cfg.Data)

	assert.Equal(t, 1, s.Storage.GetCurrentStats().AutomationRuns)
}

func TestRunAutomationFallsBackOnBadOutput(t *testing.T) {
	runner := &stubRunner{out: &automation.Output{Stdout: []byte("Traceback: boom")}}
	s := newTestServer(t, serp.MockProvider{}, runner)

	w := post(t, s, "/api/run-automation", map[string]interface{}{"data": []string{"crm"}, "apiKey": "client-key"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Source  string          `json:"source"`
		Results analysis.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sourceFallback, resp.Source)
	assert.NotEmpty(t, resp.Results.AnalysisID)
	assert.Equal(t, "Mock data", resp.Results.Summary.APISource)
	assert.Equal(t, []string{"VALUE_SERP_API_KEY=client-key"}, runner.env)
}

func TestRunAutomationErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"timeout", automation.ErrTimeout, "Automation timed out"},
		{"exit", &automation.SubprocessError{ExitCode: 1, Stderr: "boom", Err: errors.New("exit status 1")}, "Automation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serp.MockProvider{}, &stubRunner{err: tt.err})

			w := post(t, s, "/api/run-automation", map[string]interface{}{"data": []string{"crm"}})
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp["error"])
			assert.NotEmpty(t, resp["details"])

			assert.Equal(t, 1, s.Storage.GetCurrentStats().AutomationFailures)
		})
	}
}

func TestRunAutomationRequiresKey(t *testing.T) {
	runner := &stubRunner{}
	s := newTestServer(t, serp.MockProvider{}, runner)
	s.ServerKey = ""

	w := post(t, s, "/api/run-automation", map[string]interface{}{"data": []string{"crm"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, runner.config)
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t, serp.MockProvider{}, &stubRunner{})

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/run-analysis", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestStatisticsEndpoints(t *testing.T) {
	s := newTestServer(t, serp.MockProvider{}, &stubRunner{})
	s.Storage.RecordAnalysis(3, 1)

	router := s.Router()
	post(t, s, "/api/run-analysis", map[string]interface{}{"data": []string{"crm"}, "apiKey": "k"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/statistics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.EqualValues(t, 1, snapshot["analysisRequests"])
	assert.Contains(t, snapshot, "popularKeywords")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/statistics/monthly", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var monthly struct {
		Months []struct {
			Month         string `json:"month"`
			ProviderCalls int    `json:"provider_calls"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &monthly))
	require.Len(t, monthly.Months, 1)
	assert.Equal(t, time.Now().Format("2006-01"), monthly.Months[0].Month)
	assert.Equal(t, 3, monthly.Months[0].ProviderCalls)
}
