package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackAnalysis(t *testing.T) {
	s := New(t.TempDir(), false)

	s.TrackAnalysis(100, false)
	s.TrackAnalysis(300, true)

	assert.Equal(t, 2, s.AnalysisRequests)
	assert.Equal(t, 200.0, s.AverageLoadTime)
	assert.Equal(t, 50.0, s.GetErrorRate())
}

func TestTrackVisitor(t *testing.T) {
	s := New(t.TempDir(), false)

	assert.Equal(t, 1, s.TrackVisitor("10.0.0.1"))
	assert.Equal(t, 2, s.TrackVisitor("10.0.0.1"))
	assert.Equal(t, 3, s.TrackVisitor("10.0.0.2"))
	assert.Equal(t, 2, s.GetUniqueVisitorsCount())
}

func TestPopularKeywords(t *testing.T) {
	s := New(t.TempDir(), true)

	s.TrackKeywords([]string{"SEO  Tools", "seo tools", "crm", " ", "ads"})
	s.TrackKeywords([]string{"crm", "seo tools"})

	top := s.GetPopularKeywords(2)
	require.Len(t, top, 2)
	assert.Equal(t, KeywordCount{Keyword: "seo tools", Count: 3}, top[0])
	assert.Equal(t, KeywordCount{Keyword: "crm", Count: 2}, top[1])

	snapshot := s.GetStatistics()
	assert.Contains(t, snapshot, "popularKeywords")
}

func TestGetStatisticsHidesKeywordsOutsideDevMode(t *testing.T) {
	s := New(t.TempDir(), false)
	s.TrackKeywords([]string{"crm"})

	snapshot := s.GetStatistics()
	assert.NotContains(t, snapshot, "popularKeywords")
	assert.Contains(t, snapshot, "errorRate")
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	s := New(dir, false)
	s.TrackVisitor("10.0.0.1")
	s.TrackKeywords([]string{"crm"})
	s.TrackAnalysis(50, false)
	require.NoError(t, s.Save())

	loaded := New(dir, false)
	require.NoError(t, loaded.Load())
	assert.Equal(t, 1, loaded.AnalysisRequests)
	assert.Equal(t, 1, loaded.PopularKeywords["crm"])
	assert.Equal(t, 1, loaded.GetUniqueVisitorsCount())
}

func TestLoadMissingFile(t *testing.T) {
	s := New(t.TempDir(), false)
	assert.NoError(t, s.Load())
}

func TestLoadKeepsAverageLoadTime(t *testing.T) {
	dir := t.TempDir()

	s := New(dir, false)
	s.TrackAnalysis(100, false)
	s.TrackAnalysis(300, false)
	require.NoError(t, s.Save())

	loaded := New(dir, false)
	require.NoError(t, loaded.Load())
	loaded.TrackAnalysis(500, false)
	assert.Equal(t, 300.0, loaded.AverageLoadTime)
}

func TestLoadSeedsTotalsFromAverage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, statisticsFile),
		[]byte(`{"analysisRequests":2,"averageLoadTime":200}`), 0644))

	s := New(dir, false)
	require.NoError(t, s.Load())
	s.TrackAnalysis(500, false)
	assert.Equal(t, 300.0, s.AverageLoadTime)
}
