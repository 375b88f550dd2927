package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seo-optimizer/opportunity/analysis"
)

// InterestSource reports search interest for a keyword
type InterestSource interface {
	Trend(keyword string) analysis.KeywordTrend
}

// Observation is one keyword x location reading of a cycle. ChangePct is
// measured against the first reading of the pair.
type Observation struct {
	Keyword    string  `json:"keyword"`
	Location   string  `json:"location"`
	Value      int     `json:"value"`
	Baseline   int     `json:"baseline"`
	ChangePct  float64 `json:"changePct"`
	Alerted    bool    `json:"alerted"`
	Suppressed bool    `json:"suppressed,omitempty"`
}

// Snapshot is the document saved after each cycle
type Snapshot struct {
	Timestamp    time.Time     `json:"timestamp"`
	Observations []Observation `json:"observations"`
}

type series struct {
	baseline  int
	last      int
	lastAlert time.Time
}

// Monitor compares interest against a first-seen baseline and notifies on
// large moves, at most once per cooldown for each keyword and location
type Monitor struct {
	cfg       *Config
	source    InterestSource
	notifiers []Notifier
	now       func() time.Time

	mu     sync.Mutex
	series map[string]*series
}

func New(cfg *Config, source InterestSource, notifiers ...Notifier) *Monitor {
	return &Monitor{
		cfg:       cfg,
		source:    source,
		notifiers: notifiers,
		now:       time.Now,
		series:    make(map[string]*series),
	}
}

// ChangePercent returns the change from baseline to current in percent. It
// reports false when baseline is zero.
func ChangePercent(baseline, current int) (float64, bool) {
	if baseline == 0 {
		return 0, false
	}
	return float64(current-baseline) / float64(baseline) * 100, true
}

// RunCycle reads every keyword x location once, sends alerts and saves a
// snapshot when a data directory is configured
func (m *Monitor) RunCycle(ctx context.Context) []Observation {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var observations []Observation
	for _, keyword := range m.cfg.Keywords {
		for _, location := range m.cfg.Locations {
			if ctx.Err() != nil {
				return observations
			}
			obs := m.observe(ctx, keyword, location, now)
			observations = append(observations, obs)
		}
	}

	if m.cfg.DataDir != "" {
		if err := m.save(Snapshot{Timestamp: now.UTC(), Observations: observations}); err != nil {
			log.Printf("[MONITOR] Error saving monitoring data: %v", err)
		}
	}
	return observations
}

func (m *Monitor) observe(ctx context.Context, keyword, location string, now time.Time) Observation {
	value := m.source.Trend(keyword).Current()
	key := keyword + "|" + location

	s, seen := m.series[key]
	if !seen {
		s = &series{baseline: value}
		m.series[key] = s
	}
	s.last = value

	obs := Observation{Keyword: keyword, Location: location, Value: value, Baseline: s.baseline}
	change, ok := ChangePercent(s.baseline, value)
	if seen && ok {
		obs.ChangePct = math.Round(change*100) / 100
	}
	log.Printf("[MONITOR] %s (%s): %d (change: %.2f%%)", keyword, location, value, obs.ChangePct)

	if !seen || !ok || math.Abs(change) < m.cfg.AlertThreshold {
		return obs
	}
	if !s.lastAlert.IsZero() && now.Sub(s.lastAlert) < m.cfg.AlertCooldown {
		obs.Suppressed = true
		return obs
	}

	obs.Alerted = true
	s.lastAlert = now
	log.Printf("[MONITOR] Alert triggered for %s: %.2f%% change", keyword, obs.ChangePct)
	m.notify(ctx, Alert{
		Keyword:   keyword,
		Location:  location,
		Baseline:  s.baseline,
		Current:   value,
		ChangePct: obs.ChangePct,
		Threshold: m.cfg.AlertThreshold,
		Timestamp: now,
	})
	return obs
}

func (m *Monitor) notify(ctx context.Context, a Alert) {
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, a); err != nil {
			log.Printf("[MONITOR] %s notification failed: %v", n.Name(), err)
		}
	}
}

// save writes snap to DataDir/trends_<timestamp>.json
func (m *Monitor) save(snap Snapshot) error {
	if err := os.MkdirAll(m.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("could not create monitoring directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	name := filepath.Join(m.cfg.DataDir, "trends_"+snap.Timestamp.Format("20060102_150405.000000")+".json")
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("could not write %s: %w", name, err)
	}
	return nil
}

// Run executes a cycle on every schedule tick until ctx is done
func (m *Monitor) Run(ctx context.Context) error {
	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(normalizeCron(m.cfg.Schedule), func() { m.RunCycle(ctx) }); err != nil {
		return err
	}

	c.Start()
	log.Printf("[MONITOR] Watching %d keywords in %d locations on %q", len(m.cfg.Keywords), len(m.cfg.Locations), m.cfg.Schedule)

	<-ctx.Done()
	stop := c.Stop()
	<-stop.Done()

	log.Printf("[MONITOR] Stopped")
	return nil
}
