package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seo-optimizer/opportunity/analysis"
)

// Analyzer runs one analysis request. It must be safe for concurrent use.
type Analyzer interface {
	Run(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// errDegraded marks a run in which every provider call fell back
var errDegraded = errors.New("every provider call fell back")

// Task is one keyword x location analysis
type Task struct {
	Index    int
	Keyword  string
	Location string
}

// Result is the outcome of one task
type Result struct {
	Index    int              `json:"index"`
	Batch    int              `json:"batch"`
	Keyword  string           `json:"keyword"`
	Location string           `json:"location"`
	Attempts int              `json:"attempts"`
	Degraded bool             `json:"degraded,omitempty"`
	Analysis *analysis.Result `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type Summary struct {
	TotalTasks   int   `json:"totalTasks"`
	TotalBatches int   `json:"totalBatches"`
	Succeeded    int   `json:"succeeded"`
	Failed       int   `json:"failed"`
	Degraded     int   `json:"degraded"`
	Retries      int   `json:"retries"`
	DurationMs   int64 `json:"durationMs"`
}

// Report is the document written for a whole batch job
type Report struct {
	BatchID     string    `json:"batchId"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Config      Config    `json:"config"`
	Results     []Result  `json:"results"`
	Summary     Summary   `json:"summary"`
}

// Processor runs batches of tasks through an Analyzer
type Processor struct {
	analyzer  Analyzer
	apiKey    string
	outputDir string
}

type Option func(*Processor)

// WithOutputDir writes every finished batch to dir as <batchId>_batch_<n>.json
func WithOutputDir(dir string) Option {
	return func(p *Processor) { p.outputDir = dir }
}

func NewProcessor(analyzer Analyzer, apiKey string, opts ...Option) *Processor {
	p := &Processor{analyzer: analyzer, apiKey: apiKey}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tasks expands cfg into keyword x location tasks, keyword first
func Tasks(cfg Config) []Task {
	tasks := make([]Task, 0, len(cfg.Keywords)*len(cfg.Locations))
	for _, keyword := range cfg.Keywords {
		for _, location := range cfg.Locations {
			tasks = append(tasks, Task{Index: len(tasks) + 1, Keyword: keyword, Location: location})
		}
	}
	return tasks
}

// Chunk splits tasks into consecutive groups of at most size
func Chunk(tasks []Task, size int) [][]Task {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var chunks [][]Task
	for start := 0; start < len(tasks); start += size {
		end := min(start+size, len(tasks))
		chunks = append(chunks, tasks[start:end])
	}
	return chunks
}

// Process runs every batch of cfg. Failed tasks are recorded and processing
// continues; cancellation stops between batches and returns the partial report.
func (p *Processor) Process(ctx context.Context, cfg Config) (*Report, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	report := &Report{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Config:    cfg,
		Results:   []Result{},
	}
	tasks := Tasks(cfg)
	batches := Chunk(tasks, cfg.BatchSize)

	log.Printf("[BATCH] %s: %d tasks in %d batches (%d workers)",
		report.BatchID, len(tasks), len(batches), cfg.MaxWorkers)

	var err error
	for i, batch := range batches {
		n := i + 1
		if i > 0 && cfg.DelayBetweenBatches > 0 {
			log.Printf("[BATCH] Waiting %s before next batch...", cfg.DelayBetweenBatches)
			sleep(ctx, cfg.DelayBetweenBatches)
		}
		if ctx.Err() != nil {
			err = fmt.Errorf("batch %s stopped after %d of %d batches: %w", report.BatchID, i, len(batches), ctx.Err())
			break
		}

		results := p.runBatch(ctx, n, batch, cfg)
		report.Results = append(report.Results, results...)
		report.Summary.TotalBatches++

		if p.outputDir != "" {
			name := fmt.Sprintf("%s_batch_%d.json", report.BatchID, n)
			if werr := writeJSON(filepath.Join(p.outputDir, name), results); werr != nil {
				log.Printf("[BATCH] Error saving batch %d: %v", n, werr)
			}
		}
	}

	report.CompletedAt = time.Now().UTC()
	summarize(report)
	log.Printf("[BATCH] %s: %d succeeded, %d failed, %d degraded",
		report.BatchID, report.Summary.Succeeded, report.Summary.Failed, report.Summary.Degraded)

	return report, err
}

// runBatch runs tasks on at most cfg.MaxWorkers goroutines. Results keep the
// order of tasks.
func (p *Processor) runBatch(ctx context.Context, n int, tasks []Task, cfg Config) []Result {
	log.Printf("[BATCH] Processing batch %d: %d tasks", n, len(tasks))

	results := make([]Result, len(tasks))
	semaphore := make(chan struct{}, cfg.MaxWorkers)
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = p.runTask(ctx, task, cfg)
			results[i].Batch = n
		}(i, task)
	}

	wg.Wait()
	return results
}

// runTask runs one task, retrying errors and fully degraded runs up to
// cfg.RetryAttempts times. Validation errors are not retried.
func (p *Processor) runTask(ctx context.Context, task Task, cfg Config) Result {
	res := Result{Index: task.Index, Keyword: task.Keyword, Location: task.Location}
	req := analysis.Request{
		AnalysisType: cfg.AnalysisType,
		Data:         []string{task.Keyword},
		Location:     task.Location,
		APIKey:       p.apiKey,
		Phases:       cfg.Phases,
	}

	var err error
	for attempt := 0; attempt <= cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			log.Printf("[BATCH] Retrying task %d (%s, %s) after: %v", task.Index, task.Keyword, task.Location, err)
			sleep(ctx, cfg.RetryDelay)
		}
		if cerr := ctx.Err(); cerr != nil {
			if err == nil {
				err = cerr
			}
			break
		}

		res.Attempts++
		var result *analysis.Result
		result, err = p.analyzer.Run(ctx, req)
		if err != nil {
			res.Analysis, res.Degraded = nil, false
			if analysis.IsValidation(err) {
				break
			}
			continue
		}

		res.Analysis = result
		res.Degraded = degraded(result)
		if !res.Degraded {
			return res
		}
		err = errDegraded
	}

	if res.Degraded {
		// the degraded analysis is still the best answer available
		return res
	}
	log.Printf("[BATCH] Task %d (%s, %s) failed: %v", task.Index, task.Keyword, task.Location, err)
	res.Error = err.Error()
	return res
}

// degraded reports whether every provider call of r fell back
func degraded(r *analysis.Result) bool {
	calls := r.Summary.ProviderCalls
	return calls > 0 && len(r.Summary.FallbackQueries) >= calls
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func summarize(r *Report) {
	s := &r.Summary
	s.TotalTasks = len(r.Results)
	s.DurationMs = r.CompletedAt.Sub(r.StartedAt).Milliseconds()
	for _, res := range r.Results {
		if res.Attempts > 1 {
			s.Retries += res.Attempts - 1
		}
		switch {
		case res.Error != "":
			s.Failed++
		case res.Degraded:
			s.Degraded++
			s.Succeeded++
		default:
			s.Succeeded++
		}
	}
}
