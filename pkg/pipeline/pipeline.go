// Package pipeline runs the ingestion task graph: every collector's batch is
// an independent pipeline instance that fans items out to the identity and
// decomposition transforms and fans back in for a single load-stage call.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"membrain/pkg/collector"
	"membrain/pkg/db"
	"membrain/pkg/domain"
)

// Identifier derives an item's content identity, marking it ready on success
type Identifier interface {
	Extract(ctx context.Context, item *domain.Item) error
}

// Decomposer populates an item's linguistic hierarchy
type Decomposer interface {
	Decompose(item *domain.Item)
}

// Loader persists a batch of items
type Loader interface {
	LoadBatch(ctx context.Context, items []*domain.Item) db.LoadResult
}

// Config holds runner configuration
type Config struct {
	BatchSize  int // items requested per collector, default 100
	MaxWorkers int // concurrent transform workers per batch, default 5
}

// BatchStat records one completed batch for observability
type BatchStat struct {
	Collector string        `json:"collector"`
	Total     int           `json:"total"`
	Ready     int           `json:"ready"`
	Loaded    int           `json:"loaded"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// statHistory bounds the stats kept for the status endpoint
const statHistory = 100

// Runner schedules batches across collectors
type Runner struct {
	collectors []collector.Collector
	identifier Identifier
	decomposer Decomposer
	loader     Loader
	batchSize  int
	maxWorkers int

	mu    sync.Mutex
	stats []BatchStat
}

// New creates a runner over the given collectors and stages
func New(collectors []collector.Collector, identifier Identifier, decomposer Decomposer, loader Loader, cfg Config) *Runner {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 5
	}
	return &Runner{
		collectors: collectors,
		identifier: identifier,
		decomposer: decomposer,
		loader:     loader,
		batchSize:  cfg.BatchSize,
		maxWorkers: cfg.MaxWorkers,
	}
}

// Run executes one batch per collector, all collectors concurrently. A
// failed or empty batch never affects a sibling collector; Run only returns
// the context's error, one bad item or source cannot fail the run.
func (r *Runner) Run(ctx context.Context) error {
	lgr.Printf("[INFO] running ingestion for %d collectors, batch size %d", len(r.collectors), r.batchSize)

	var g errgroup.Group
	for _, col := range r.collectors {
		g.Go(func() error {
			r.runBatch(ctx, col)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures are logged per batch

	return ctx.Err()
}

// runBatch drives one collector's batch through extract, transform and load
func (r *Runner) runBatch(ctx context.Context, col collector.Collector) {
	started := time.Now()

	items, err := col.Extract(ctx, r.batchSize)
	if err != nil {
		lgr.Printf("[ERROR] extraction failed for %s: %v", col.Name(), err)
		r.record(BatchStat{Collector: col.Name(), StartedAt: started, Duration: time.Since(started)})
		return
	}
	lgr.Printf("[INFO] %s extracted %d items", col.Name(), len(items))

	r.transform(ctx, items)

	// single load call per batch, after the join
	res := r.loader.LoadBatch(ctx, items)

	r.record(BatchStat{
		Collector: col.Name(),
		Total:     res.Total,
		Ready:     res.Ready,
		Loaded:    res.Loaded,
		StartedAt: started,
		Duration:  time.Since(started),
	})
}

// transform runs the two transform stages over the batch. The stages are
// mutually independent and run concurrently per item, bounded by a worker
// semaphore; every failure stays local to its item.
func (r *Runner) transform(ctx context.Context, items []*domain.Item) {
	sem := make(chan struct{}, r.maxWorkers)
	var wg sync.WaitGroup

	run := func(fn func()) {
		defer wg.Done()
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return
		}
		fn()
	}

	for _, item := range items {
		wg.Add(2)
		go run(func() {
			if err := r.identifier.Extract(ctx, item); err != nil {
				lgr.Printf("[WARN] identity derivation failed for %s: %v", item.SourceURL, err)
			}
		})
		go run(func() {
			r.decomposer.Decompose(item)
		})
	}

	wg.Wait()
}

// record appends a batch stat, keeping a bounded history
func (r *Runner) record(stat BatchStat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, stat)
	if len(r.stats) > statHistory {
		r.stats = r.stats[len(r.stats)-statHistory:]
	}
}

// Stats returns a copy of the recorded batch stats, newest last
func (r *Runner) Stats() []BatchStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BatchStat, len(r.stats))
	copy(out, r.stats)
	return out
}
