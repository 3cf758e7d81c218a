// Package worker provides a bounded worker pool for querying gateway
// providers concurrently.
//
// The models command uses it to probe every known provider at once so a
// slow or broken provider does not hold up the others.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/igw/pkg/llm"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// ErrNoLister is returned by NewPool when Config.Lister is nil.
var ErrNoLister = errors.New("worker pool requires a model lister")

// Lister is the part of the gateway client the pool needs.
type Lister interface {
	ListModelsByProvider(ctx context.Context, provider llm.Provider) (*llm.ProviderModels, error)
}

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Provider llm.Provider
}

// Result is the outcome of one Job.
type Result struct {
	Provider llm.Provider
	Models   *llm.ProviderModels
	Err      error
	Duration time.Duration

	seq int
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Lister answers the per-provider model queries.
	Lister Lister

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

type queued struct {
	job Job
	seq int
}

// Pool runs provider queries on a fixed set of goroutines.
type Pool struct {
	config *Config
	ctx    context.Context
	queue  chan queued
	wg     sync.WaitGroup
	logger *zap.Logger

	mu      sync.Mutex
	seq     int
	results []Result
}

// NewPool creates a Pool and starts its worker goroutines. Jobs run with
// ctx; cancelling it fails the remaining jobs quickly.
func NewPool(ctx context.Context, c *Config) (*Pool, error) {
	if c.Lister == nil {
		return nil, ErrNoLister
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	wp := &Pool{
		config: c,
		ctx:    ctx,
		queue:  make(chan queued, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	p.mu.Lock()
	seq := p.seq
	p.seq++
	p.mu.Unlock()

	select {
	case p.queue <- queued{job: job, seq: seq}:
		p.logger.Debug("job queued", zap.String("provider", job.Provider.String()))
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			zap.String("provider", job.Provider.String()),
		)
		return false
	}
}

// Close stops accepting jobs, waits for in-flight jobs and returns every
// result in the order the jobs were enqueued.
func (p *Pool) Close() []Result {
	close(p.queue)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	sort.Slice(p.results, func(i, j int) bool {
		return p.results[i].seq < p.results[j].seq
	})
	return p.results
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", zap.Uint("worker_id", id))

	for q := range p.queue {
		res := p.processJob(q.job)
		res.seq = q.seq

		p.mu.Lock()
		p.results = append(p.results, res)
		p.mu.Unlock()
	}

	p.logger.Debug("worker stopped", zap.Uint("worker_id", id))
}

func (p *Pool) processJob(job Job) Result {
	start := time.Now()
	models, err := p.config.Lister.ListModelsByProvider(p.ctx, job.Provider)
	res := Result{
		Provider: job.Provider,
		Models:   models,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		p.logger.Debug("provider query failed",
			zap.String("provider", job.Provider.String()),
			zap.Error(err),
		)
		return res
	}

	p.logger.Debug("provider queried",
		zap.String("provider", job.Provider.String()),
		zap.Int("model_count", len(models.Models)),
		zap.Duration("duration", res.Duration),
	)
	return res
}

// Probe queries every provider through a pool of numWorkers goroutines and
// returns the results in the order of providers.
func Probe(ctx context.Context, lister Lister, providers []llm.Provider, numWorkers uint, logger *zap.Logger) ([]Result, error) {
	size := uint(len(providers))
	if size == 0 {
		return nil, nil
	}

	pool, err := NewPool(ctx, &Config{
		Lister:     lister,
		NumWorkers: numWorkers,
		QueueSize:  size,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range providers {
		pool.Enqueue(Job{Provider: p})
	}
	return pool.Close(), nil
}
