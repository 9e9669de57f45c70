package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/twphl/ddb-harvester/pkg/logger"
	"github.com/twphl/ddb-harvester/pkg/oai"
	"github.com/twphl/ddb-harvester/pkg/ratelimit"
)

// Job represents a single record fetch task
type Job struct {
	Set        string
	Identifier string
}

// Result represents the outcome of a fetch job
type Result struct {
	Job      Job
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int
}

// RecordFetcher fetches individual records from the endpoint
type RecordFetcher interface {
	GetRecord(ctx context.Context, identifier string) (*oai.Record, []byte, error)
}

// RecordStorage stores fetched records
type RecordStorage interface {
	IsSaved(set, identifier string) bool
	SaveRecord(r io.Reader, set, identifier string) error
}

// Pool manages concurrent record fetch workers
type Pool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	mu          sync.Mutex
	stopped     bool
	ctx         context.Context
	cancel      context.CancelFunc
	client      RecordFetcher
	storage     RecordStorage
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// NewPool creates a new fetch worker pool
func NewPool(
	ctx context.Context,
	numWorkers int,
	client RecordFetcher,
	storage RecordStorage,
	rateLimiter ratelimit.Limiter,
	log logger.Logger,
) *Pool {
	ctx, cancel := context.WithCancel(ctx)

	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2), // Buffer size = 2x workers
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		client:      client,
		storage:     storage,
		rateLimiter: rateLimiter,
		logger:      log,
	}
}

// Start initializes and starts all workers
func (p *Pool) Start() {
	p.logger.InfoWithFields("starting fetch pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully shuts down the pool, draining queued jobs first
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.jobQueue)
	p.wg.Wait()
	close(p.resultQueue)
	p.cancel()

	p.logger.Info("fetch pool stopped")
}

// Submit adds a new fetch job to the queue. Submit and Stop must be called
// from the same goroutine.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		return fmt.Errorf("fetch pool is shutting down")
	}

	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("fetch pool is shutting down")
	}
}

// Results returns the result channel for consuming fetch results
func (p *Pool) Results() <-chan Result {
	return p.resultQueue
}

// worker is the main worker routine
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job, id)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// processJob handles a single record fetch
func (p *Pool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	if p.storage.IsSaved(job.Set, job.Identifier) {
		p.logger.DebugWithFields("record already on disk", map[string]interface{}{
			"worker_id":  workerID,
			"identifier": job.Identifier,
		})
		result.Success = true
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if !p.rateLimiter.Allow() {
		p.rateLimiter.Wait()
	}

	_, body, err := p.client.GetRecord(p.ctx, job.Identifier)
	if err != nil {
		result.Error = fmt.Errorf("fetch failed: %w", err)
		result.Duration = time.Since(start)

		p.logger.ErrorWithFields("worker failed to fetch record", map[string]interface{}{
			"worker_id":  workerID,
			"set":        job.Set,
			"identifier": job.Identifier,
			"error":      err.Error(),
			"duration":   result.Duration,
		})

		return result
	}

	result.Size = len(body)

	if err := p.storage.SaveRecord(bytes.NewReader(body), job.Set, job.Identifier); err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		p.logger.ErrorWithFields("worker failed to save record", map[string]interface{}{
			"worker_id":  workerID,
			"set":        job.Set,
			"identifier": job.Identifier,
			"error":      err.Error(),
			"size":       result.Size,
		})

		return result
	}

	result.Success = true
	result.Duration = time.Since(start)

	p.logger.DebugWithFields("record fetched", map[string]interface{}{
		"worker_id":  workerID,
		"identifier": job.Identifier,
		"size":       result.Size,
		"duration":   result.Duration,
	})

	return result
}

// QueueSize returns the current number of jobs in the queue
func (p *Pool) QueueSize() int {
	return len(p.jobQueue)
}

// Workers returns the number of workers
func (p *Pool) Workers() int {
	return p.numWorkers
}
