// Package queue is an in-memory work queue for screenshot scan jobs.
// Channels distribute jobs to a bounded worker pool; failed jobs re-enqueue
// with linear backoff up to a retry cap. Suitable for a single-instance
// deployment, which is all a personal capture daemon needs.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a scan job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRetrying  Status = "retrying"
)

// ScanJob asks a worker to run the capture pipeline on one image file.
type ScanJob struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Handler processes one job. A returned error means the job failed and
// should be retried; zero bills extracted is not an error.
type Handler func(ctx context.Context, job *ScanJob) error

// Queue distributes scan jobs to workers.
type Queue struct {
	jobChan   chan *ScanJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	workers   int

	trackMu sync.RWMutex
	tracked map[string]ScanJob
}

// New creates a queue. bufferSize bounds how many jobs may wait before
// Publish blocks; workers bounds concurrent handlers.
func New(bufferSize, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		jobChan:   make(chan *ScanJob, bufferSize),
		closeChan: make(chan struct{}),
		workers:   workers,
		tracked:   make(map[string]ScanJob),
	}
}

// Publish enqueues a scan job for asynchronous processing.
func (q *Queue) Publish(ctx context.Context, job *ScanJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = StatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}
	q.track(job)

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start launches the worker pool. Workers run until the context is
// canceled or the queue is stopped.
func (q *Queue) Start(ctx context.Context, handler Handler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}
			q.process(ctx, job, handler)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *ScanJob, handler Handler) {
	job.Status = StatusRunning
	now := time.Now()
	job.StartedAt = &now
	q.track(job)

	err := handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()
		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = StatusRetrying
			q.track(job)

			backoff := time.Duration(job.RetryCount) * time.Second
			time.AfterFunc(backoff, func() {
				job.Status = StatusPending
				job.StartedAt = nil
				job.CompletedAt = nil
				_ = q.Publish(context.Background(), job)
			})
			return
		}
		job.Status = StatusFailed
		q.track(job)
		return
	}

	job.Status = StatusCompleted
	job.Error = ""
	q.track(job)
}

// track records a snapshot of the job's current state.
func (q *Queue) track(job *ScanJob) {
	q.trackMu.Lock()
	defer q.trackMu.Unlock()
	q.tracked[job.ID] = *job
}

// Job returns the last recorded state of a job.
func (q *Queue) Job(id string) (ScanJob, bool) {
	q.trackMu.RLock()
	defer q.trackMu.RUnlock()
	job, ok := q.tracked[id]
	return job, ok
}

// Jobs returns the last recorded state of every job seen by the queue.
func (q *Queue) Jobs() []ScanJob {
	q.trackMu.RLock()
	defer q.trackMu.RUnlock()
	out := make([]ScanJob, 0, len(q.tracked))
	for _, job := range q.tracked {
		out = append(out, job)
	}
	return out
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
