package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docscope/internal/config"
	"github.com/dgallion1/docscope/internal/store"
)

// ErrQueueFull is returned by Submit when the job queue has no room.
var ErrQueueFull = errors.New("job queue is full")

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	store  store.Store
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, worker *Worker, st store.Store, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, max(cfg.MaxQueueSize, 1)),
		worker: worker,
		store:  st,
		log:    log,
		cfg:    cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.Workers, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.once.Do(func() {
		if o.cancel != nil {
			o.cancel()
		}
		close(o.queue)
		o.wg.Wait()
	})
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError(ErrQueueFull.Error())
		job.SetStatus(StatusFailed, "queue_full")
		return ErrQueueFull
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the document store for direct use by API handlers.
func (o *Orchestrator) Store() store.Store {
	return o.store
}
