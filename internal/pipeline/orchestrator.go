package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/quotesheet/internal/config"
)

// ErrStopped is returned by Submit once the orchestrator has been stopped.
var ErrStopped = errors.New("batch pipeline is shutting down")

// Orchestrator queues batches and runs them on a fixed pool of workers.
type Orchestrator struct {
	batches *BatchStore
	queue   chan *Batch
	proc    *Processor
	log     *slog.Logger
	cfg     config.Config

	// mu guards stopped and sends on queue against Stop closing it.
	mu      sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, proc *Processor, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		batches: NewBatchStore(cfg.JobTTL),
		queue:   make(chan *Batch, cfg.MaxQueueSize),
		proc:    proc,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case b, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, b)
				}
			}
		}()
	}

	// Start batch store cleanup.
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
				o.batches.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Lock()
	if !o.stopped {
		o.stopped = true
		close(o.queue)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Submit validates and queues a batch for processing.
func (o *Orchestrator) Submit(b *Batch) error {
	if err := o.proc.Validate(b.Progress.TotalDocuments); err != nil {
		return err
	}
	o.batches.Put(b)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		b.Finish(nil, ErrStopped)
		return ErrStopped
	}
	select {
	case o.queue <- b:
		return nil
	default:
		err := fmt.Errorf("batch queue is full (%d)", o.cfg.MaxQueueSize)
		b.Finish(nil, err)
		return err
	}
}

// Extract runs a batch on the calling goroutine and keeps it in the store,
// so its exports can be downloaded like those of a queued batch. The
// returned error is the batch's own failure, if any.
func (o *Orchestrator) Extract(ctx context.Context, b *Batch) error {
	if err := o.proc.Validate(b.Progress.TotalDocuments); err != nil {
		return err
	}
	o.batches.Put(b)
	return o.process(ctx, b)
}

// GetBatch returns a batch by ID.
func (o *Orchestrator) GetBatch(id string) *Batch {
	return o.batches.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Processor returns the processor shared by the workers.
func (o *Orchestrator) Processor() *Processor {
	return o.proc
}

func (o *Orchestrator) process(ctx context.Context, b *Batch) error {
	log := o.log.With("batch_id", b.ID)
	docs := b.takeDocuments()
	b.SetStatus(StatusProcessing, "extracting")
	log.Info("batch started", "documents", len(docs))

	res, err := o.proc.Run(ctx, docs, b.Run, func(done, total int, filename string) {
		b.SetProgress(done, filename)
	})
	b.Finish(res, err)

	if err != nil {
		log.Warn("batch failed", "error", err)
		return err
	}
	log.Info("batch completed", "line_items", len(res.Records), "warnings", len(res.Warnings))
	return nil
}
