package stepflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// LocalRunner wraps an Engine with a small worker pool so workflows can
// be started and resumed asynchronously within one process.
//
// Typical usage:
//
//	runner := stepflow.NewLocalRunner(stepflow.NewInMemoryEngine())
//	_ = runner.StartWorkers(ctx, 2)
//	defer runner.Stop()
//
//	_ = runner.StartAsync(ctx, "order-1", def, input)
//	...
//	inst, _ := runner.Engine.GetInstance(ctx, "order-1")
//
// Each queued job drives one instance; distinct instances run
// concurrently, one instance never runs on two workers at once because
// jobs are enqueued per call, not polled from shared state.
type LocalRunner struct {
	// Engine executes the queued workflows.
	Engine Engine

	logger *slog.Logger
	jobs   chan runnerJob

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

type runnerJob struct {
	instanceID string
	def        *WorkflowDefinition // nil for resume jobs
	input      map[string]any
}

// NewLocalRunner constructs a LocalRunner around the given engine.
// A nil engine gets a fresh in-memory one.
func NewLocalRunner(eng Engine) *LocalRunner {
	if eng == nil {
		eng = NewInMemoryEngine()
	}
	return &LocalRunner{
		Engine: eng,
		logger: slog.Default(),
		jobs:   make(chan runnerJob, 1024),
	}
}

// StartWorkers starts 'concurrency' worker goroutines that consume
// queued jobs until Stop is called.
//
// If StartWorkers is called more than once without Stop, it returns an error.
func (r *LocalRunner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("stepflow: LocalRunner already started")
	}

	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				case job := <-r.jobs:
					r.process(ctx, job)
				}
			}
		}()
	}

	return nil
}

func (r *LocalRunner) process(ctx context.Context, job runnerJob) {
	var err error
	if job.def != nil {
		_, err = r.Engine.Start(ctx, job.instanceID, job.def, job.input)
	} else {
		_, err = r.Engine.Resume(ctx, job.instanceID)
	}
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	// A failed workflow already carries its error in the stored
	// instance; log so the loop survives bad jobs.
	r.logger.Warn("async workflow run failed",
		slog.String("instance_id", job.instanceID),
		slog.Any("error", err),
	)
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit. Queued jobs that no worker picked up are dropped.
func (r *LocalRunner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// StartAsync queues a workflow start. The instance becomes visible
// through Engine.GetInstance once a worker picks the job up.
func (r *LocalRunner) StartAsync(ctx context.Context, instanceID string, def *WorkflowDefinition, input map[string]any) error {
	if def == nil {
		return errors.New("stepflow: StartAsync requires a definition")
	}
	return r.enqueue(ctx, runnerJob{instanceID: instanceID, def: def, input: input})
}

// ResumeAsync queues a resume of a PENDING, WAITING or PAUSED instance.
func (r *LocalRunner) ResumeAsync(ctx context.Context, instanceID string) error {
	if instanceID == "" {
		return errors.New("stepflow: ResumeAsync requires an instance id")
	}
	return r.enqueue(ctx, runnerJob{instanceID: instanceID})
}

func (r *LocalRunner) enqueue(ctx context.Context, job runnerJob) error {
	select {
	case r.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
