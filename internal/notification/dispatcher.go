package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/rti-filing/internal/observability"
)

type Job struct {
	FormType   string
	Data       FormData
	EnqueuedAt time.Time
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			// register as idle before waiting for work
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing notification", "worker_id", w.ID, "form_type", job.FormType)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Dispatcher runs notification jobs on a bounded pool of workers, off the
// request path. A full queue drops the job.
type Dispatcher struct {
	notifier   Notifier
	jobTimeout time.Duration
	logger     *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int

	// ctx stops the dispatch loop and idle workers; sendCtx bounds in-flight sends
	ctx        context.Context
	cancel     context.CancelFunc
	sendCtx    context.Context
	sendCancel context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(cfg DispatcherConfig, notifier Notifier, logger *slog.Logger) *Dispatcher {
	maxWorkers := cfg.Workers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	sendCtx, sendCancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		notifier:   notifier,
		jobTimeout: jobTimeout,
		logger:     logger,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		sendCtx:    sendCtx,
		sendCancel: sendCancel,
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			NewWorker(i, d.workerPool, d.logger).Start(d.ctx, &d.wg, d.process)
		}

		d.wg.Add(1)
		go d.dispatch()

		d.logger.Info("notification worker pool started",
			"max_workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

// Enqueue hands a job to the pool without blocking. It reports false when
// the queue is full or the dispatcher is shutting down.
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dispatcher closed, job dropped", "form_type", job.FormType)
		return false
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	select {
	case d.jobQueue <- job:
		observability.NotificationQueueDepth.Set(float64(len(d.jobQueue)))
		return true
	default:
		d.logger.Warn("notification queue full, job dropped",
			"form_type", job.FormType,
			"reference_id", job.Data.ReferenceID,
			"queue_capacity", cap(d.jobQueue))
		observability.Notifications.WithLabelValues("queue", "dropped").Inc()
		return false
	}
}

func (d *Dispatcher) dispatch() {
	defer d.wg.Done()

	for {
		select {
		case job, ok := <-d.jobQueue:
			if !ok {
				// queue closed and drained: release idle workers
				d.cancel()
				return
			}
			observability.NotificationQueueDepth.Set(float64(len(d.jobQueue)))

			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.ctx.Done():
					d.logger.Info("notification dispatcher shutting down")
					return
				}
			case <-d.ctx.Done():
				d.logger.Info("notification dispatcher shutting down")
				return
			}
		case <-d.ctx.Done():
			d.logger.Info("notification dispatcher shutting down")
			return
		}
	}
}

func (d *Dispatcher) process(job Job) {
	ctx, cancel := context.WithTimeout(d.sendCtx, d.jobTimeout)
	defer cancel()

	Notify(ctx, d.notifier, d.logger, job.FormType, job.Data)
	d.logger.Debug("notification job finished", "form_type", job.FormType, "queued_for", time.Since(job.EnqueuedAt))
}

// Shutdown stops accepting jobs and lets the workers drain the queue. If ctx
// expires first, in-flight sends are cancelled and ctx.Err is returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.logger.Info("shutting down notification dispatcher", "pending", len(d.jobQueue))

	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobQueue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.sendCancel()
		observability.NotificationQueueDepth.Set(0)
		d.logger.Info("notification dispatcher shutdown complete")
		return nil
	case <-ctx.Done():
		d.sendCancel()
		d.cancel()
		<-done
		return ctx.Err()
	}
}
