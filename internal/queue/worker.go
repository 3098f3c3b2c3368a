package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// WorkerPool consumes the evaluation queue with a fixed number of workers.
// Throughput is capped by a token bucket refilled once per window, so a
// burst of completed sessions cannot saturate the AI provider.
type WorkerPool struct {
	queue         *RedisQueue
	handler       Handler
	workers       int
	jobsPerWindow int
	window        time.Duration
	logger        *zap.Logger

	tokens chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	processed int64
	failed    int64
}

func NewWorkerPool(queue *RedisQueue, handler Handler, workers, jobsPerWindow int, window time.Duration, logger *zap.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if jobsPerWindow < 1 {
		jobsPerWindow = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WorkerPool{
		queue:         queue,
		handler:       handler,
		workers:       workers,
		jobsPerWindow: jobsPerWindow,
		window:        window,
		logger:        logger,
		tokens:        make(chan struct{}, jobsPerWindow),
	}
}

// Start launches the worker goroutines and the rate-limit refiller.
func (wp *WorkerPool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	wp.cancel = cancel

	wp.logger.Info("Starting evaluation worker pool",
		zap.Int("workers", wp.workers),
		zap.Int("jobsPerWindow", wp.jobsPerWindow),
		zap.Duration("window", wp.window))

	wp.refill()
	wp.wg.Add(1)
	go wp.refillLoop(ctx)

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Stop cancels all workers and waits for in-flight jobs to finish.
func (wp *WorkerPool) Stop() {
	if wp.cancel != nil {
		wp.cancel()
	}
	wp.wg.Wait()
}

func (wp *WorkerPool) refillLoop(ctx context.Context) {
	defer wp.wg.Done()
	ticker := time.NewTicker(wp.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wp.refill()
		}
	}
}

func (wp *WorkerPool) refill() {
	for i := 0; i < wp.jobsPerWindow; i++ {
		select {
		case wp.tokens <- struct{}{}:
		default:
			return
		}
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-wp.tokens:
		}

		msg, ok, err := wp.queue.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wp.logger.Error("Queue pop failed", zap.Int("workerId", id), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			// Nothing waiting; give the token back.
			select {
			case wp.tokens <- struct{}{}:
			default:
			}
			continue
		}

		start := time.Now()
		if err := wp.handler(ctx, msg); err != nil {
			atomic.AddInt64(&wp.failed, 1)
			wp.logger.Error("Evaluation job failed",
				zap.Int("workerId", id),
				zap.String("sessionId", msg.SessionID),
				zap.Int("attempt", msg.Attempt),
				zap.Error(err))
			if retryErr := wp.queue.Retry(ctx, msg); retryErr != nil {
				wp.logger.Error("Failed to re-enqueue evaluation job",
					zap.String("sessionId", msg.SessionID), zap.Error(retryErr))
			}
			continue
		}

		atomic.AddInt64(&wp.processed, 1)
		wp.logger.Info("Evaluation job completed",
			zap.Int("workerId", id),
			zap.String("sessionId", msg.SessionID),
			zap.Duration("took", time.Since(start)))
	}
}

// Stats returns processed/failed counters for readiness reporting.
func (wp *WorkerPool) Stats() (processed, failed int64) {
	return atomic.LoadInt64(&wp.processed), atomic.LoadInt64(&wp.failed)
}
