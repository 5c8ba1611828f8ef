package queue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/pda/internal/db"
	"github.com/kailas-cloud/pda/internal/metrics"
)

// store is the consumer interface for the task list (ISP).
type store interface {
	LPush(ctx context.Context, key string, values ...[]byte) error
	BRPop(ctx context.Context, key string, timeout time.Duration) ([]byte, error)
}

// Options tune the worker pool.
type Options struct {
	Workers     int
	MaxAttempts int
	PollTimeout time.Duration
	Logger      *zap.Logger
}

// Queue is an at-least-once task queue. Tasks are pushed at the head of one
// list and popped from the tail.
type Queue struct {
	store   store
	key     string
	opts    Options
	logger  *zap.Logger
	running atomic.Bool
	now     func() time.Time
}

// New creates a queue whose list lives at prefix+"tasks".
func New(s store, prefix string, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{store: s, key: prefix + "tasks", opts: opts, logger: logger, now: time.Now}
}

// Enqueue schedules a POST to path with params.
func (q *Queue) Enqueue(ctx context.Context, path string, params url.Values) error {
	return q.push(ctx, NewTask(path, params, q.now()))
}

func (q *Queue) push(ctx context.Context, t Task) error {
	data, err := encodeTask(t)
	if err != nil {
		return err
	}
	if err := q.store.LPush(ctx, q.key, data); err != nil {
		return fmt.Errorf("enqueue %s: %w", t.Path, err)
	}
	return nil
}

// Running reports whether workers are consuming tasks.
func (q *Queue) Running() bool {
	return q.running.Load()
}

// Run starts the worker pool and blocks until ctx is cancelled.
// Each task is dispatched to h as a form POST.
func (q *Queue) Run(ctx context.Context, h http.Handler) error {
	q.running.Store(true)
	defer q.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	for i := range q.opts.Workers {
		g.Go(func() error {
			return q.work(gctx, i, h)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("queue workers: %w", err)
	}
	return nil
}

func (q *Queue) work(ctx context.Context, id int, h http.Handler) error {
	log := q.logger.With(zap.Int("worker", id))
	for {
		if ctx.Err() != nil {
			return nil
		}
		data, err := q.store.BRPop(ctx, q.key, q.opts.PollTimeout)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("Task poll failed", zap.Error(err))
			if !sleep(ctx, time.Second) {
				return nil
			}
			continue
		}

		t, err := decodeTask(data)
		if err != nil {
			log.Error("Dropping undecodable task", zap.Error(err))
			continue
		}
		q.handle(ctx, log, h, t)
	}
}

// handle dispatches t once and re-enqueues it on failure until MaxAttempts.
func (q *Queue) handle(ctx context.Context, log *zap.Logger, h http.Handler, t Task) {
	t.Attempts++
	status := Dispatch(ctx, h, t)
	fields := []zap.Field{
		zap.String("task_id", t.ID),
		zap.String("path", t.Path),
		zap.Int("attempt", t.Attempts),
		zap.Int("status", status),
	}

	if status >= 200 && status < 300 {
		metrics.TasksTotal.WithLabelValues(t.Path, metrics.StatusOK).Inc()
		log.Debug("Task done", fields...)
		return
	}

	if t.Attempts >= q.opts.MaxAttempts {
		metrics.TasksTotal.WithLabelValues(t.Path, metrics.StatusDropped).Inc()
		log.Error("Task dropped after max attempts", fields...)
		return
	}

	metrics.TasksTotal.WithLabelValues(t.Path, metrics.StatusRetry).Inc()
	log.Warn("Task failed, retrying", fields...)
	// the worker context may already be cancelled during shutdown
	if err := q.push(context.WithoutCancel(ctx), t); err != nil {
		log.Error("Task requeue failed", append(fields, zap.Error(err))...)
	}
}

// Dispatch runs t against h as a form POST and returns the response status.
func Dispatch(ctx context.Context, h http.Handler, t Task) int {
	body := t.Params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Path, strings.NewReader(body))
	if err != nil {
		return http.StatusBadRequest
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	req.Header.Set(metrics.TaskHeader, t.ID)

	rw := &discardWriter{header: make(http.Header)}
	h.ServeHTTP(rw, req)
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// discardWriter keeps only the status of a dispatched task.
type discardWriter struct {
	header http.Header
	status int
}

func (w *discardWriter) Header() http.Header { return w.header }

func (w *discardWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return len(b), nil
}

func (w *discardWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
