// Package sender runs outbound Telegram calls on a small worker pool so handlers
// return as soon as the reply is queued.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/core/telegram/netutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	sentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "sent_total",
		Help:      "Outbound Telegram calls by action and result.",
	}, []string{"action", "result"})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lessonbot",
		Subsystem: "tg",
		Name:      "send_queue_depth",
		Help:      "Jobs waiting in the outbound queue.",
	})
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on a single job, flood waits included.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts Options
	jobs chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts the workers; zero options fall back to defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run. It is retried on transient failures, so it must be safe to repeat.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		queueDepth.Inc()
		return nil
	default:
		sentTotal.WithLabelValues(action, "queue_full").Inc()
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that finally failed.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close drains queued jobs and stops the workers. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		queueDepth.Dec()
		d.process(j)
	}
}

func (d *Dispatcher) process(j job) {
	start := time.Now()
	attempts, err := d.attempt(j)

	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.String("endpoint", j.endpoint),
		slog.Int("attempts", attempts),
		slog.Duration("duration", logger.Took(start)),
	}
	if err == nil {
		sentTotal.WithLabelValues(j.action, "ok").Inc()
		if attempts > 1 {
			logger.Info(j.ctx, "tg.sender", "send.retry.success", attrs...)
		}
		return
	}

	d.errs.Add(1)
	kind := netutil.Kind(err)
	sentTotal.WithLabelValues(j.action, kind).Inc()
	logger.Error(j.ctx, "tg.sender", "send.fail", append(attrs,
		slog.String("status", "fail"),
		slog.String("err", netutil.Redact(err.Error())),
		slog.String("err_kind", kind),
	)...)
}

// attempt runs the job until it succeeds, fails permanently or runs out of budget.
// A flood error waits exactly as long as Telegram asked and does not use up a retry.
func (d *Dispatcher) attempt(j job) (int, error) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	retries := 0
	for n := 1; ; n++ {
		err := j.run()
		if err == nil {
			return n, nil
		}

		var delay time.Duration
		if wait, flood := netutil.RetryAfter(err); flood {
			delay = wait
		} else {
			if !netutil.ShouldRetry(err) || retries >= d.opts.MaxRetries {
				return n, err
			}
			retries++
			delay = d.opts.RetryBackoff * time.Duration(retries)
		}

		logger.Debug(j.ctx, "tg.sender", "send.retry",
			slog.String("status", "retry"),
			slog.String("action", j.action),
			slog.Int("attempt", n),
			slog.Duration("delay", delay),
			slog.String("err_kind", netutil.Kind(err)),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
