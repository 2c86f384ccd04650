package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/metrics"
	"github.com/m3rciful/furnibot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	ErrQueueFull   = errors.New("telegram sender: queue full")
)

// Options controls the outbound dispatcher. Zero values pick defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job including retries.
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

// Dispatcher runs outbound Bot API calls on a worker pool with retries.
type Dispatcher struct {
	opts Options
	jobs chan job
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
		stop: make(chan struct{}),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run without blocking. run must be safe to repeat.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	select {
	case <-d.stop:
		return ErrQueueClosed
	default:
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that failed after all attempts.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and drains the queue.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
		close(d.jobs)
		d.wg.Wait()
	})
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	deadlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	maxAttempts := d.opts.MaxRetries + 1
	var lastErr error

attempts:
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := deadlineCtx.Err(); err != nil {
			lastErr = err
			break
		}
		lastErr = j.run()
		if lastErr == nil {
			if attempt > 1 {
				logger.LogEvent(ctx, logger.Sender, slog.LevelInfo, "send.retry.success",
					append(sendLogAttrs(j), slog.Int("attempt", attempt))...)
			}
			logger.LogEvent(ctx, logger.Sender, slog.LevelDebug, "send.success",
				append(sendLogAttrs(j), slog.Duration("duration", time.Since(start)))...)
			return
		}
		if !netutil.ShouldRetry(lastErr) || attempt == maxAttempts {
			break
		}

		delay := retryDelay(lastErr, d.opts.RetryBackoff, attempt)
		logger.LogEvent(ctx, logger.Sender, slog.LevelDebug, "send.retry.backoff",
			append(sendLogAttrs(j), slog.Int("attempt", attempt), slog.Duration("backoff", delay))...)
		timer := time.NewTimer(delay)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
			lastErr = deadlineCtx.Err()
			break attempts
		case <-timer.C:
		}
	}

	d.errs.Add(1)
	kind := classifyError(lastErr)
	metrics.Get().SendFailed(kind)
	logger.LogEvent(ctx, logger.Sender, slog.LevelError, "send.fail",
		append(sendLogAttrs(j),
			slog.String("status", logger.StatusFail),
			slog.String("err", sanitizeErrorMessage(lastErr)),
			slog.String("err_kind", kind),
			slog.Int("attempts", maxAttempts),
			slog.Duration("duration", time.Since(start)),
		)...)
}

// retryDelay honours Telegram's retry_after on flood control, otherwise backs off linearly.
func retryDelay(err error, base time.Duration, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return base * time.Duration(attempt)
}

func sendLogAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}
