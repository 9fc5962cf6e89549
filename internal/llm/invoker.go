package llm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "AgentClay/internal/llm"

var (
	// ErrRateLimitExceeded is returned once a provider's retry budget is
	// spent while throttled.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrTimeout is returned when the final attempt ran past its deadline.
	ErrTimeout = errors.New("provider call timed out")
	// ErrProviderRateLimited marks an error the provider itself reported as a
	// rate limit. Agents wrap it so the invoker retries.
	ErrProviderRateLimited = errors.New("provider reported rate limit")
)

// IsRateLimited reports whether err is a provider-side rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrProviderRateLimited)
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(inv *Invoker) {
		if now != nil {
			inv.now = now
		}
	}
}

// WithSleeper replaces the context-aware wait used between retries.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(inv *Invoker) {
		if sleep != nil {
			inv.sleep = sleep
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) {
		if logger != nil {
			inv.logger = logger
		}
	}
}

// WithTracerProvider sets where invoke spans go. The global provider is
// used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(inv *Invoker) {
		if tp != nil {
			inv.tracer = tp.Tracer(tracerName)
		}
	}
}

// Invoker wraps every outbound agent call with per-provider throttling,
// timeouts and retries. One Invoker is shared by every session of a process.
type Invoker struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter

	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
	tracer trace.Tracer
}

func NewInvoker(opts ...Option) *Invoker {
	inv := &Invoker{
		limiters: make(map[string]*Limiter),
		now:      time.Now,
		sleep:    sleepContext,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Register installs the limiter for a provider, replacing any earlier one.
func (inv *Invoker) Register(provider string, limiter *Limiter) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.limiters[provider] = limiter
}

func (inv *Invoker) Limiter(provider string) (*Limiter, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	l, ok := inv.limiters[provider]
	return l, ok
}

// Invoke runs call under the provider's limits. Each attempt gets its own
// timeout. Timeouts and provider rate limits are retried on the backoff
// schedule; any other error is returned at once. Providers without a
// limiter, or with no ceilings, are called once with the timeout applied.
func (inv *Invoker) Invoke(ctx context.Context, provider string, timeout time.Duration, call func(context.Context) (string, error)) (string, error) {
	ctx, span := inv.tracer.Start(ctx, "llm.invoke", trace.WithAttributes(attribute.String("llm.provider", provider)))
	defer span.End()

	out, attempts, err := inv.invoke(ctx, provider, timeout, call)
	span.SetAttributes(attribute.Int("llm.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (inv *Invoker) invoke(ctx context.Context, provider string, timeout time.Duration, call func(context.Context) (string, error)) (string, int, error) {
	failure := oops.In("llm").Code("provider_failure").With("provider", provider)

	limiter, ok := inv.Limiter(provider)
	if !ok || limiter.Limits().Unlimited() {
		out, err := attempt(ctx, timeout, call)
		if errors.Is(err, ErrTimeout) {
			return "", 1, failure.Wrapf(err, "call %s", provider)
		}
		return out, 1, err
	}

	limits := limiter.Limits()
	schedule := limits.backoff()
	for attempts := 1; ; attempts++ {
		if err := ctx.Err(); err != nil {
			return "", attempts - 1, err
		}

		var cause error
		if reserved, ok := limiter.reserve(inv.now()); ok {
			out, err := attempt(ctx, timeout, call)
			if err != nil {
				limiter.release(reserved)
			}
			switch {
			case err == nil:
				return out, attempts, nil
			case ctx.Err() != nil:
				return "", attempts, ctx.Err()
			case errors.Is(err, ErrTimeout):
				cause = ErrTimeout
			case IsRateLimited(err):
				cause = ErrRateLimitExceeded
			default:
				return "", attempts, err
			}
		} else {
			cause = ErrRateLimitExceeded
		}

		if attempts > limits.MaxRetries {
			return "", attempts, failure.Wrapf(cause, "call %s: gave up after %d attempts", provider, attempts)
		}
		delay := schedule.NextBackOff()
		inv.logger.Debug("provider throttled, backing off",
			"provider", provider, "attempt", attempts, "delay", delay, "cause", cause)
		if err := inv.sleep(ctx, delay); err != nil {
			return "", attempts, err
		}
	}
}

// attempt runs one call under its own deadline. A call that ignores its
// context is abandoned when the deadline passes.
func attempt(ctx context.Context, timeout time.Duration, call func(context.Context) (string, error)) (string, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := call(attemptCtx)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return r.out, r.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", ErrTimeout
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
