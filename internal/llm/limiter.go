package llm

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	// DefaultRetryDelay is the first wait when a provider sets no delay.
	DefaultRetryDelay = time.Second
	// DefaultBackoffMultiplier grows the wait between retries.
	DefaultBackoffMultiplier = 2.0

	maxBackoffInterval = 24 * time.Hour
)

// Limits configures one provider's throttling. Zero ceilings mean no limit
// for that window.
type Limits struct {
	RequestsPerMinute int           `env:"RPM"`
	RequestsPerHour   int           `env:"RPH"`
	MaxRetries        int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryDelay        time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	BackoffMultiplier float64       `env:"BACKOFF_MULTIPLIER" envDefault:"2"`
}

// Unlimited reports whether neither window has a ceiling.
func (l Limits) Unlimited() bool {
	return l.RequestsPerMinute <= 0 && l.RequestsPerHour <= 0
}

func (l Limits) backoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.RetryDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = DefaultRetryDelay
	}
	b.Multiplier = l.BackoffMultiplier
	if b.Multiplier < 1 {
		b.Multiplier = DefaultBackoffMultiplier
	}
	b.RandomizationFactor = 0
	b.MaxInterval = maxBackoffInterval
	b.Reset()
	return b
}

// Limiter counts one provider's requests in the current minute and hour.
// Windows restart lazily on the first check after they expire. It is safe
// for concurrent use.
type Limiter struct {
	limits Limits

	mu          sync.Mutex
	minuteStart time.Time
	hourStart   time.Time
	minuteCount int
	hourCount   int
}

func NewLimiter(limits Limits) *Limiter {
	return &Limiter{limits: limits}
}

func (l *Limiter) Limits() Limits {
	return l.limits
}

// slot is a reservation held while an attempt is in flight. It remembers
// which windows it was counted in.
type slot struct {
	minuteStart time.Time
	hourStart   time.Time
}

// reserve takes a slot in both windows unless either is full. The slot
// counts against the ceilings until it is released.
func (l *Limiter) reserve(now time.Time) (slot, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	if l.limits.RequestsPerMinute > 0 && l.minuteCount >= l.limits.RequestsPerMinute {
		return slot{}, false
	}
	if l.limits.RequestsPerHour > 0 && l.hourCount >= l.limits.RequestsPerHour {
		return slot{}, false
	}
	l.minuteCount++
	l.hourCount++
	return slot{minuteStart: l.minuteStart, hourStart: l.hourStart}, true
}

// release hands back a slot whose attempt did not succeed, so only
// successful sends stay counted. Windows that rolled over since the
// reservation are left alone.
func (l *Limiter) release(s slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.minuteStart.Equal(s.minuteStart) && l.minuteCount > 0 {
		l.minuteCount--
	}
	if l.hourStart.Equal(s.hourStart) && l.hourCount > 0 {
		l.hourCount--
	}
}

// Counts returns the requests counted in the windows current at now.
func (l *Limiter) Counts(now time.Time) (minute, hour int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roll(now)
	return l.minuteCount, l.hourCount
}

func (l *Limiter) roll(now time.Time) {
	if l.minuteStart.IsZero() || now.Sub(l.minuteStart) >= time.Minute {
		l.minuteStart = now
		l.minuteCount = 0
	}
	if l.hourStart.IsZero() || now.Sub(l.hourStart) >= time.Hour {
		l.hourStart = now
		l.hourCount = 0
	}
}
