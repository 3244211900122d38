package locations

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time so pacing can be tested without sleeping.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
func RealClock() Clock { return realClock{} }

// Pacer spaces calls at least delay apart across every goroutine sharing it,
// including the first call after construction. One Pacer per process guards
// the public geocoder.
type Pacer struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	clock   Clock
	delay   time.Duration
}

func NewPacer(delay time.Duration, clock Clock) *Pacer {
	if delay <= 0 {
		delay = 1100 * time.Millisecond
	}
	if clock == nil {
		clock = realClock{}
	}
	limiter := rate.NewLimiter(rate.Every(delay), 1)
	// start with the bucket empty so the first call also waits
	limiter.ReserveN(clock.Now(), 1)
	return &Pacer{
		limiter: limiter,
		clock:   clock,
		delay:   delay,
	}
}

// Wait blocks until the caller may issue the next call. Callers queue on the
// mutex, so they leave in arrival order.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	r := p.limiter.ReserveN(now, 1)
	if !r.OK() {
		return errors.New("pacer: reservation refused")
	}
	d := r.DelayFrom(now)
	if d <= 0 {
		return nil
	}
	select {
	case <-p.clock.After(d):
		return nil
	case <-ctx.Done():
		r.CancelAt(p.clock.Now())
		return ctx.Err()
	}
}

func (p *Pacer) Delay() time.Duration { return p.delay }
