package usecase

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out calls to the mail provider.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer sleeps a constant delay before each call.
type FixedPacer struct {
	Delay time.Duration
}

func (p FixedPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type ratePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer allows perSecond calls with the given burst.
func NewRatePacer(perSecond float64, burst int) Pacer {
	if burst < 1 {
		burst = 1
	}
	return &ratePacer{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (p *ratePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NewPacer picks a token bucket when perSecond is set, else a fixed delay.
func NewPacer(delay time.Duration, perSecond float64) Pacer {
	if perSecond > 0 {
		return NewRatePacer(perSecond, 1)
	}
	return FixedPacer{Delay: delay}
}
