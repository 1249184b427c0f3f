package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Preset names accepted by the scraper CLI.
const (
	PresetSafe     = "safe"
	PresetBalanced = "balanced"
	PresetFast     = "fast"
)

// Pacer spaces outbound requests. The token bucket enforces the
// minimum spacing and each wait adds random jitter up to the maximum,
// so page fetches do not land on a fixed beat.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration
}

// NewPacer builds a pacer from a named preset:
// safe 3-5s, balanced 2-3s, fast 1-1.5s between requests.
func NewPacer(preset string) (*Pacer, error) {
	minDelay, maxDelay, err := presetDelays(preset)
	if err != nil {
		return nil, err
	}

	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(minDelay), 1),
		jitter:  maxDelay - minDelay,
	}, nil
}

// NewFixedPacer spaces requests a fixed interval apart with no jitter.
func NewFixedPacer(interval time.Duration) *Pacer {
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// NewCustomPacer spaces requests at least base apart, plus random
// jitter up to variation. Overrides the presets when an operator
// wants exact pacing.
func NewCustomPacer(base, variation time.Duration) *Pacer {
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(base), 1),
		jitter:  variation,
	}
}

// Wait blocks until the next request may go out or the context is
// canceled. The first call on a fresh pacer returns immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	if p.jitter <= 0 {
		return nil
	}

	extra := rand.N(p.jitter + 1)
	timer := time.NewTimer(extra)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func presetDelays(preset string) (minDelay, maxDelay time.Duration, err error) {
	switch preset {
	case PresetSafe:
		return 3 * time.Second, 5 * time.Second, nil
	case PresetBalanced:
		return 2 * time.Second, 3 * time.Second, nil
	case PresetFast:
		return 1 * time.Second, 1500 * time.Millisecond, nil
	default:
		return 0, 0, fmt.Errorf("unknown rate preset %q (valid: safe, balanced, fast)", preset)
	}
}
