package redis

import "time"

// Backoff returns the pause after the given number of consecutive read failures.
type Backoff interface {
	Delay(failures int) time.Duration
}

type FixedBackoff struct {
	Duration time.Duration
}

func (f FixedBackoff) Delay(int) time.Duration {
	return f.Duration
}

// ExponentialBackoff doubles Base per failure up to MaxDelay.
type ExponentialBackoff struct {
	Base     time.Duration
	MaxDelay time.Duration
}

func (e ExponentialBackoff) Delay(failures int) time.Duration {
	if failures <= 1 {
		return e.Base
	}
	if failures > 62 {
		return e.MaxDelay
	}
	delay := e.Base << uint(failures-1)
	if delay > e.MaxDelay || delay < e.Base {
		return e.MaxDelay
	}
	return delay
}
