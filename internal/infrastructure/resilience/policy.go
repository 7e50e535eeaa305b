package resilience

import "time"

// Policy tunes one dependency's executor. Zero values fall back to the
// defaults in normalize.
type Policy struct {
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	BreakerEnabled       bool
	BreakerMinCalls      uint32
	BreakerFailureRatio  float64
	BreakerOpenFor       time.Duration
	BreakerHalfOpenCalls uint32
}

func DefaultPolicy() Policy {
	return Policy{
		RetryAttempts:  3,
		RetryBaseDelay: 200 * time.Millisecond,
		RetryMaxDelay:  2 * time.Second,

		BreakerEnabled:       true,
		BreakerMinCalls:      8,
		BreakerFailureRatio:  0.5,
		BreakerOpenFor:       30 * time.Second,
		BreakerHalfOpenCalls: 2,
	}
}

func (p Policy) normalize() Policy {
	def := DefaultPolicy()
	if p.RetryAttempts <= 0 {
		p.RetryAttempts = def.RetryAttempts
	}
	if p.RetryBaseDelay <= 0 {
		p.RetryBaseDelay = def.RetryBaseDelay
	}
	if p.RetryMaxDelay < p.RetryBaseDelay {
		p.RetryMaxDelay = def.RetryMaxDelay
	}
	if p.RetryMaxDelay < p.RetryBaseDelay {
		p.RetryMaxDelay = p.RetryBaseDelay
	}
	if p.BreakerMinCalls == 0 {
		p.BreakerMinCalls = def.BreakerMinCalls
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if p.BreakerOpenFor <= 0 {
		p.BreakerOpenFor = def.BreakerOpenFor
	}
	if p.BreakerHalfOpenCalls == 0 {
		p.BreakerHalfOpenCalls = def.BreakerHalfOpenCalls
	}
	return p
}
