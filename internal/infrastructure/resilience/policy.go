package resilience

import "time"

// Policy tunes retries and the per-operation circuit breaker guarding an
// external store or broker.
type Policy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	Breaker             bool
	MinRequests         uint32
	FailureRatio        float64
	OpenTimeout         time.Duration
	HalfOpenMaxRequests uint32
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:       3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Multiplier:     2.0,

		Breaker:             true,
		MinRequests:         5,
		FailureRatio:        0.5,
		OpenTimeout:         15 * time.Second,
		HalfOpenMaxRequests: 1,
	}
}

func (p Policy) withDefaults() Policy {
	out := p
	def := DefaultPolicy()

	if out.Attempts <= 0 {
		out.Attempts = def.Attempts
	}
	if out.InitialBackoff <= 0 {
		out.InitialBackoff = def.InitialBackoff
	}
	if out.MaxBackoff <= 0 {
		out.MaxBackoff = def.MaxBackoff
	}
	if out.MaxBackoff < out.InitialBackoff {
		out.MaxBackoff = out.InitialBackoff
	}
	if out.Multiplier < 1.0 {
		out.Multiplier = def.Multiplier
	}
	if out.MinRequests == 0 {
		out.MinRequests = def.MinRequests
	}
	if out.FailureRatio <= 0 || out.FailureRatio > 1 {
		out.FailureRatio = def.FailureRatio
	}
	if out.OpenTimeout <= 0 {
		out.OpenTimeout = def.OpenTimeout
	}
	if out.HalfOpenMaxRequests == 0 {
		out.HalfOpenMaxRequests = def.HalfOpenMaxRequests
	}
	return out
}
