package retry

import (
	"math"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
)

// Decision is the outcome of consulting the policy for a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// Abandon is the terminal decision.
var Abandon = Decision{}

// Policy is a pure backoff decision function. It holds no task state;
// the coordinator owns attempt counts and next-eligible times.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	MaxAttempts int
}

// DefaultPolicy returns the stock policy: 2s, 4s, 8s, 16s capped at 60s,
// five attempts total.
func DefaultPolicy() *Policy {
	return &Policy{
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2.0,
		MaxAttempts: 5,
	}
}

// Decide returns the action for a task that has just failed its attempt
// number `attempt` (1-based) with an error of the given class. Permanent
// errors abandon immediately regardless of attempt count.
func (p *Policy) Decide(attempt int, class domain.ErrorClass) Decision {
	if class == domain.ClassPermanent {
		return Abandon
	}
	if attempt >= p.MaxAttempts {
		return Abandon
	}
	return Decision{Retry: true, Delay: p.delay(attempt)}
}

// delay computes BaseDelay * Multiplier^(attempt-1) capped at MaxDelay.
func (p *Policy) delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}
