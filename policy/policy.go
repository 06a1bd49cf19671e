// Package policy provides a simple, optional backpressure layer that can be
// attached to a run via context. It is deliberately decoupled from the rest
// of the node so that using it is entirely opt-in: sessions that find no
// Policy in their context keep the default unbounded-wait behaviour.

package policy

import "context"

// Backpressure modes recognised by the netstack.
const (
	ModeWait = "wait" // park until memory frees, retry without bound (default)
	ModeDeny = "deny" // fail the session once the attempt bound is exhausted
)

// Policy represents the allocation-backpressure settings for the current
// run.
//
//   - Mode controls the high-level behaviour (wait / deny).
//   - MaxAttempts caps allocation tries per pair and only matters under
//     ModeDeny; zero denies on the first failed attempt.
//
// A nil *Policy means "wait without bound" and is therefore the zero-cost
// default.
type Policy struct {
	Mode        string `json:"mode,omitempty" yaml:"mode,omitempty"`
	MaxAttempts int    `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty"`
}

// AllowRetry reports whether a session that has already made attempts
// allocation tries for the current pair may park for a freed slot and try
// again.
func (p *Policy) AllowRetry(attempts int) bool {
	if p == nil || p.Mode != ModeDeny {
		return true
	}
	return attempts < p.MaxAttempts
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy, returning nil when none is attached.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
