package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilPolicyAlwaysRetries(t *testing.T) {
	var p *Policy
	assert.True(t, p.AllowRetry(0))
	assert.True(t, p.AllowRetry(1_000_000))
}

func TestWaitModeIgnoresAttemptBound(t *testing.T) {
	p := &Policy{Mode: ModeWait, MaxAttempts: 2}
	assert.True(t, p.AllowRetry(5))
}

func TestDenyModeBoundsAttempts(t *testing.T) {
	p := &Policy{Mode: ModeDeny, MaxAttempts: 3}
	assert.True(t, p.AllowRetry(2))
	assert.False(t, p.AllowRetry(3))
	assert.False(t, (&Policy{Mode: ModeDeny}).AllowRetry(0))
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	p := &Policy{Mode: ModeDeny, MaxAttempts: 1}
	ctx := WithPolicy(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
}
