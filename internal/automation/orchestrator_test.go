package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobpilot/internal/config"
)

func TestCooldown_InMemory(t *testing.T) {
	o := New(nil, nil, nil, nil, &config.Config{CooldownDuration: time.Hour}, nil)
	ctx := context.Background()

	_, ok := o.cooldownUntil(ctx, 7)
	assert.False(t, ok)

	o.startCooldown(ctx, 7)
	until, ok := o.cooldownUntil(ctx, 7)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), until, time.Minute)

	// Other users are unaffected.
	_, ok = o.cooldownUntil(ctx, 8)
	assert.False(t, ok)
}

func TestCooldown_Expired(t *testing.T) {
	o := New(nil, nil, nil, nil, &config.Config{CooldownDuration: time.Hour}, nil)

	o.mu.Lock()
	o.cooldowns[7] = time.Now().UTC().Add(-time.Minute)
	o.mu.Unlock()

	_, ok := o.cooldownUntil(context.Background(), 7)
	assert.False(t, ok)

	o.mu.Lock()
	_, present := o.cooldowns[7]
	o.mu.Unlock()
	assert.False(t, present, "expired entry should be cleared")
}

func TestIsWeekend(t *testing.T) {
	saturday := time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC)
	assert.True(t, isWeekend(saturday))
	assert.True(t, isWeekend(saturday.AddDate(0, 0, 1)))
	assert.False(t, isWeekend(saturday.AddDate(0, 0, 2)))
}
