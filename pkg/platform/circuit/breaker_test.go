package circuit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

var errUpstream = errors.New("upstream failed")

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	var transitions []State
	b := New("genai",
		WithFailureThreshold(2),
		WithCooldown(time.Minute),
		WithClock(clock.now),
		WithStateChange(func(_ string, to State) { transitions = append(transitions, to) }),
	)

	assert.ErrorIs(t, b.Do(func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Do(func() error { return errUpstream }), errUpstream)
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []State{StateOpen}, transitions)
}

func TestBreaker_ProbeAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New("genai", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(clock.now))

	require.Error(t, b.Do(func() error { return errUpstream }))
	require.Equal(t, StateOpen, b.State())

	clock.advance(30 * time.Second)
	assert.False(t, b.Allow())

	clock.advance(31 * time.Second)
	require.True(t, b.Allow())

	t.Run("failed probe restarts cooldown", func(t *testing.T) {
		require.Error(t, b.Do(func() error { return errUpstream }))
		assert.False(t, b.Allow())
	})

	t.Run("successful probe closes", func(t *testing.T) {
		clock.advance(2 * time.Minute)
		require.NoError(t, b.Do(func() error { return nil }))
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("genai", WithFailureThreshold(2))
	_ = b.Do(func() error { return errUpstream })
	_ = b.Do(func() error { return nil })
	_ = b.Do(func() error { return errUpstream })
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "closed", b.State().String())
}
