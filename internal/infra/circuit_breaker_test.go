package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelay = errors.New("relay down")

func newTestBreaker(t *testing.T) (*CircuitBreaker, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("smtp", BreakerConfig{MaxFailures: 2, ProbeSuccess: 2, CoolDown: time.Minute})
	cb.now = func() time.Time { return clock }
	return cb, &clock
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(t)

	assert.ErrorIs(t, cb.Do(func() error { return errRelay }), errRelay)
	assert.Equal(t, BreakerClosed, cb.State())
	assert.ErrorIs(t, cb.Do(func() error { return errRelay }), errRelay)
	assert.Equal(t, BreakerOpen, cb.State())

	called := false
	err := cb.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(t)

	_ = cb.Do(func() error { return errRelay })
	require.NoError(t, cb.Do(func() error { return nil }))
	_ = cb.Do(func() error { return errRelay })

	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(t)
	_ = cb.Do(func() error { return errRelay })
	_ = cb.Do(func() error { return errRelay })

	*clock = clock.Add(time.Minute)
	assert.Equal(t, BreakerHalfOpen, cb.State())

	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, BreakerHalfOpen, cb.State())
	require.NoError(t, cb.Do(func() error { return nil }))
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock := newTestBreaker(t)
	_ = cb.Do(func() error { return errRelay })
	_ = cb.Do(func() error { return errRelay })

	*clock = clock.Add(2 * time.Minute)
	assert.ErrorIs(t, cb.Do(func() error { return errRelay }), errRelay)
	assert.Equal(t, BreakerOpen, cb.State())
	assert.Equal(t, "open", cb.State().String())
}
