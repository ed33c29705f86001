package promise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfillReturnsValueOnceSatisfied(t *testing.T) {
	calls := 0
	p := New(func(ctx context.Context) (string, bool) {
		calls++
		if calls < 3 {
			return "", false
		}
		return "ready", true
	}, "value appears", WithTryInterval(time.Millisecond))

	value, err := p.Fulfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", value)
	assert.Equal(t, 3, calls)
}

func TestFulfillImmediateSuccessDoesNotSleep(t *testing.T) {
	p := New(func(ctx context.Context) (int, bool) {
		return 42, true
	}, "already there", WithTryInterval(time.Hour))

	start := time.Now()
	value, err := p.Fulfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBrokenPromiseAfterTryLimit(t *testing.T) {
	calls := 0
	p := NewEmpty(func(ctx context.Context) bool {
		calls++
		return false
	}, "invalid div appeared", WithTryLimit(3), WithTryInterval(time.Millisecond))

	err := p.Fulfill(context.Background())
	require.Error(t, err)

	var broken *BrokenPromise
	require.True(t, errors.As(err, &broken))
	assert.Equal(t, "invalid div appeared", broken.Description)
	assert.Contains(t, err.Error(), "promise not fulfilled")
	assert.Equal(t, 3, calls)
}

func TestZeroTryLimitBreaksImmediately(t *testing.T) {
	p := NewEmpty(func(ctx context.Context) bool {
		t.Fatal("check should not run with a zero try limit")
		return true
	}, "never checked", WithTryLimit(0))

	err := p.Fulfill(context.Background())
	var broken *BrokenPromise
	require.True(t, errors.As(err, &broken))
}

func TestContextCancellationAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewEmpty(func(ctx context.Context) bool {
		return false
	}, "cancelled wait", WithTryInterval(time.Millisecond))

	err := p.Fulfill(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestContextCancellationDuringSleep(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	p := NewEmpty(func(ctx context.Context) bool {
		return false
	}, "slow wait", WithTryInterval(time.Minute))

	start := time.Now()
	err := p.Fulfill(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}
