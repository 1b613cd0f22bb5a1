package warmer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWarmer_Run_StopsOnContextCancel(t *testing.T) {
	fv := &fakeViews{}
	w := New(fv, testClock()).WithSettings(5*time.Millisecond, 1, 1, "")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := w.Run(ctx)
	require.Error(t, err)
	require.GreaterOrEqual(t, fv.calls(), 1)
}

func TestWarmer_Run_TriggerRunsCycle(t *testing.T) {
	fv := &fakeViews{}
	w := New(fv, testClock()).WithSettings(time.Hour, 1, 1, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return fv.calls() >= 1 }, time.Second, 5*time.Millisecond)
	w.Trigger()
	require.Eventually(t, func() bool { return fv.calls() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWarmer_Run_BadRolloverSpec(t *testing.T) {
	w := New(&fakeViews{}, testClock()).WithSettings(time.Hour, 1, 1, "not a cron")
	require.Error(t, w.Run(context.Background()))
}
