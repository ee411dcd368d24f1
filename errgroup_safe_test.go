package razerdiag

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoSafeRestartsAfterPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group := NewSafeGroup(ctx)
	var runs atomic.Int32
	group.GoSafe("panicky", func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})

	require.NoError(t, group.Wait())
	assert.Equal(t, int32(2), runs.Load())
}

func TestGoSafePropagatesErrors(t *testing.T) {
	group := NewSafeGroup(context.Background())
	wantErr := errors.New("worker failed")
	group.GoSafe("failing", func(ctx context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, group.Wait(), wantErr)
}

func TestWaitOrInterruptReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	group := NewSafeGroup(ctx)
	group.GoSafe("blocked", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := group.WaitOrInterrupt(time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoopRecorder(t *testing.T) {
	rec := NoopRecorder{}
	assert.NoError(t, rec.UpsertDevices(context.Background(), []DeviceSnapshot{{Serial: "PM1"}}))
}
