package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeService blocks in Start until Shutdown is called.
type fakeService struct {
	stopped  chan struct{}
	startErr error
	shutdown atomic.Int32
}

func newFakeService(startErr error) *fakeService {
	return &fakeService{stopped: make(chan struct{}), startErr: startErr}
}

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-s.stopped
	return nil
}

func (s *fakeService) Shutdown(ctx context.Context) error {
	if s.shutdown.Add(1) == 1 && s.startErr == nil {
		close(s.stopped)
	}
	return nil
}

func TestRunUntilStopped(t *testing.T) {
	logger := discardLogger()

	t.Run("cancel-stops-services-and-loops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := newFakeService(nil)
		var loopStopped atomic.Bool

		done := make(chan error, 1)
		go func() {
			done <- runUntilStopped(ctx, logger, time.Second, []service{svc}, func(ctx context.Context) error {
				<-ctx.Done()
				loopStopped.Store(true)
				return ctx.Err()
			})
		}()

		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("runUntilStopped did not return")
		}
		assert.True(t, loopStopped.Load())
		assert.Equal(t, int32(1), svc.shutdown.Load())
	})

	t.Run("service-failure-shuts-down-the-rest", func(t *testing.T) {
		healthy := newFakeService(nil)
		broken := newFakeService(errors.New("address already in use"))

		err := runUntilStopped(context.Background(), logger, time.Second, []service{healthy, broken})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "address already in use")
		assert.Equal(t, int32(1), healthy.shutdown.Load())
	})

	t.Run("loop-failure", func(t *testing.T) {
		err := runUntilStopped(context.Background(), logger, time.Second, nil, func(ctx context.Context) error {
			return errors.New("pool misconfigured")
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "pool misconfigured")
	})
}

func TestRunOutboxRelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	relay := &MockOutboxUseCase{}
	relay.On("Start", mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(context.Canceled)

	done := make(chan error, 1)
	go func() {
		done <- RunOutboxRelay(ctx, relay, discardLogger())
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop")
	}
	relay.AssertExpectations(t)
}
