package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewPoolDefaultsNonPositiveSizeToOne(t *testing.T) {
	p := NewPool(0)
	defer p.Stop()

	fut := SubmitFuture(p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	_, err := fut.Wait()
	require.NoError(t, err)
}

func TestSubmitFutureReturnsResult(t *testing.T) {
	p := NewPool(2)
	defer p.Stop()

	fut := SubmitFuture(p, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	val, err := fut.Wait()
	require.NoError(t, err)
	require.Equal(t, 42, val)
}

func TestSubmitFuturePropagatesError(t *testing.T) {
	p := NewPool(1)
	defer p.Stop()

	wantErr := errors.New("worker_test: boom")
	fut := SubmitFuture(p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, wantErr
	})
	_, err := fut.Wait()
	require.ErrorIs(t, err, wantErr)
}

func TestPoolRunsJobsConcurrently(t *testing.T) {
	p := NewPool(4)
	defer p.Stop()

	var counter int32
	const jobs = 20
	futures := make([]*Future[struct{}], jobs)
	for i := 0; i < jobs; i++ {
		futures[i] = SubmitFuture(p, func(ctx context.Context) (struct{}, error) {
			atomic.AddInt32(&counter, 1)
			return struct{}{}, nil
		})
	}
	for _, fut := range futures {
		_, err := fut.Wait()
		require.NoError(t, err)
	}
	require.EqualValues(t, jobs, atomic.LoadInt32(&counter))
}

func TestStopWaitsForInFlightJobs(t *testing.T) {
	p := NewPool(1)
	started := make(chan struct{})
	done := make(chan struct{})
	p.Submit(func(ctx context.Context) {
		close(started)
		time.Sleep(10 * time.Millisecond)
		close(done)
	})
	<-started
	p.Stop()
	select {
	case <-done:
	default:
		t.Fatal("Stop returned before in-flight job finished")
	}
}
