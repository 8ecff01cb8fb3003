package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.String())
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestStartStop(t *testing.T) {
	rec := &recorder{}
	jm := NewManager(rec.report)

	started := make(chan struct{})
	require.NoError(t, jm.StartAsync(context.Background(), "presence", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started

	assert.True(t, jm.Running("presence"))
	assert.Equal(t, []string{"presence"}, jm.List())
	assert.ErrorIs(t, jm.StartAsync(context.Background(), "presence", func(context.Context) error { return nil }), ErrRunning)

	require.NoError(t, jm.Stop("presence"))
	assert.False(t, jm.Running("presence"))
	assert.Empty(t, jm.List())
	assert.ErrorIs(t, jm.Stop("presence"), ErrNotRunning)

	jm.Wait()
	assert.Equal(t, []string{"started:presence", "done:presence"}, rec.all())
}

func TestJobErrorIsReported(t *testing.T) {
	rec := &recorder{}
	jm := NewManager(rec.report)

	require.NoError(t, jm.StartAsync(context.Background(), "sweep", func(context.Context) error {
		return errors.New("disk gone")
	}))
	jm.Wait()

	assert.Equal(t, []string{"started:sweep", "failed:sweep:disk gone"}, rec.all())
	assert.Empty(t, jm.List())
}

func TestParentCancellationStopsJob(t *testing.T) {
	jm := NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, jm.StartAsync(ctx, "tick", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))
	cancel()

	done := make(chan struct{})
	go func() {
		jm.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not stop after parent cancellation")
	}
}
