// Package jobmgr runs named background jobs bound to a context and tracks
// which of them are alive.
//
//	jm := jobmgr.NewManager(func(e jobmgr.Event) { log.Println(e) })
//	_ = jm.StartAsync(ctx, "presence", rotate)
//	...
//	_ = jm.Stop("presence")
//	jm.Wait()
//
// A name can only run once at a time. Finished jobs are forgotten.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrRunning    = errors.New("job already running")
	ErrNotRunning = errors.New("job not running")
)

// State is a job lifecycle step.
type State string

const (
	Started State = "started"
	Done    State = "done"
	Failed  State = "failed"
)

// Event is handed to the Reporter on every lifecycle step. Err is set only
// for Failed.
type Event struct {
	Job   string
	State State
	Err   error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%s:%v", e.State, e.Job, e.Err)
	}
	return string(e.State) + ":" + e.Job
}

type Reporter func(Event)

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	wg       sync.WaitGroup
	reporter Reporter
}

// NewManager returns an empty Manager. reporter may be nil.
func NewManager(reporter Reporter) *Manager {
	if reporter == nil {
		reporter = func(Event) {}
	}
	return &Manager{jobs: make(map[string]*job), reporter: reporter}
}

// StartAsync runs fn in its own goroutine under a child of parent. A job that
// returns an error after its context was cancelled counts as Done.
func (m *Manager) StartAsync(parent context.Context, name string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrRunning)
	}

	ctx, cancel := context.WithCancel(parent)
	j := &job{cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()

		m.reporter(Event{Job: name, State: Started})
		err := fn(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			m.reporter(Event{Job: name, State: Failed, Err: err})
		default:
			m.reporter(Event{Job: name, State: Done})
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels the named job and blocks until it returned.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	delete(m.jobs, name)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotRunning)
	}
	j.cancel()
	<-j.done
	return nil
}

func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// List returns the active job names, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}
