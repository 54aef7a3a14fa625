package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/memoriesapp/memories/client/internal/shardqueue"
)

// mockExec records submitted keys and runs jobs inline. Job errors are kept
// rather than returned, the same as the real executor.
type mockExec struct {
	mu       sync.Mutex
	n        int
	calls    []string
	barriers []string
	jobErrs  []error
}

func (m *mockExec) Submit(ctx context.Context, key string, job shardqueue.Job) error {
	m.mu.Lock()
	m.n++
	m.calls = append(m.calls, key)
	m.mu.Unlock()
	err := job.Run(ctx)
	m.mu.Lock()
	m.jobErrs = append(m.jobErrs, err)
	m.mu.Unlock()
	return nil
}

func (m *mockExec) Barrier(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.barriers = append(m.barriers, key)
	return nil
}

// failingExec always rejects submissions.
type failingExec struct{}

func (failingExec) Submit(context.Context, string, shardqueue.Job) error {
	return fmt.Errorf("submit failed")
}

func (failingExec) Barrier(context.Context, string) error { return nil }

// errRT simulates a network failure.
type errRT struct{}

func (errRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, fmt.Errorf("boom") }
