package shardqueue

import "context"

// Job is a unit of work executed by a ShardExecutor.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a plain closure to a Job.
type JobFunc func(ctx context.Context) error

// Run implements Job for JobFunc. A nil JobFunc reports ErrNilJob.
func (f JobFunc) Run(ctx context.Context) error {
	if f == nil {
		return ErrNilJob
	}
	return f(ctx)
}

// Skipper is implemented by jobs that must hear about being dropped without
// running, e.g. because the submitting context was cancelled while queued.
type Skipper interface {
	Skip(err error)
}
