package client

import (
	"context"

	"github.com/memoriesapp/memories/client/internal/shardqueue"
)

// executor abstracts the internal async job runner used by mutations.
type executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Barrier(context.Context, string) error
	Stop()
}
