package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/memoriesapp/memories/client/internal/api"
	"github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/shardqueue"
)

// TokenSource returns the bearer token of the current session, or "".
type TokenSource func() string

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client talks to the memories service. Reads are synchronous; like toggles
// run on a per-post FIFO executor.
type Client struct {
	baseURL string
	http    *http.Client
	exec    executor
	tokens  TokenSource

	maxFetchAttempts int
	fetchBackoff     time.Duration

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for baseURL. Additional options can be provided
// via functional arguments.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	c := &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		http:             &http.Client{Timeout: 30 * time.Second},
		maxFetchAttempts: 3,
		fetchBackoff:     200 * time.Millisecond,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.exec == nil {
		c.exec = newDefaultExecutor()
	}

	c.wrapTransportWithToken()
	return c, nil
}

// wrapTransportWithToken installs the Authorization header on every request
// from the configured TokenSource.
func (c *Client) wrapTransportWithToken() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &tokenTransport{base: base, tokens: c.tokens}
}

type tokenTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.tokens == nil {
		return t.base.RoundTrip(req)
	}
	token := t.tokens()
	if token == "" {
		return t.base.RoundTrip(req)
	}
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(cloned)
}

// Close stops the background executor, draining queued like toggles.
// Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	return nil
}

// AwaitConsistency blocks until every mutation previously submitted for
// postID has been executed.
func (c *Client) AwaitConsistency(ctx context.Context, postID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.exec.Barrier(ctx, postID)
}

// newDefaultExecutor builds the shard executor from SQ_* environment
// variables, falling back to defaults on a malformed environment.
func newDefaultExecutor() *shardqueue.ShardExecutor {
	cfg, err := shardqueue.LoadConfig()
	if err != nil {
		log.Warn().Err(err).Msg("invalid SQ_* configuration, using defaults")
		cfg = shardqueue.Config{}
	}
	return shardqueue.NewShardExecutor(cfg)
}

// --------------------------------------------------------------------
// Feed reads - delegated to internal/api, retried when recoverable
// --------------------------------------------------------------------

// FetchPosts retrieves one page of the unfiltered feed.
func (c *Client) FetchPosts(ctx context.Context, page int) (*PostPage, error) {
	var out *PostPage
	err := c.retry(ctx, "fetch posts", func() error {
		pp, err := api.FetchPosts(ctx, c.http, c.baseURL, page)
		out = pp
		return err
	})
	return out, err
}

// FetchPostsBySearch retrieves the posts matching text and/or tags.
func (c *Client) FetchPostsBySearch(ctx context.Context, req SearchRequest) ([]Post, error) {
	var out []Post
	err := c.retry(ctx, "search posts", func() error {
		posts, err := api.FetchPostsBySearch(ctx, c.http, c.baseURL, req)
		out = posts
		return err
	})
	return out, err
}

// retry runs an idempotent read with exponential backoff. Only classified
// recoverable errors are retried.
func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.fetchBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(c.maxFetchAttempts-1, 0))), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		var ce *errors.ClassifiedError
		if !errors.As(err, &ce) || ce.Category != errors.Recoverable || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		fetchRetriesTotal.WithLabelValues(op).Inc()
		log.Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("retrying read")
		return err
	}, policy)
}

// --------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------

// LikePost submits a like toggle for postID via the sharded executor, which
// keeps toggles on one post in FIFO order. done receives the remote outcome
// exactly once, on the executor goroutine. The returned error reports only
// submission failures, in which case done is never called.
func (c *Client) LikePost(ctx context.Context, postID string, done func(error)) (*EnqueueAck, error) {
	ack, err := api.LikePost(ctx, c.exec, c.http, c.baseURL, postID, done)
	if err != nil {
		if errors.Is(err, shardqueue.ErrQueueFull) {
			return nil, fmt.Errorf("%w: %v", ErrBackPressure, err)
		}
		return nil, err
	}
	likesEnqueuedTotal.Inc()
	return ack, nil
}

// DeletePost removes postID once its pending like toggles have run.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return api.DeletePost(ctx, c.exec, c.http, c.baseURL, postID)
}

// --------------------------------------------------------------------
// Authentication
// --------------------------------------------------------------------

// SignIn submits the credential form as multipart data.
func (c *Client) SignIn(ctx context.Context, form AuthForm) (*Session, error) {
	return api.SignIn(ctx, c.http, c.baseURL, form)
}

// SignUp submits the registration form, including the optional picture.
func (c *Client) SignUp(ctx context.Context, form AuthForm) (*Session, error) {
	return api.SignUp(ctx, c.http, c.baseURL, form)
}
