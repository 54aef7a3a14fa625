// Package feed keeps the displayed post collection in step with the
// committed query, the remote store and the user's optimistic likes.
package feed

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/memoriesapp/memories/client/internal/types"
	"github.com/memoriesapp/memories/client/notify"
	"github.com/memoriesapp/memories/client/query"
)

// DefaultRequestTimeout bounds a single fetch or delete.
const DefaultRequestTimeout = 10 * time.Second

// Remote is the subset of the SDK client the feed needs.
type Remote interface {
	FetchPosts(ctx context.Context, page int) (*types.PostPage, error)
	FetchPostsBySearch(ctx context.Context, req types.SearchRequest) ([]types.Post, error)
	LikePost(ctx context.Context, postID string, done func(error)) (*types.EnqueueAck, error)
	DeletePost(ctx context.Context, postID string) error
	AwaitConsistency(ctx context.Context, postID string) error
}

// Identity is the current session as seen by the feed.
type Identity interface {
	UserID() string
	Owns(creator string) bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithRequestTimeout bounds each fetch and delete. A timeout surfaces as the
// generic failure notification.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Controller is safe for concurrent use.
type Controller struct {
	remote   Remote
	identity Identity
	notes    notify.Sink
	timeout  time.Duration

	inflight sync.WaitGroup

	mu    sync.Mutex
	seq   uint64 // last issued request
	gen   uint64 // bumped whenever posts is replaced
	query query.SearchQuery
	posts []types.Post
	page  int
	pages int
}

var _ query.Listener = (*Controller)(nil)

// New wires a feed to its remote, the session identity and the
// notification sink.
func New(remote Remote, identity Identity, notes notify.Sink, opts ...Option) *Controller {
	c := &Controller{
		remote:   remote,
		identity: identity,
		notes:    notes,
		timeout:  DefaultRequestTimeout,
		query:    query.SearchQuery{Page: 1},
		page:     1,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Activate performs the initial load for q. An unfiltered q fetches page
// q.Page; a filtered one fetches the search results instead.
func (c *Controller) Activate(ctx context.Context, q query.SearchQuery) error {
	return c.Load(ctx, q)
}

// QueryChanged starts a load for q without blocking the caller. Wait
// blocks until started loads have finished.
func (c *Controller) QueryChanged(ctx context.Context, q query.SearchQuery) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		_ = c.Load(context.WithoutCancel(ctx), q)
	}()
}

// Wait blocks until every load started by QueryChanged has returned.
func (c *Controller) Wait() { c.inflight.Wait() }

// Load issues exactly one request for q: search when q is filtered, the
// paginated feed otherwise. Only the most recently issued request may
// update the collection; an older completion returns ErrStale. On failure
// the previous collection is kept and an error notification is shown.
func (c *Controller) Load(ctx context.Context, q query.SearchQuery) error {
	q.Tags = slices.Clone(q.Tags)
	if q.Page < 1 {
		q.Page = 1
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.query = q
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		posts       []types.Post
		page, pages int
		err         error
	)
	if q.Filtered() {
		posts, err = c.remote.FetchPostsBySearch(ctx, types.SearchRequest{Text: q.Text, Tags: q.Tags})
		page, pages = 1, 1
	} else {
		var pp *types.PostPage
		pp, err = c.remote.FetchPosts(ctx, q.Page)
		if err == nil {
			posts, page, pages = pp.Data, pp.CurrentPage, pp.NumberOfPages
		}
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		staleResponsesTotal.Inc()
		log.Debug().Uint64("seq", seq).Err(err).Msg("discarding stale feed response")
		return ErrStale
	}
	if err != nil {
		c.mu.Unlock()
		log.Error().Err(err).Uint64("seq", seq).Bool("filtered", q.Filtered()).Msg("feed load failed")
		c.notify(MsgLoadFailed)
		return err
	}
	c.posts = make([]types.Post, len(posts))
	for i, p := range posts {
		p = p.Clone()
		p.Likes = dedupe(p.Likes)
		c.posts[i] = p
	}
	c.gen++
	c.page, c.pages = page, pages
	c.mu.Unlock()

	log.Debug().Uint64("seq", seq).Int("posts", len(posts)).Int("page", page).Msg("feed loaded")
	return nil
}

// Posts yields a snapshot of the collection taken when iteration starts.
// It can be ranged over any number of times.
func (c *Controller) Posts() iter.Seq[types.Post] {
	return func(yield func(types.Post) bool) {
		c.mu.Lock()
		snap := make([]types.Post, len(c.posts))
		for i, p := range c.posts {
			snap[i] = p.Clone()
		}
		c.mu.Unlock()
		for _, p := range snap {
			if !yield(p) {
				return
			}
		}
	}
}

// Post returns one post from the collection.
func (c *Controller) Post(id string) (types.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.posts[i].Clone(), true
	}
	return types.Post{}, false
}

// Query returns the query of the most recent load.
func (c *Controller) Query() query.SearchQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	q := c.query
	q.Tags = slices.Clone(q.Tags)
	return q
}

// Page is the page of the displayed collection.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// NumberOfPages is the page count reported with the displayed collection.
func (c *Controller) NumberOfPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages
}

// ShowPagination is false whenever a filter is active.
func (c *Controller) ShowPagination() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.query.Filtered()
}

func (c *Controller) indexLocked(id string) int {
	return slices.IndexFunc(c.posts, func(p types.Post) bool { return p.ID == id })
}

func (c *Controller) notify(msg string) {
	if c.notes != nil {
		c.notes.Error(msg)
	}
}

// dedupe keeps the first occurrence of every identifier.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
