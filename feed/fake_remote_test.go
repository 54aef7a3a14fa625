package feed

import (
	"context"
	"sync"

	"github.com/memoriesapp/memories/client/internal/types"
	"github.com/memoriesapp/memories/client/notify"
)

// fakeRemote serves canned pages and holds like callbacks until the test
// completes them.
type fakeRemote struct {
	mu        sync.Mutex
	fetch     func(ctx context.Context, page int) (*types.PostPage, error)
	search    func(ctx context.Context, req types.SearchRequest) ([]types.Post, error)
	submitErr error
	deleteErr error

	fetches  []int
	searches []types.SearchRequest
	likes    []string
	pending  []func(error)
	deleted  []string
	flushed  []string
}

func (r *fakeRemote) FetchPosts(ctx context.Context, page int) (*types.PostPage, error) {
	r.mu.Lock()
	r.fetches = append(r.fetches, page)
	fn := r.fetch
	r.mu.Unlock()
	return fn(ctx, page)
}

func (r *fakeRemote) FetchPostsBySearch(ctx context.Context, req types.SearchRequest) ([]types.Post, error) {
	r.mu.Lock()
	r.searches = append(r.searches, req)
	fn := r.search
	r.mu.Unlock()
	return fn(ctx, req)
}

func (r *fakeRemote) LikePost(_ context.Context, postID string, done func(error)) (*types.EnqueueAck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.submitErr != nil {
		return nil, r.submitErr
	}
	r.likes = append(r.likes, postID)
	r.pending = append(r.pending, done)
	return &types.EnqueueAck{PostID: postID, Status: "enqueued"}, nil
}

// complete resolves the i-th like toggle.
func (r *fakeRemote) complete(i int, err error) {
	r.mu.Lock()
	done := r.pending[i]
	r.mu.Unlock()
	done(err)
}

func (r *fakeRemote) DeletePost(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, postID)
	return nil
}

func (r *fakeRemote) AwaitConsistency(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushed = append(r.flushed, postID)
	return nil
}

func staticPage(posts ...types.Post) func(context.Context, int) (*types.PostPage, error) {
	return func(_ context.Context, page int) (*types.PostPage, error) {
		return &types.PostPage{Data: posts, CurrentPage: page, NumberOfPages: 3}, nil
	}
}

func newFeed(r *fakeRemote, who types.Profile) (*Controller, *notify.Controller) {
	notes := notify.New(notify.WithAutoDismiss(0))
	return New(r, who, notes), notes
}

func errorMessages(n *notify.Controller) []string {
	var out []string
	for _, x := range n.Active() {
		if x.Severity == notify.SeverityError {
			out = append(out, x.Message)
		}
	}
	return out
}
