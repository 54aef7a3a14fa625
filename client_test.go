package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/memoriesapp/memories/client/internal/apitest"
	"github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/shardqueue"
)

func newTestClient(t *testing.T, srv *apitest.Server, token string) *Client {
	t.Helper()
	c, err := New(srv.URL,
		WithHTTPTimeout(2*time.Second),
		WithFetchRetry(3, time.Millisecond),
		WithTokenSource(func() string { return token }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty baseURL")
	}
}

func TestFetchPosts_RoundTrip(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	for range apitest.PerPage + 1 {
		srv.AddPost(Post{Title: "x", Creator: "u1"})
	}
	c := newTestClient(t, srv, "")

	pp, err := c.FetchPosts(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	if pp.CurrentPage != 2 || pp.NumberOfPages != 2 || len(pp.Data) != 1 {
		t.Fatalf("unexpected page: page=%d pages=%d n=%d", pp.CurrentPage, pp.NumberOfPages, len(pp.Data))
	}
}

func TestFetchPosts_RetriesRecoverable(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Fail(apitest.RouteFetch, http.StatusServiceUnavailable, "warming up")
	srv.Hook(apitest.RouteFetch, func(*http.Request) { srv.Clear(apitest.RouteFetch) })
	c := newTestClient(t, srv, "")

	if _, err := c.FetchPosts(context.Background(), 1); err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	if got := srv.Calls(apitest.RouteFetch); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestFetchPostsBySearch_IrrecoverableNotRetried(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.Fail(apitest.RouteSearch, http.StatusBadRequest, "bad query")
	c := newTestClient(t, srv, "")

	_, err := c.FetchPostsBySearch(context.Background(), SearchRequest{Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if Reason(err) != "bad query" {
		t.Fatalf("unexpected reason %q", Reason(err))
	}
	if got := srv.Calls(apitest.RouteSearch); got != 1 {
		t.Fatalf("expected 1 call, got %d", got)
	}
}

func TestLikePost_SendsBearerAndToggles(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	p := srv.AddPost(Post{Title: "x", Creator: "u2"})
	srv.IssueToken("tok", "u1")
	c := newTestClient(t, srv, "tok")

	outcome := make(chan error, 1)
	if _, err := c.LikePost(context.Background(), p.ID, func(err error) { outcome <- err }); err != nil {
		t.Fatalf("LikePost: %v", err)
	}
	if err := c.AwaitConsistency(context.Background(), p.ID); err != nil {
		t.Fatalf("AwaitConsistency: %v", err)
	}
	if err := <-outcome; err != nil {
		t.Fatalf("like outcome: %v", err)
	}
	got, _ := srv.Post(p.ID)
	if len(got.Likes) != 1 || got.Likes[0] != "u1" {
		t.Fatalf("unexpected likes: %v", got.Likes)
	}
}

func TestLikePost_UnauthenticatedReportsMutationError(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	p := srv.AddPost(Post{Title: "x"})
	c := newTestClient(t, srv, "")

	outcome := make(chan error, 1)
	if _, err := c.LikePost(context.Background(), p.ID, func(err error) { outcome <- err }); err != nil {
		t.Fatalf("LikePost: %v", err)
	}
	select {
	case err := <-outcome:
		var ce *ClassifiedError
		if !errors.As(err, &ce) || ce.Kind != errors.KindMutation || ce.StatusCode != http.StatusUnauthorized {
			t.Fatalf("unexpected outcome: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("like outcome never reported")
	}
	if got := srv.Calls(apitest.RouteLike); got != 1 {
		t.Fatalf("like must not be retried, got %d calls", got)
	}
}

type fullExec struct{}

func (fullExec) Submit(context.Context, string, shardqueue.Job) error {
	return &shardqueue.QueueFullError{Key: "p1", Capacity: 1}
}
func (fullExec) Barrier(context.Context, string) error { return nil }
func (fullExec) Stop()                                {}

func TestLikePost_BackPressure(t *testing.T) {
	c, err := New("http://example.com", WithExecutor(fullExec{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.LikePost(context.Background(), "p1", nil)
	if !IsBackPressure(err) {
		t.Fatalf("expected back-pressure, got %v", err)
	}
}

func TestDeletePost_OrderedAfterPendingLikes(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	p := srv.AddPost(Post{Title: "x", Creator: "u1"})
	srv.IssueToken("tok", "u1")

	var likeDone atomic.Bool
	srv.Hook(apitest.RouteLike, func(*http.Request) { time.Sleep(50 * time.Millisecond) })
	srv.Hook(apitest.RouteDelete, func(*http.Request) {
		if !likeDone.Load() {
			t.Error("delete reached the server before the pending like")
		}
	})
	c := newTestClient(t, srv, "tok")

	if _, err := c.LikePost(context.Background(), p.ID, func(error) { likeDone.Store(true) }); err != nil {
		t.Fatalf("LikePost: %v", err)
	}
	if err := c.DeletePost(context.Background(), p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, ok := srv.Post(p.ID); ok {
		t.Fatal("post still present after delete")
	}
}

func TestSignIn_ReturnsSession(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	prof := srv.AddAccount("Ada", "L", "ada@example.com", "pw")
	c := newTestClient(t, srv, "")

	s, err := c.SignIn(context.Background(), AuthForm{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s.Token == "" || s.Result.ID != prof.ID {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestTokenTransport_OmitsHeaderWithoutToken(t *testing.T) {
	var auth string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		auth = r.Header.Get("Authorization")
		return &http.Response{StatusCode: 200, Body: http.NoBody, Header: make(http.Header)}, nil
	})
	tt := &tokenTransport{base: rt, tokens: func() string { return "" }}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := tt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if auth != "" {
		t.Fatalf("unexpected Authorization %q", auth)
	}

	tt.tokens = func() string { return "abc" }
	if _, err := tt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	if auth != "Bearer abc" {
		t.Fatalf("unexpected Authorization %q", auth)
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatal("caller's request was mutated")
	}
}

func TestClose_Idempotent(t *testing.T) {
	c, err := New("http://example.com")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
