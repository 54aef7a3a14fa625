package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/memoriesapp/memories/client/internal/types"
)

// FetchPosts retrieves one page of the unfiltered feed (synchronous).
func FetchPosts(ctx context.Context, httpClient HTTPClient, baseURL string, page int) (*types.PostPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidatePage(page); err != nil {
		return nil, err
	}
	u := fmt.Sprintf("%s/posts?page=%s", baseURL, strconv.Itoa(page))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := do(httpClient, req, "fetch posts", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var pp types.PostPage
	if err := decode(resp, "fetch posts", &pp); err != nil {
		return nil, err
	}
	if pp.CurrentPage == 0 {
		pp.CurrentPage = page
	}
	return &pp, nil
}

// FetchPostsBySearch retrieves the filtered feed. The service expects the
// literal "none" when only tags are given.
func FetchPostsBySearch(ctx context.Context, httpClient HTTPClient, baseURL string, sr types.SearchRequest) ([]types.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(sr.Text)
	if text == "" && len(sr.Tags) == 0 {
		return nil, fmt.Errorf("search requires text or tags")
	}
	if text == "" {
		text = "none"
	}
	q := url.Values{}
	q.Set("searchQuery", text)
	q.Set("tags", strings.Join(sr.Tags, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/posts/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := do(httpClient, req, "search posts", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var sres types.SearchResponse
	if err := decode(resp, "search posts", &sres); err != nil {
		return nil, err
	}
	return sres.Data, nil
}

// DeletePost removes a post. Callers must drain pending like jobs for the
// post first so the delete is ordered after them.
func DeletePost(ctx context.Context, exec types.Executor, httpClient HTTPClient, baseURL, postID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return err
	}
	if err := exec.Barrier(ctx, postID); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/posts/%s", baseURL, postID), nil)
	if err != nil {
		return err
	}
	resp, err := do(httpClient, req, "delete post", http.StatusOK, http.StatusNoContent)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}
