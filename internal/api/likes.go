package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/types"
)

// likeJob toggles the caller's like on one post. The server toggles, so a
// retry could double-apply: every failure is reported as an irrecoverable
// MutationError and done sees exactly one outcome.
type likeJob struct {
	httpClient HTTPClient
	url        string
	postID     string
	requestID  string
	done       func(error)
}

func (j *likeJob) Run(ctx context.Context) error {
	err := j.send(ctx)
	if err != nil {
		err = errors.AsMutation("like post "+j.postID, err)
	}
	if j.done != nil {
		j.done(err)
	}
	return err
}

// Skip reports a job dropped before it ran.
func (j *likeJob) Skip(err error) {
	if j.done != nil {
		j.done(errors.AsMutation("like post "+j.postID, err))
	}
}

func (j *likeJob) send(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, j.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set(RequestIDHeader, j.requestID)
	resp, err := do(j.httpClient, req, "like post", http.StatusOK, http.StatusNoContent)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// LikePost enqueues a like toggle on the post's shard so toggles on the same
// post reach the server in the order they were issued. done is called once
// with the remote outcome.
func LikePost(ctx context.Context, exec types.Executor, httpClient HTTPClient, baseURL, postID string, done func(error)) (*types.EnqueueAck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(postID, "postId"); err != nil {
		return nil, err
	}
	j := &likeJob{
		httpClient: httpClient,
		url:        fmt.Sprintf("%s/posts/%s/likePost", baseURL, postID),
		postID:     postID,
		requestID:  newRequestID(),
		done:       done,
	}
	if err := exec.Submit(ctx, postID, j); err != nil {
		return nil, err
	}
	return &types.EnqueueAck{PostID: postID, RequestID: j.requestID, Status: "enqueued"}, nil
}
