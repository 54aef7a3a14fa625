package feed

import "errors"

var (
	// ErrNoSession is returned by actions that need a signed-in user.
	ErrNoSession = errors.New("feed: no session")
	// ErrForbidden is returned when the session does not own the post.
	ErrForbidden = errors.New("feed: not the post's creator")
	// ErrNotFound is returned for a post that is not in the collection.
	ErrNotFound = errors.New("feed: post not in collection")
	// ErrStale is returned by Load when a newer request superseded it.
	ErrStale = errors.New("feed: response superseded by a newer request")
)

// User-facing failure messages.
const (
	MsgLoadFailed   = "Could not load posts. Please try again."
	MsgLikeFailed   = "Could not update like. Please try again."
	MsgDeleteFailed = "Could not delete post. Please try again."
)
