package feed

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/memoriesapp/memories/client/internal/errors"
	"github.com/memoriesapp/memories/client/internal/types"
)

// likeCommand is an optimistic like toggle. Forward and compensate both
// invert the user's membership in the post's likes, so a reverted toggle
// leaves the local state in step with a server that only saw the toggles
// that succeeded.
type likeCommand struct {
	postID string
	uid    string
	gen    uint64 // collection generation the toggle was applied to
}

func (l likeCommand) forward(c *Controller)    { c.invertLocked(l.postID, l.uid) }
func (l likeCommand) compensate(c *Controller) { c.invertLocked(l.postID, l.uid) }

// CanLike reports whether a session exists.
func (c *Controller) CanLike() bool {
	return c.identity != nil && c.identity.UserID() != ""
}

// CanModify reports whether the session owns post, under either of its
// identifiers. It gates both delete and edit.
func (c *Controller) CanModify(post types.Post) bool {
	return c.identity != nil && c.identity.Owns(post.Creator)
}

// ToggleLike flips the user's like on postID immediately and sends the
// toggle to the server on the post's FIFO queue. If the server rejects it
// the flip is reverted and an error notification is shown. The returned
// error covers only failures to start the toggle.
func (c *Controller) ToggleLike(ctx context.Context, postID string) error {
	if !c.CanLike() {
		return ErrNoSession
	}
	uid := c.identity.UserID()

	c.mu.Lock()
	if c.indexLocked(postID) < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	cmd := likeCommand{postID: postID, uid: uid, gen: c.gen}
	cmd.forward(c)
	c.mu.Unlock()
	likeTogglesTotal.Inc()

	// The job outlives the caller's ctx; the HTTP client timeout bounds it.
	_, err := c.remote.LikePost(context.WithoutCancel(ctx), postID, func(err error) {
		if err != nil {
			c.revert(cmd, err)
		}
	})
	if err != nil {
		c.revert(cmd, err)
		return err
	}
	return nil
}

// Flush waits until every toggle sent for postID has been answered.
func (c *Controller) Flush(ctx context.Context, postID string) error {
	return c.remote.AwaitConsistency(ctx, postID)
}

// Label returns the like label for postID as the current user sees it.
func (c *Controller) Label(postID string) (Label, bool) {
	p, ok := c.Post(postID)
	if !ok {
		return Label{}, false
	}
	uid := ""
	if c.identity != nil {
		uid = c.identity.UserID()
	}
	return LikeLabel(p.Likes, uid), true
}

// DeletePost removes postID remotely once its pending toggles have been
// sent, then drops it from the collection. Only the creator may delete.
func (c *Controller) DeletePost(ctx context.Context, postID string) error {
	p, ok := c.Post(postID)
	if !ok {
		return ErrNotFound
	}
	if !c.CanModify(p) {
		return ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.remote.DeletePost(ctx, postID); err != nil {
		err = errors.AsMutation("delete post "+postID, err)
		log.Error().Err(err).Str("post_id", postID).Msg("delete failed")
		c.notify(MsgDeleteFailed)
		return err
	}

	c.mu.Lock()
	if i := c.indexLocked(postID); i >= 0 {
		c.posts = slices.Delete(c.posts, i, i+1)
	}
	c.mu.Unlock()
	log.Info().Str("post_id", postID).Msg("post deleted")
	return nil
}

// revert applies the compensating action unless the collection has been
// reloaded since, in which case the server's copy already wins.
func (c *Controller) revert(cmd likeCommand, cause error) {
	c.mu.Lock()
	applied := cmd.gen == c.gen
	if applied {
		cmd.compensate(c)
	}
	c.mu.Unlock()

	likeCompensationsTotal.Inc()
	log.Error().Err(cause).Str("post_id", cmd.postID).Bool("reverted", applied).Msg("like failed")
	c.notify(MsgLikeFailed)
}

// invertLocked removes every occurrence of uid from the post's likes, or
// appends it once when absent.
func (c *Controller) invertLocked(postID, uid string) {
	i := c.indexLocked(postID)
	if i < 0 {
		return
	}
	p := &c.posts[i]
	if slices.Contains(p.Likes, uid) {
		p.Likes = slices.DeleteFunc(p.Likes, func(id string) bool { return id == uid })
	} else {
		p.Likes = append(p.Likes, uid)
	}
}
