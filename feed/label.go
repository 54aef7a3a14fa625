package feed

import (
	"fmt"
	"slices"
)

// Label is the like affordance: its text and whether the icon is filled.
type Label struct {
	Text   string
	Filled bool
}

// LikeLabel derives the affordance from likes and the current user id.
// Duplicate ids count once.
func LikeLabel(likes []string, uid string) Label {
	likes = dedupe(likes)
	n := len(likes)
	switch {
	case n == 0:
		return Label{Text: "Like"}
	case uid == "" || !slices.Contains(likes, uid):
		if n == 1 {
			return Label{Text: "1 Like"}
		}
		return Label{Text: fmt.Sprintf("%d Likes", n)}
	case n > 2:
		return Label{Text: fmt.Sprintf("You and %d others", n-1), Filled: true}
	case n == 1:
		return Label{Text: "1 like", Filled: true}
	default:
		return Label{Text: fmt.Sprintf("%d likes", n), Filled: true}
	}
}
