package types

import (
	"slices"
	"strings"
	"time"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Post is a feed item as served by the remote store.
type Post struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Name         string    `json:"name,omitempty"`
	Creator      string    `json:"creator"`
	Tags         []string  `json:"tags"`
	Likes        []string  `json:"likes"`
	SelectedFile string    `json:"selectedFile,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsVideo reports whether the media reference points at a video.
func (p Post) IsVideo() bool {
	return strings.Contains(p.SelectedFile, "video")
}

// Excerpt returns the first n words of the message.
func (p Post) Excerpt(n int) string {
	words := strings.Split(p.Message, " ")
	if len(words) <= n {
		return p.Message
	}
	return strings.Join(words[:n], " ")
}

// Clone returns a deep copy so callers can't alias the cached slices.
func (p Post) Clone() Post {
	p.Tags = slices.Clone(p.Tags)
	p.Likes = slices.Clone(p.Likes)
	return p
}

// Profile is the "result" half of a session. Credential sign-in fills ID;
// identity-provider sign-in fills GoogleID.
type Profile struct {
	ID         string `json:"_id,omitempty"`
	GoogleID   string `json:"googleId,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// UserID is the identifier the feed compares against likes and creators.
func (p Profile) UserID() string {
	if p.GoogleID != "" {
		return p.GoogleID
	}
	return p.ID
}

// Owns reports whether creator names this profile under either identifier.
func (p Profile) Owns(creator string) bool {
	if creator == "" {
		return false
	}
	return p.GoogleID == creator || p.ID == creator
}

// Session is the persisted {result, token} pair.
type Session struct {
	Result Profile `json:"result"`
	Token  string  `json:"token"`
}
