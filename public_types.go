package client

import "github.com/memoriesapp/memories/client/internal/types"

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	SearchRequest = types.SearchRequest
	AuthForm      = types.AuthForm
	ImageFile     = types.ImageFile

	// Domain entities
	Post    = types.Post
	Profile = types.Profile
	Session = types.Session

	// Responses
	EnqueueAck = types.EnqueueAck
	PostPage   = types.PostPage
)
