package types

// ------------------------------
// Response Types
// ------------------------------

// EnqueueAck represents acknowledgment of an async mutation.
type EnqueueAck struct {
	PostID    string `json:"postId"`
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// PostPage is the paginated GET /posts payload.
type PostPage struct {
	Data          []Post `json:"data"`
	CurrentPage   int    `json:"currentPage"`
	NumberOfPages int    `json:"numberOfPages"`
}

// SearchResponse is the GET /posts/search payload. It is never paginated.
type SearchResponse struct {
	Data []Post `json:"data"`
}

// ErrorResponse is the body the service sends with non-2xx statuses.
type ErrorResponse struct {
	Message string `json:"message"`
}
