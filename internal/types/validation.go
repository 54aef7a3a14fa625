package types

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/memoriesapp/memories/client/internal/shardqueue"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// Executor interface for dependency injection (used by async operations)
type Executor interface {
	Submit(context.Context, string, shardqueue.Job) error
	Barrier(context.Context, string) error
}

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ------------------------------
// Validation
// ------------------------------

// ValidateIDPresent rejects empty or whitespace identifiers before they are
// spliced into a URL path.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if strings.ContainsAny(id, "/?#") {
		return fmt.Errorf("%s contains invalid characters", field)
	}
	return nil
}

// ValidatePage rejects page numbers below 1.
func ValidatePage(page int) error {
	if page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", page)
	}
	return nil
}
