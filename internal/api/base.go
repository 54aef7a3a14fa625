package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/memoriesapp/memories/client/internal/errors"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestIDHeader correlates client logs with server logs.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response we keep for diagnostics.
const maxErrorBody = 4 << 10

func newRequestID() string { return uuid.NewString() }

// do sends req and returns the response on wantStatus; any other status is
// turned into a classified error carrying the server's reason.
func do(httpClient HTTPClient, req *http.Request, op string, wantStatus ...int) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, newRequestID())
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(op, err)
	}
	for _, s := range wantStatus {
		if resp.StatusCode == s {
			return resp, nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	return nil, errors.NewHTTPError(resp.StatusCode, string(body), op)
}

func decode(resp *http.Response, op string, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewNetworkError(op+" decode", err)
	}
	return nil
}
