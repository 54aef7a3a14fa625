package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClassifyHTTPError determines whether an HTTP error should be retried:
// 4xx except 408/429 are irrecoverable, 5xx and everything else recoverable.
func ClassifyHTTPError(statusCode int, body string, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:   getHTTPErrorCategory(statusCode),
		Kind:       KindNetwork,
		StatusCode: statusCode,
		Reason:     reasonFromBody(body),
		Body:       body,
		Underlying: underlyingErr,
	}
}

func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case 408, 429:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		return Recoverable
	}
}

// reasonFromBody extracts the server's {"message": "..."} field.
func reasonFromBody(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	return payload.Message
}

// NewHTTPError creates a classified error for HTTP failures.
func NewHTTPError(statusCode int, body string, operation string) *ClassifiedError {
	underlyingErr := fmt.Errorf("%s failed: HTTP %d", operation, statusCode)
	return ClassifyHTTPError(statusCode, body, underlyingErr)
}

// NewAuthError classifies a rejected sign-in/sign-up. 4xx responses are
// AuthErrors; anything else stays a NetworkError.
func NewAuthError(statusCode int, body string, operation string) *ClassifiedError {
	ce := NewHTTPError(statusCode, body, operation)
	if statusCode >= 400 && statusCode < 500 {
		ce.Kind = KindAuth
	}
	return ce
}

// NewNetworkError creates a classified error for network-level failures.
func NewNetworkError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Recoverable,
		Kind:       KindNetwork,
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewValidationError reports a field that failed client-side checks.
func NewValidationError(field, message string) *ClassifiedError {
	return &ClassifiedError{
		Category:   Irrecoverable,
		Kind:       KindValidation,
		Field:      field,
		Reason:     message,
		Underlying: fmt.Errorf("invalid %s", field),
	}
}

// AsMutation marks err as a like/delete failure that must not be retried.
func AsMutation(operation string, err error) *ClassifiedError {
	ce := &ClassifiedError{
		Category:   Irrecoverable,
		Kind:       KindMutation,
		Underlying: fmt.Errorf("%s: %w", operation, err),
	}
	var inner *ClassifiedError
	if As(err, &inner) {
		ce.StatusCode = inner.StatusCode
		ce.Reason = inner.Reason
		ce.Body = inner.Body
	}
	return ce
}
