package client

import (
	"errors"

	sdkerrors "github.com/memoriesapp/memories/client/internal/errors"
)

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = errors.New("back-pressure (queue full)")

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// ClassifiedError is the error type returned for remote failures.
type ClassifiedError = sdkerrors.ClassifiedError

// Reason returns the message the service attached to a failed response.
func Reason(err error) string { return sdkerrors.ReasonOf(err) }
