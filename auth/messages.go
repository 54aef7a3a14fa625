package auth

import (
	"github.com/memoriesapp/memories/client/internal/errors"
)

// User-facing messages.
const (
	MsgPleaseWait   = "Please wait..."
	MsgEmailInUse   = "Email is already in use!"
	MsgBadLogin     = "Incorrect email or password!"
	MsgGeneric      = "Something went wrong. Please try again."
	MsgGoogleFailed = "Google sign in failed. Please try again."
)

// Reasons reported by the service that get their own message.
const (
	ReasonUserExists         = "User already exists"
	ReasonInvalidCredentials = "Invalid credentials"
)

// MessageFor maps a failed submission to the message shown to the user.
// Only a duplicate sign-up and bad sign-in credentials are told apart;
// everything else, timeouts included, is the generic message.
func MessageFor(mode Mode, err error) string {
	switch reason := errors.ReasonOf(err); {
	case mode == ModeSignUp && reason == ReasonUserExists:
		return MsgEmailInUse
	case mode == ModeSignIn && reason == ReasonInvalidCredentials:
		return MsgBadLogin
	default:
		return MsgGeneric
	}
}
