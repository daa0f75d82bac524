package services

import (
	"errors"
	"strings"
)

// ErrorClass is the closed set of outcome categories driving cascade decisions.
type ErrorClass int

const (
	// CredentialInvalid : the bearer token was rejected outright (401).
	CredentialInvalid ErrorClass = iota
	// InsufficientScope : 403 because a required scope was not granted.
	InsufficientScope
	// AccountNotRegistered : 403 because the Spotify account is not added to
	// the app's user management list (development-mode apps).
	AccountNotRegistered
	// ForbiddenOther : any other 403.
	ForbiddenOther
	// NoCandidates : a 422 signalling the user simply has no data to draw
	// from; the only class that triggers the fallback cascade.
	NoCandidates
	// UnprocessableOther : any other 422.
	UnprocessableOther
	// TransientUpstream : everything else, including transport failures.
	TransientUpstream
)

// upstream error codes disambiguating a 403
const (
	codeInsufficientScope = "spotify_insufficient_scope"
	codeNotRegistered     = "spotify_user_not_registered"
)

// upstream error codes that mean "no data for this user", not a failure
var emptyCandidateCodes = []string{
	"no_top_tracks",
	"no_track_candidates",
	"no_track_ids",
}

func (c ErrorClass) String() string {
	switch c {
	case CredentialInvalid:
		return "credential_invalid"
	case InsufficientScope:
		return "insufficient_scope"
	case AccountNotRegistered:
		return "account_not_registered"
	case ForbiddenOther:
		return "forbidden_other"
	case NoCandidates:
		return "no_candidates"
	case UnprocessableOther:
		return "unprocessable_other"
	case TransientUpstream:
		return "transient_upstream"
	default:
		return ""
	}
}

// Fatal reports whether the class aborts the whole request.
//
// Credential rejections are fatal everywhere: every subsequent source needs
// the same credential and would fail identically.
func (c ErrorClass) Fatal() bool {
	switch c {
	case CredentialInvalid, InsufficientScope, AccountNotRegistered, ForbiddenOther:
		return true
	default:
		return false
	}
}

// Classify maps an upstream status and message to exactly one [ErrorClass].
//
// Total and deterministic: every (status, message) pair has one class.
// A zero status models transport-level failure.
func Classify(status int, message string) ErrorClass {
	switch status {
	case 401:
		return CredentialInvalid
	case 403:
		if strings.Contains(message, codeInsufficientScope) {
			return InsufficientScope
		}
		if strings.Contains(message, codeNotRegistered) {
			return AccountNotRegistered
		}
		return ForbiddenOther
	case 422:
		for _, code := range emptyCandidateCodes {
			if strings.Contains(message, code) {
				return NoCandidates
			}
		}
		return UnprocessableOther
	default:
		return TransientUpstream
	}
}

// ClassifyError classifies any error from an upstream call.
//
// Errors that are not an [*APIError] (transport failures, cancellations)
// classify as [TransientUpstream].
func ClassifyError(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Classify(apiErr.Status, apiErr.Body)
	}
	return TransientUpstream
}
