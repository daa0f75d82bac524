package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Session and credential errors
	ErrCredentialMissing = fmt.Errorf("spotify not connected")
	ErrCredentialExpired = fmt.Errorf("spotify token expired")
	ErrCredentialInvalid = fmt.Errorf("spotify token invalid")
	ErrInvalidState      = fmt.Errorf("invalid oauth state")

	// Upstream access errors
	ErrInsufficientScope    = fmt.Errorf("spotify permission missing")
	ErrAccountNotRegistered = fmt.Errorf("spotify account not registered with app")
	ErrForbidden            = fmt.Errorf("spotify access forbidden")

	// Generation errors
	ErrNoCandidates       = fmt.Errorf("no track candidates after fallback cascade")
	ErrEngineUnreachable  = fmt.Errorf("recommendation engine unreachable")
	ErrUpstreamError      = fmt.Errorf("upstream service error")
	ErrPlaylistWrite      = fmt.Errorf("playlist creation failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrAPIRequest         = fmt.Errorf("API request failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidMood     = fmt.Errorf("invalid mood")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// Category is the machine-readable error category surfaced to API and CLI callers.
type Category string

const (
	CategoryCredentialMissing    Category = "spotify_not_connected"
	CategoryCredentialExpired    Category = "spotify_token_expired"
	CategoryCredentialInvalid    Category = "spotify_token_invalid"
	CategoryInsufficientScope    Category = "spotify_insufficient_scope"
	CategoryAccountNotRegistered Category = "spotify_user_not_registered"
	CategoryForbidden            Category = "spotify_forbidden"
	CategoryNoCandidates         Category = "no_tracks"
	CategoryUpstreamUnreachable  Category = "ml_service_unreachable"
	CategoryUpstreamError        Category = "ml_service_error"
	CategoryPlaylistWrite        Category = "spotify_error"
)

// RequestError pairs a machine-readable [Category] with a message suitable for direct display.
type RequestError struct {
	Category Category
	Message  string
	Detail   string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Category, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// NewRequestError builds a [RequestError] with the given category and display message.
func NewRequestError(category Category, message, detail string) *RequestError {
	return &RequestError{Category: category, Message: message, Detail: detail}
}
