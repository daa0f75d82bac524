// Package server provides HTTP routing, middleware, and the moodlist web API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # Web API
//
// [App] bundles the handlers behind the JSON API:
//   - GET /auth/spotify/login : start the authorization flow
//   - GET /auth/spotify/callback : state check, code exchange, sealed session cookie
//   - GET /auth/spotify/status : report whether the caller holds a usable session
//   - POST /auth/spotify/logout : discard the session cookie
//   - POST /api/playlists : generate a mood playlist
//   - GET /api/playlists : the caller's generation history
//
// Every non-success response is a JSON error body carrying a machine-readable
// category, mapped onto HTTP status by [statusForCategory]: credential
// problems are 401, access problems 403, empty candidate sets 422, and
// upstream failures 502.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the loopback callback for the CLI flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
// When the user runs `moodlist auth`, a temporary HTTP server starts on the
// configured redirect address, handles the callback, and shuts down after
// receiving the OAuth token.
package server
