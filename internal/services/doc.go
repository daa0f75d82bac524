// Package services implements typed clients for the two upstream HTTP APIs
// the playlist generator depends on.
//
// # Spotify Client
//
// [SpotifyService] implements [TrackSource] and [PlaylistWriter]. Credentials
// are per-call bearer tokens rather than per-instance state, so a single
// service instance is shared by all concurrent requests. All calls flow
// through one helper that attaches the credential, serializes JSON bodies,
// rate limits with [rate.Limiter], and converts any non-success status into
// an [*APIError] carrying the numeric status and the body text.
//
// Listing operations share one paging contract: request pages of 50, follow
// the next-page pointer until the caller's limit is met or the upstream
// reports no further pages, deduplicate by identifier preserving first-seen
// order, and cap at the limit (never more than [MaxTrackIDs]).
//
// OAuth server-side flows use [oauth2.Config]; only the access token and its
// expiry leave this package.
//
// # Recommendation Engine Client
//
// [RecommenderService] wraps the external mood recommendation engine.
// Transport failures wrap [shared.ErrEngineUnreachable]; engine errors are
// normalized into the same [*APIError] shape as Spotify errors.
//
// # Error Classification
//
// [Classify] maps (status, message) pairs into the closed [ErrorClass]
// enumeration the cascade branches on, replacing substring matching scattered
// through callers. [ErrorClass.Fatal] encodes the abort-versus-continue
// decision in one place.
package services
