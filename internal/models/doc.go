// Package models defines domain entities and persistence interfaces for the moodlist service.
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support:
//   - [User] : Listeners identified by the email on their Spotify profile
//   - [AccessGrant] : Allowlist entries gating playlist generation
//   - [PlaylistRecord] : Playlists generated on Spotify, with mood and source tier
//
// The Repository[T] interface defines standard CRUD operations for database access.
package models
