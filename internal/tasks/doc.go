// Package tasks orchestrates mood playlist generation with real-time progress reporting.
//
// # Core Operation
//
// The [Engine] interface defines a single operation:
//
//	[Engine.Generate] : Full mood playlist generation
//	  - Scores the listener's top tracks through the recommendation engine
//	  - Walks the fallback cascade (Liked Songs, Trending, genre recommendations) when the engine is empty
//	  - Tops up short track lists from the remaining fallback sources
//	  - Creates a private playlist and adds the selected tracks
//
// # Fallback Cascade
//
// Tiers run in a fixed order and the first tier with tracks wins. Credential
// rejections (401/403) abort the whole cascade, since every tier would fail
// identically. Any other failure falls through to the next tier, and total
// exhaustion surfaces as a typed no-candidates error.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [MoodEngine] implements [Engine] with dependencies on:
//   - [services.TrackSource] and [services.PlaylistWriter] : Spotify Web API client
//   - [services.Recommender] : External mood recommendation engine
package tasks
