package models

import (
	"fmt"
	"time"
)

// PlaylistRecord is the persisted record of a playlist generated on Spotify.
//
// It remembers which mood the playlist was generated for and which source
// tier supplied its tracks, so listeners can review their history.
type PlaylistRecord struct {
	id         string
	sequence   int
	userID     string
	mood       string
	spotifyID  string
	spotifyURL string
	name       string
	trackCount int
	source     string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewPlaylistRecord creates a PlaylistRecord with timestamps set to now.
// The ID is assigned by the repository on Create.
func NewPlaylistRecord(sequence int, userID, mood, spotifyID, spotifyURL, name string) *PlaylistRecord {
	now := time.Now()
	return &PlaylistRecord{
		sequence:   sequence,
		userID:     userID,
		mood:       mood,
		spotifyID:  spotifyID,
		spotifyURL: spotifyURL,
		name:       name,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (p *PlaylistRecord) ID() string            { return p.id }
func (p *PlaylistRecord) Sequence() int         { return p.sequence }
func (p *PlaylistRecord) UserID() string        { return p.userID }
func (p *PlaylistRecord) Mood() string          { return p.mood }
func (p *PlaylistRecord) SpotifyID() string     { return p.spotifyID }
func (p *PlaylistRecord) SpotifyURL() string    { return p.spotifyURL }
func (p *PlaylistRecord) Name() string          { return p.name }
func (p *PlaylistRecord) TrackCount() int       { return p.trackCount }
func (p *PlaylistRecord) Source() string        { return p.source }
func (p *PlaylistRecord) CreatedAt() time.Time  { return p.createdAt }
func (p *PlaylistRecord) UpdatedAt() time.Time  { return p.updatedAt }
func (p *PlaylistRecord) DeletedAt() *time.Time { return p.deletedAt }

func (p *PlaylistRecord) SetID(id string)           { p.id = id }
func (p *PlaylistRecord) SetTrackCount(n int)       { p.trackCount = n }
func (p *PlaylistRecord) SetSource(source string)   { p.source = source }
func (p *PlaylistRecord) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *PlaylistRecord) SetDeletedAt(t *time.Time) { p.deletedAt = t }

// Validate checks that the record points at a real owner and Spotify playlist.
func (p *PlaylistRecord) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("playlist user_id is required")
	}
	if p.mood == "" {
		return fmt.Errorf("playlist mood is required")
	}
	if p.spotifyID == "" {
		return fmt.Errorf("playlist spotify_id is required")
	}
	if p.name == "" {
		return fmt.Errorf("playlist name is required")
	}
	if p.trackCount < 0 {
		return fmt.Errorf("playlist track_count cannot be negative")
	}
	return nil
}
