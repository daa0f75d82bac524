package tasks

import "fmt"

// ProgressUpdate represents a progress event during playlist generation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchEngine Phase = iota
	FetchSaved
	FetchEditorial
	FetchRecommendations
	CreatePlaylist
	AddTracks
	TopUp
)

func (p Phase) String() string {
	switch p {
	case FetchEngine:
		return "fetch_engine"
	case FetchSaved:
		return "fetch_saved"
	case FetchEditorial:
		return "fetch_editorial"
	case FetchRecommendations:
		return "fetch_recommendations"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case TopUp:
		return "top_up"
	default:
		return ""
	}
}

func fetchEngineUpdate(step, total int, mood Mood) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEngine,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Scoring your top tracks for a %s mood...", mood),
	}
}

func fetchSavedUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSaved,
		Step:    step,
		Total:   total,
		Message: "Looking through your Liked Songs...",
	}
}

func fetchEditorialUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchEditorial,
		Step:    step,
		Total:   total,
		Message: "Pulling tracks from Trending...",
	}
}

func fetchRecommendationsUpdate(step, total int, seeds []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRecommendations,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Asking Spotify for recommendations (%v)...", seeds),
		Data:    seeds,
	}
}

func createPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func addTracksUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Adding %d tracks...", count),
	}
}

func topUpUpdate(step, total, have, want int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TopUp,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Topping up playlist (%d of %d tracks)...", have, want),
	}
}
