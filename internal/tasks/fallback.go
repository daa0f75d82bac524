package tasks

import (
	"context"

	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/shared"
)

// TrendingPlaylistID is Spotify's "Today's Top Hits" editorial playlist, the
// source for the editorial fallback tier.
const TrendingPlaylistID = "37i9dQZF1DXbVhgADFy3im"

// fallbackFetchLimit caps each fallback tier's candidate fetch.
const fallbackFetchLimit = 50

// Source names the tier that supplied a playlist's tracks.
type Source string

const (
	SourcePrimary        Source = "primary"
	SourceSaved          Source = "saved"
	SourceEditorial      Source = "editorial"
	SourceRecommendation Source = "recommendation"
)

// fallback messages shown to the listener when the engine tier is empty
const (
	savedFallbackMessage          = "No top tracks found; used your Liked Songs to curate this playlist."
	editorialFallbackMessage      = "No top tracks found; used Trending tracks to curate this playlist."
	recommendationFallbackMessage = "No top tracks found; used Spotify recommendations to curate this playlist."
	exhaustedMessage              = "No top tracks found and no fallback tracks were available."
)

// fallbackTrackIDs walks the fallback cascade in order (Liked Songs, the
// Trending editorial playlist, genre-seeded recommendations) and returns the
// first tier that yields tracks, with its user-facing message.
//
// Credential rejections abort the cascade: every tier would fail the same
// way. Other failures log and fall through to the next tier. A missing
// editorial playlist is treated as an empty tier. When the recommendation
// tier fails for a transient reason, it is retried once with a single broad
// seed and no market before giving up.
func (e *MoodEngine) fallbackTrackIDs(ctx context.Context, progress chan<- ProgressUpdate, mood Mood, credential string) ([]string, Source, string, error) {
	e.sendProgress(progress, fetchSavedUpdate(1, 3))

	ids, err := e.source.SavedTrackIDs(ctx, credential, fallbackFetchLimit)
	if err != nil {
		if class := services.ClassifyError(err); class.Fatal() {
			return nil, "", "", UpstreamRequestError(class, err)
		}
		e.logger.Warn("saved tracks fallback failed", "err", err)
	} else if len(ids) > 0 {
		return ids, SourceSaved, savedFallbackMessage, nil
	}

	e.sendProgress(progress, fetchEditorialUpdate(2, 3))

	ids, err = e.source.PlaylistTrackIDs(ctx, credential, TrendingPlaylistID, fallbackFetchLimit)
	if err != nil {
		if class := services.ClassifyError(err); class.Fatal() {
			return nil, "", "", UpstreamRequestError(class, err)
		}
		e.logger.Warn("editorial fallback failed", "playlist", TrendingPlaylistID, "err", err)
	} else if len(ids) > 0 {
		return ids, SourceEditorial, editorialFallbackMessage, nil
	}

	seeds := mood.SeedGenres()
	e.sendProgress(progress, fetchRecommendationsUpdate(3, 3, seeds))

	ids, err = e.source.RecommendationTrackIDs(ctx, credential, fallbackFetchLimit, seeds, "from_token")
	if err != nil {
		class := services.ClassifyError(err)
		if class.Fatal() {
			return nil, "", "", UpstreamRequestError(class, err)
		}
		e.logger.Warn("recommendation fallback failed, retrying with broad seed", "seeds", seeds, "err", err)

		ids, err = e.source.RecommendationTrackIDs(ctx, credential, fallbackFetchLimit, []string{"pop"}, "")
		if err != nil {
			if class := services.ClassifyError(err); class.Fatal() {
				return nil, "", "", UpstreamRequestError(class, err)
			}
			e.logger.Warn("recommendation retry failed", "err", err)
			ids = nil
		}
	}
	if len(ids) > 0 {
		return ids, SourceRecommendation, recommendationFallbackMessage, nil
	}

	return nil, "", "", shared.NewRequestError(shared.CategoryNoCandidates, exhaustedMessage, "")
}

// topUpTrackIDs pads a short candidate list toward want by running the
// fallback cascade once more and merging in the winning tier's tracks,
// deduplicated against what is already there. The cascade short-circuits,
// so a tier that simply repeats the existing tracks leaves the list short.
// Top-up is best effort: a cascade failure here is logged and swallowed,
// since the caller already has a usable playlist.
func (e *MoodEngine) topUpTrackIDs(ctx context.Context, mood Mood, credential string, have []string, want int) []string {
	merged := shared.DedupeKeepOrder(have)

	ids, _, _, err := e.fallbackTrackIDs(ctx, nil, mood, credential)
	if err != nil {
		e.logger.Warn("top-up cascade failed", "err", err)
		return merged
	}

	merged = shared.DedupeKeepOrder(append(merged, ids...))
	if len(merged) > want {
		merged = merged[:want]
	}
	return merged
}
