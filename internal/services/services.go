// package services defines the interfaces the conversion pipeline needs from a streaming service
// and implements them for the Spotify Web API.
package services

import (
	"context"

	"github.com/desertthunder/showlist/internal/models"
)

// PlaylistSource fetches playlist metadata and lazily pages through a playlist's tracks.
type PlaylistSource interface {
	// Playlist retrieves playlist metadata. A missing playlist surfaces as a 404 [APIError].
	Playlist(ctx context.Context, playlistID string) (models.Playlist, error)

	// PlaylistTracks returns a single-pass pager over the playlist's tracks.
	PlaylistTracks(ctx context.Context, playlistID string) *TrackPager
}

// AlbumSource resolves album metadata for a set of album ids.
type AlbumSource interface {
	// SeveralAlbums returns one entry per distinct id the service knows about.
	SeveralAlbums(ctx context.Context, albumIDs []string) (map[string]models.Album, error)
}

// Service is everything a playlist conversion reads from the upstream catalog.
type Service interface {
	PlaylistSource
	AlbumSource

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
