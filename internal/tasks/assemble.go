package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/services"
	"github.com/desertthunder/showlist/internal/shared"
)

// Assembler joins a playlist's tracks with their album metadata.
type Assembler struct {
	source services.Service
	logger *log.Logger
}

// NewAssembler creates an [Assembler] reading from source.
func NewAssembler(source services.Service, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Assembler{source: source, logger: logger}
}

// Assemble builds the show playlist for playlistID.
//
// A 404 on the playlist metadata leaves the name empty. A 404 on the track listing is
// reported as [shared.ErrPlaylistNotFound]. Any other upstream failure aborts the assembly.
func (a *Assembler) Assemble(
	ctx context.Context,
	playlistID, showTitle string,
	showDate *time.Time,
	progress chan<- ProgressUpdate,
) (*models.ShowPlaylist, error) {
	if a.source == nil {
		return nil, fmt.Errorf("%w: %s service not initialized", shared.ErrServiceUnavailable, "playlist")
	}

	result := &models.ShowPlaylist{
		PlaylistID: playlistID,
		ShowTitle:  showTitle,
		ShowDate:   showDate,
		Tracks:     []models.ShowTrack{},
	}

	sendProgress(progress, fetchingPlaylistUpdate(playlistID))
	meta, err := a.source.Playlist(ctx, playlistID)
	switch {
	case services.IsNotFound(err):
		a.logger.Warn("playlist metadata not found, continuing without a name", "playlist", playlistID)
	case err != nil:
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	default:
		result.PlaylistName = meta.Name
	}
	sendProgress(progress, foundPlaylistUpdate(result.PlaylistName))

	tracks, skipped, err := a.collectTracks(ctx, playlistID, progress)
	if err != nil {
		return nil, err
	}
	result.SkippedItems = skipped

	albumIDs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		if !track.IsLocal && track.AlbumID != "" {
			albumIDs = append(albumIDs, track.AlbumID)
		}
	}

	albums := map[string]models.Album{}
	if len(albumIDs) > 0 {
		sendProgress(progress, fetchAlbumsUpdate(len(albumIDs)))
		albums, err = a.source.SeveralAlbums(ctx, albumIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch albums: %w", err)
		}
	}

	for _, track := range tracks {
		result.Tracks = append(result.Tracks, models.ShowTrack{Track: track, Album: a.albumFor(track, albums)})
	}

	sendProgress(progress, assembledUpdate(len(result.Tracks), skipped))
	a.logger.Debug("assembled playlist",
		"playlist", playlistID, "tracks", len(result.Tracks), "albums", len(albums), "skipped", skipped)
	return result, nil
}

func (a *Assembler) collectTracks(ctx context.Context, playlistID string, progress chan<- ProgressUpdate) ([]models.Track, int, error) {
	pager := a.source.PlaylistTracks(ctx, playlistID)

	var tracks []models.Track
	lastPage := 0
	for track, err := range pager.All() {
		if services.IsNotFound(err) {
			return nil, 0, shared.ErrPlaylistNotFound
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to fetch playlist tracks: %w", err)
		}
		tracks = append(tracks, track)

		if pages := pager.Pages(); pages != lastPage {
			lastPage = pages
			sendProgress(progress, fetchTracksUpdate(pages, len(tracks)))
		}
	}
	return tracks, pager.Skipped(), nil
}

// albumFor resolves the album row for a track. Local tracks and tracks whose album
// was not returned get a placeholder carrying only the embedded album name.
func (a *Assembler) albumFor(track models.Track, albums map[string]models.Album) models.Album {
	if !track.IsLocal {
		if album, ok := albums[track.AlbumID]; ok {
			return album
		}
		a.logger.Warn("album missing from lookup", "track", track.Name, "album", track.AlbumID)
	}
	return models.Album{ID: track.AlbumID, Name: track.AlbumName}
}
