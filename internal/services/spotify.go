// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/showlist/internal/models"
)

// playlistTrackFields trims the playlist items response down to what a conversion uses.
const playlistTrackFields = "items(track(id,name,album(id,name),artists(id,name),duration_ms,is_local))"

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album. Simplified album objects embedded in tracks only carry ID and Name.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Album      SpotifyAlbum    `json:"album"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	IsLocal    bool            `json:"is_local"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
//
// Track is null for items Spotify cannot describe as a track, such as podcast episodes.
type SpotifyPlaylistTrack struct {
	Track *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistItems is one page of a playlist's items.
type SpotifyPlaylistItems struct {
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifySeveralAlbums is the response of the several-albums endpoint. Unknown ids come back as null.
type SpotifySeveralAlbums struct {
	Albums []*SpotifyAlbum `json:"albums"`
}

// SpotifyServiceOpts configures a [SpotifyService].
type SpotifyServiceOpts struct {
	// AlbumConcurrency is the number of album batches requested in parallel. Values below 2 keep batches sequential.
	AlbumConcurrency int
}

// SpotifyService implements [Service] for the Spotify Web API.
type SpotifyService struct {
	client           *Client
	albumConcurrency int
}

// NewSpotifyService creates a new Spotify service that issues its requests through client.
func NewSpotifyService(client *Client, opts SpotifyServiceOpts) *SpotifyService {
	if opts.AlbumConcurrency < 1 {
		opts.AlbumConcurrency = 1
	}
	return &SpotifyService{client: client, albumConcurrency: opts.AlbumConcurrency}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Playlist retrieves playlist metadata by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (models.Playlist, error) {
	var sp SpotifyPlaylist
	query := url.Values{"fields": {"id,name,description"}}
	if err := s.client.Get(ctx, "/playlists/"+url.PathEscape(playlistID), query, &sp); err != nil {
		return models.Playlist{}, err
	}

	return models.Playlist{ID: sp.ID, Name: sp.Name, Description: sp.Description}, nil
}

// PlaylistTracks returns a pager that requests PlaylistPageSize items at a time.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) *TrackPager {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	return NewTrackPager(ctx, PlaylistPageSize, func(ctx context.Context, offset, limit int) ([]*models.Track, error) {
		query := url.Values{
			"fields": {playlistTrackFields},
			"limit":  {strconv.Itoa(limit)},
			"offset": {strconv.Itoa(offset)},
		}

		var page SpotifyPlaylistItems
		if err := s.client.Get(ctx, endpoint, query, &page); err != nil {
			return nil, err
		}

		tracks := make([]*models.Track, len(page.Items))
		for i, item := range page.Items {
			if item.Track != nil {
				track := toTrack(*item.Track)
				tracks[i] = &track
			}
		}
		return tracks, nil
	})
}

func toTrack(st SpotifyTrack) models.Track {
	artists := make([]models.Artist, 0, len(st.Artists))
	for _, a := range st.Artists {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name})
	}

	return models.Track{
		ID:         st.ID,
		Name:       st.Name,
		AlbumID:    st.Album.ID,
		AlbumName:  st.Album.Name,
		Artists:    artists,
		DurationMS: max(st.DurationMS, 0),
		IsLocal:    st.IsLocal,
	}
}

func toAlbum(sa SpotifyAlbum) models.Album {
	year := sa.ReleaseDate
	if len(year) > 4 {
		year = year[:4]
	}
	return models.Album{ID: sa.ID, Name: sa.Name, Label: sa.Label, ReleaseYear: year}
}
