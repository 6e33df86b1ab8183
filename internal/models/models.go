// package models defines the data model for the playlist converter
package models

import (
	"strings"
	"time"
)

// Credential is a bearer token and the instant it stops being usable.
type Credential struct {
	AccessToken string
	Expiry      time.Time
}

// Valid reports whether the credential can be used at the given instant.
// A credential is never valid at or after its expiry.
func (c Credential) Valid(at time.Time) bool {
	return c.AccessToken != "" && at.Before(c.Expiry)
}

// Artist is a performer credited on a track.
type Artist struct {
	ID   string
	Name string
}

// Album holds the catalog metadata the playlist editor asks for.
// Label and ReleaseYear may be empty.
type Album struct {
	ID          string
	Name        string
	Label       string
	ReleaseYear string // first four characters of the release date
}

// Track is a single playlist entry.
type Track struct {
	ID         string
	Name       string
	AlbumID    string
	AlbumName  string
	Artists    []Artist
	DurationMS int
	IsLocal    bool // imported from the owner's local files, no catalog album metadata
}

// Performer joins all credited artist names with ", ".
func (t Track) Performer() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// Playlist represents playlist metadata.
type Playlist struct {
	ID          string
	Name        string
	Description string
}

// ShowTrack pairs a track with the album it resolved to.
type ShowTrack struct {
	Track Track
	Album Album
}

// ShowPlaylist is an assembled playlist ready to be written out.
//
// Empty PlaylistName / ShowTitle and a nil ShowDate mean "absent".
type ShowPlaylist struct {
	PlaylistID   string
	PlaylistName string
	ShowTitle    string
	ShowDate     *time.Time
	Tracks       []ShowTrack
	SkippedItems int // upstream items without a track payload (podcast episodes etc.)
}

// HasShowInfo reports whether both show title and show date are present.
func (p *ShowPlaylist) HasShowInfo() bool {
	return p.ShowTitle != "" && p.ShowDate != nil
}
