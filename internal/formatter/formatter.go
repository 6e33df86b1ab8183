// package formatter renders assembled show playlists as CSV files for the station's playlist editors
package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/gosimple/slug"
)

// Layout selects one of the two playlist editor CSV layouts.
type Layout string

const (
	LayoutNew Layout = "new"
	LayoutOld Layout = "old"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case LayoutNew:
		return LayoutNew, nil
	case LayoutOld:
		return LayoutOld, nil
	default:
		return "", fmt.Errorf("%w: invalid value for format: %q (expected \"old\" or \"new\")", shared.ErrInvalidInput, s)
	}
}

// NewEditorHeaders are the columns of the new playlist editor import.
var NewEditorHeaders = []string{"title", "duration", "performer", "album", "year", "label", "composer", "notes"}

// OldEditorHeaders are the columns of the old playlist editor import. The *_url columns are always left empty.
var OldEditorHeaders = []string{
	"title", "title_url", "duration", "performer", "performer_url",
	"album", "album_url", "released", "label", "composer", "composer_url", "notes",
}

// ShowDateLayout is how the old editor expects the show date (MM/DD/YY).
const ShowDateLayout = "01/02/06"

// Write renders playlist in the given layout.
func Write(w io.Writer, layout Layout, playlist *models.ShowPlaylist) ([]string, error) {
	switch layout {
	case LayoutOld:
		return WriteOld(w, playlist)
	case LayoutNew:
		return WriteNew(w, playlist)
	default:
		return nil, fmt.Errorf("%w: unknown layout %q", shared.ErrInvalidInput, layout)
	}
}

// WriteNew writes playlist in the new editor layout: one header row, then one row per track.
//
// Returns the warnings collected while writing, in track order. An empty slice means every track resolved.
func WriteNew(w io.Writer, playlist *models.ShowPlaylist) ([]string, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(NewEditorHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	warnings := []string{}
	for _, st := range playlist.Tracks {
		label, year, warning := albumDetails(st)
		if warning != "" {
			warnings = append(warnings, warning)
		}

		record := []string{
			st.Track.Name,
			FormatDuration(st.Track.DurationMS),
			st.Track.Performer(),
			st.Album.Name,
			year,
			label,
			"",
			"",
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return append(warnings, skippedWarnings(playlist.SkippedItems)...), nil
}

// WriteOld writes playlist in the old editor layout: a [show title, show date] row, the header row, then tracks.
//
// Both show title and show date are required; without them nothing is written and
// [shared.ErrMissingShowInfo] is returned.
func WriteOld(w io.Writer, playlist *models.ShowPlaylist) ([]string, error) {
	if !playlist.HasShowInfo() {
		return nil, shared.ErrMissingShowInfo
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{playlist.ShowTitle, playlist.ShowDate.Format(ShowDateLayout)}); err != nil {
		return nil, fmt.Errorf("failed to write CSV show row: %w", err)
	}
	if err := writer.Write(OldEditorHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	warnings := []string{}
	for _, st := range playlist.Tracks {
		label, year, warning := albumDetails(st)
		if warning != "" {
			warnings = append(warnings, warning)
		}

		record := []string{
			st.Track.Name,
			"",
			FormatDuration(st.Track.DurationMS),
			st.Track.Performer(),
			"",
			st.Album.Name,
			"",
			year,
			label,
			"",
			"",
			"",
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return append(warnings, skippedWarnings(playlist.SkippedItems)...), nil
}

// albumDetails returns label and year for a row, plus a warning when they cannot be filled in.
func albumDetails(st models.ShowTrack) (label, year, warning string) {
	if st.Track.IsLocal {
		return "", "", LocalTrackWarning(st.Track.Name)
	}
	return st.Album.Label, st.Album.ReleaseYear, ""
}

// LocalTrackWarning explains that a local-file track needs its label and year entered by hand.
func LocalTrackWarning(trackName string) string {
	return fmt.Sprintf(
		"Track '%s' was imported from a local library, so its record label and release year can't be looked up automatically. "+
			"Other fields may be missing or incomplete too; enter this track's details in the station's interface manually.",
		trackName,
	)
}

// SkippedItemWarning is reported once per playlist item that had no track details (podcast episodes, for example).
const SkippedItemWarning = "An item in the playlist had no track details, so it was left out. (Podcast episodes cause this.)"

func skippedWarnings(n int) []string {
	warnings := make([]string, 0, n)
	for i := 0; i < n; i++ {
		warnings = append(warnings, SkippedItemWarning)
	}
	return warnings
}

// FormatDuration renders milliseconds as m:ss, discarding the sub-second remainder.
func FormatDuration(ms int) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	return fmt.Sprintf("%d:%02d", totalSeconds/60, totalSeconds%60)
}

// Filename derives a CSV file name from a playlist name, falling back to "playlist.csv".
func Filename(playlistName string) string {
	name := Slugify(playlistName)
	if name == "" {
		return "playlist.csv"
	}
	return name + ".csv"
}

// Slugify transliterates s to lowercase ASCII and joins its words with "-".
func Slugify(s string) string {
	return slug.Make(s)
}
