package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a conversion.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase (0 when unknown)
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	FetchTracks
	FetchAlbums
	AssemblePlaylist
	WriteCSV
	BatchConvert
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchTracks:
		return "fetch_tracks"
	case FetchAlbums:
		return "fetch_albums"
	case AssemblePlaylist:
		return "assemble_playlist"
	case WriteCSV:
		return "write_csv"
	case BatchConvert:
		return "batch_convert"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingPlaylistUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", id),
	}
}

func foundPlaylistUpdate(name string) ProgressUpdate {
	if name == "" {
		name = "(untitled)"
	}
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s", name),
		Data:    name,
	}
}

func fetchTracksUpdate(page, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    page,
		Message: fmt.Sprintf("Fetched page %d (%d tracks so far)...", page, tracks),
	}
}

func fetchAlbumsUpdate(albums int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchAlbums,
		Step:    0,
		Total:   albums,
		Message: fmt.Sprintf("Looking up %d albums...", albums),
	}
}

func assembledUpdate(tracks, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AssemblePlaylist,
		Step:    tracks,
		Total:   tracks,
		Message: fmt.Sprintf("Assembled %d tracks (%d skipped items)", tracks, skipped),
	}
}

func writingCSVUpdate(layout string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteCSV,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s playlist editor CSV...", layout),
	}
}

func batchStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchConvert,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Converting %d playlists...", total),
	}
}

func batchCompletedUpdate(step, total int, name string, warnings int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d warnings)", step, total, name, warnings),
	}
}

func batchFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
