package services

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/desertthunder/showlist/internal/shared"
)

var playlistURLPattern = regexp.MustCompile(`(?i)^https?://open\.spotify\.com/playlist/([^?]+)(?:\?.*)?$`)

// ExtractPlaylistID returns the playlist id from a link such as
// https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc.
//
// The id is everything between "/playlist/" and the first "?" (or the end of the string).
func ExtractPlaylistID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q is not a valid URL", shared.ErrInvalidInput, rawURL)
	}

	match := playlistURLPattern.FindStringSubmatch(rawURL)
	if match == nil {
		return "", fmt.Errorf("%w: %q is not a Spotify playlist URL", shared.ErrInvalidInput, rawURL)
	}
	return match[1], nil
}
