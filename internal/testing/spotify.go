package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FakePlaylist is a playlist served by [FakeSpotify].
//
// A nil entry in Items is served as {"track": null}. MetaStatus / TracksStatus force an error status on
// the metadata or the items endpoint.
type FakePlaylist struct {
	Name         string
	Description  string
	Items        []map[string]any
	MetaStatus   int
	TracksStatus int
}

// FakeAlbum is an album served by [FakeSpotify].
type FakeAlbum struct {
	Name        string
	Label       string
	ReleaseDate string
}

// FakeSpotify is an httptest server speaking enough of the Spotify accounts and Web APIs for a conversion.
type FakeSpotify struct {
	Server *httptest.Server

	mu        sync.Mutex
	playlists map[string]FakePlaylist
	albums    map[string]FakeAlbum

	TokenStatus int // non-zero forces the token endpoint to fail
	ExpiresIn   int
	AlbumStatus int

	TokenRequests  int
	PageRequests   int
	AlbumBatches   [][]string
	SeenAuthHeader string
}

// NewFakeSpotify starts a fake server that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{
		playlists: make(map[string]FakePlaylist),
		albums:    make(map[string]FakeAlbum),
		ExpiresIn: 3600,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.token)
	mux.HandleFunc("GET /v1/playlists/{id}", f.playlist)
	mux.HandleFunc("GET /v1/playlists/{id}/tracks", f.playlistTracks)
	mux.HandleFunc("GET /v1/albums", f.severalAlbums)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// TokenURL returns the fake accounts service token endpoint.
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }

// APIURL returns the fake Web API base URL.
func (f *FakeSpotify) APIURL() string { return f.Server.URL + "/v1" }

// AddPlaylist registers a playlist under id.
func (f *FakeSpotify) AddPlaylist(id string, p FakePlaylist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[id] = p
}

// AddAlbum registers an album under id.
func (f *FakeSpotify) AddAlbum(id string, a FakeAlbum) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.albums[id] = a
}

// Counts returns the token and page request counters under lock.
func (f *FakeSpotify) Counts() (tokens, pages, albumBatches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TokenRequests, f.PageRequests, len(f.AlbumBatches)
}

// Track builds a catalog playlist item.
func Track(id, name, albumID, albumName string, durationMS int, artists ...string) map[string]any {
	as := make([]map[string]any, 0, len(artists))
	for i, a := range artists {
		as = append(as, map[string]any{"id": fmt.Sprintf("%s-artist-%d", id, i), "name": a})
	}
	return map[string]any{
		"id":          id,
		"name":        name,
		"album":       map[string]any{"id": albumID, "name": albumName},
		"artists":     as,
		"duration_ms": durationMS,
		"is_local":    false,
	}
}

// LocalTrack builds a playlist item imported from local files.
func LocalTrack(name, albumName string, durationMS int, artist string) map[string]any {
	return map[string]any{
		"id":          nil,
		"name":        name,
		"album":       map[string]any{"id": nil, "name": albumName},
		"artists":     []map[string]any{{"id": nil, "name": artist}},
		"duration_ms": durationMS,
		"is_local":    true,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": message}})
}

func (f *FakeSpotify) token(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.TokenRequests++
	n := f.TokenRequests
	status := f.TokenStatus
	expires := f.ExpiresIn
	f.mu.Unlock()

	if status != 0 {
		writeJSON(w, status, map[string]string{"error": "invalid_client", "error_description": "Invalid client"})
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": fmt.Sprintf("token-%d", n),
		"token_type":   "Bearer",
		"expires_in":   expires,
	})
}

func (f *FakeSpotify) authorized(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	f.mu.Lock()
	f.SeenAuthHeader = auth
	f.mu.Unlock()

	if !strings.HasPrefix(auth, "Bearer token-") {
		apiError(w, http.StatusUnauthorized, "No token provided")
		return false
	}
	return true
}

func (f *FakeSpotify) lookup(id string) (FakePlaylist, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	return p, ok
}

func (f *FakeSpotify) playlist(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	id := r.PathValue("id")
	p, ok := f.lookup(id)
	switch {
	case !ok:
		apiError(w, http.StatusNotFound, "Resource not found")
	case p.MetaStatus != 0:
		apiError(w, p.MetaStatus, http.StatusText(p.MetaStatus))
	default:
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "name": p.Name, "description": p.Description})
	}
}

func (f *FakeSpotify) playlistTracks(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	f.mu.Lock()
	f.PageRequests++
	f.mu.Unlock()

	p, ok := f.lookup(r.PathValue("id"))
	switch {
	case !ok:
		apiError(w, http.StatusNotFound, "Resource not found")
		return
	case p.TracksStatus != 0:
		apiError(w, p.TracksStatus, http.StatusText(p.TracksStatus))
		return
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 50 {
		apiError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	items := []map[string]any{}
	for i := offset; i < len(p.Items) && i < offset+limit; i++ {
		items = append(items, map[string]any{"track": p.Items[i]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (f *FakeSpotify) severalAlbums(w http.ResponseWriter, r *http.Request) {
	if !f.authorized(w, r) {
		return
	}
	ids := strings.Split(r.URL.Query().Get("ids"), ",")

	f.mu.Lock()
	f.AlbumBatches = append(f.AlbumBatches, ids)
	status := f.AlbumStatus
	f.mu.Unlock()

	if status != 0 {
		apiError(w, status, http.StatusText(status))
		return
	}
	if len(ids) > 20 {
		apiError(w, http.StatusBadRequest, "Too many ids requested")
		return
	}

	albums := make([]any, 0, len(ids))
	f.mu.Lock()
	for _, id := range ids {
		a, ok := f.albums[id]
		if !ok {
			albums = append(albums, nil)
			continue
		}
		albums = append(albums, map[string]any{
			"id":           id,
			"name":         a.Name,
			"label":        a.Label,
			"release_date": a.ReleaseDate,
		})
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"albums": albums})
}
