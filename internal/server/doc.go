// Package server exposes playlist conversion over HTTP.
//
// # Routes
//
//   - POST /api/convert : body {playlist_url, format, show_title?, show_date?}; answers
//     {playlistName, warnings, body, filename} or {error} with a 4xx/5xx status
//   - GET /health : liveness probe
//
// Validation failures map to 400, a missing or private playlist to 404, upstream Spotify
// failures to 502 and everything else to 500. See [StatusFor].
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// The default stack built by [NewRouter] is [Recoverer], [RequestID], [Logging] and [CORS], outermost first.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
