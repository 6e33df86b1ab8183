// Package services defines the [Service] interface the conversion pipeline reads from and implements it for Spotify.
//
// # Authentication
//
// [TokenManager] performs the client-credentials grant against the Spotify accounts service and caches the
// resulting [models.Credential] in a [TokenStore] until it expires. [MemoryTokenStore] is the default;
// [RedisTokenStore] lets several processes share one token.
//
// # Requests
//
// [Client] attaches the bearer token to every request, bounds each call with a timeout and an optional
// rate limiter, and turns non-2xx responses into *[APIError] values carrying the HTTP status. Callers
// branch on the status with [IsNotFound] rather than on error types.
//
// # Playlists and albums
//
// [SpotifyService] implements [Service]:
//   - Playlist : one metadata request
//   - PlaylistTracks : a lazy, single-pass [TrackPager] requesting 50 items per page
//   - SeveralAlbums : deduplicated album lookups in batches of 20
//
// Playlist items without a track payload (podcast episodes) are dropped by the pager and counted in
// [TrackPager.Skipped].
package services
