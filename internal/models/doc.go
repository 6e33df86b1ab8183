// Package models defines the value types that flow through a playlist conversion.
//
// The package contains two categories of types:
//
// 1. Catalog values: built fresh from Spotify responses for every conversion
//   - [Credential] : access token plus absolute expiry
//   - [Playlist] : playlist metadata
//   - [Track] : song entry with its artists and owning album id
//   - [Album] : album name, record label and release year
//   - [ShowPlaylist] : tracks paired with albums, ready for the CSV writers
//
// 2. Records: rows written to the optional conversion history
//   - [Conversion] : outcome of one conversion (never the CSV itself)
//
// No catalog value outlives the conversion that created it.
package models
