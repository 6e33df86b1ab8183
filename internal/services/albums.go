package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/showlist/internal/models"
	"golang.org/x/sync/errgroup"
)

// MaxAlbumBatch is the most ids the several-albums endpoint accepts per request.
const MaxAlbumBatch = 20

// SeveralAlbums resolves albumIDs in batches of at most [MaxAlbumBatch].
//
// Duplicate and empty ids are dropped first, so the number of requests is ceil(distinct/20).
// Any failed batch fails the whole call.
func (s *SpotifyService) SeveralAlbums(ctx context.Context, albumIDs []string) (map[string]models.Album, error) {
	batches := chunk(dedupe(albumIDs), MaxAlbumBatch)
	results := make([][]models.Album, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.albumConcurrency)

	for i, batch := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			albums, err := s.albumBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("album batch %d/%d: %w", i+1, len(batches), err)
			}
			results[i] = albums
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	albums := make(map[string]models.Album)
	for _, batch := range results {
		for _, album := range batch {
			albums[album.ID] = album
		}
	}
	return albums, nil
}

func (s *SpotifyService) albumBatch(ctx context.Context, ids []string) ([]models.Album, error) {
	var resp SpotifySeveralAlbums
	if err := s.client.Get(ctx, "/albums", url.Values{"ids": {strings.Join(ids, ",")}}, &resp); err != nil {
		return nil, err
	}

	albums := make([]models.Album, 0, len(resp.Albums))
	for _, sa := range resp.Albums {
		if sa == nil || sa.ID == "" {
			continue
		}
		albums = append(albums, toAlbum(*sa))
	}
	return albums, nil
}

// dedupe keeps the first occurrence of every non-empty id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}
