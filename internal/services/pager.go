package services

import (
	"context"
	"errors"
	"iter"

	"github.com/desertthunder/showlist/internal/models"
)

// PlaylistPageSize is the number of playlist items requested per page.
const PlaylistPageSize = 50

// ErrPagerConsumed is yielded when a [TrackPager] is ranged over a second time.
var ErrPagerConsumed = errors.New("track pager already consumed")

// PageFunc fetches one page of playlist items starting at offset.
//
// A nil entry stands for an item without a track payload. An empty page ends pagination.
type PageFunc func(ctx context.Context, offset, limit int) ([]*models.Track, error)

// TrackPager lazily walks a playlist's items one page at a time.
//
// It is single-pass: each page is requested only when the consumer reaches it, and
// ranging over [TrackPager.All] twice yields [ErrPagerConsumed].
type TrackPager struct {
	ctx   context.Context
	fetch PageFunc
	limit int

	used    bool
	pages   int
	skipped int
}

// NewTrackPager creates a pager that calls fetch with the given page size.
func NewTrackPager(ctx context.Context, limit int, fetch PageFunc) *TrackPager {
	if limit <= 0 {
		limit = PlaylistPageSize
	}
	return &TrackPager{ctx: ctx, fetch: fetch, limit: limit}
}

// All yields tracks in playlist order. The first error ends the sequence.
func (p *TrackPager) All() iter.Seq2[models.Track, error] {
	return func(yield func(models.Track, error) bool) {
		if p.used {
			yield(models.Track{}, ErrPagerConsumed)
			return
		}
		p.used = true

		offset := 0
		for {
			page, err := p.fetch(p.ctx, offset, p.limit)
			if err != nil {
				yield(models.Track{}, err)
				return
			}
			if len(page) == 0 {
				return
			}
			p.pages++
			offset += len(page)

			for _, track := range page {
				if track == nil {
					p.skipped++
					continue
				}
				if !yield(*track, nil) {
					return
				}
			}
		}
	}
}

// Collect drains the pager into a slice.
func (p *TrackPager) Collect() ([]models.Track, error) {
	var tracks []models.Track
	for track, err := range p.All() {
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Pages returns the number of non-empty pages fetched so far.
func (p *TrackPager) Pages() int { return p.pages }

// Skipped returns the number of items without a track payload seen so far.
func (p *TrackPager) Skipped() int { return p.skipped }
