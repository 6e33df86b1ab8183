package formatter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/shared"
	th "github.com/desertthunder/showlist/internal/testing"
)

func samplePlaylist() *models.ShowPlaylist {
	return &models.ShowPlaylist{
		PlaylistID:   "pl1",
		PlaylistName: "Friday Night Mix",
		Tracks: []models.ShowTrack{
			{
				Track: models.Track{
					ID: "t1", Name: "Song A", AlbumID: "al1", AlbumName: "Album A",
					Artists: []models.Artist{{ID: "a1", Name: "Artist A"}}, DurationMS: 125000,
				},
				Album: models.Album{ID: "al1", Name: "Album A", Label: "Label A", ReleaseYear: "2020"},
			},
			{
				Track: models.Track{
					ID: "t2", Name: "Song B, Part 2", AlbumID: "al2", AlbumName: "Album B",
					Artists:    []models.Artist{{Name: "First"}, {Name: "Second"}},
					DurationMS: 222033,
				},
				Album: models.Album{ID: "al2", Name: "Album B", Label: "", ReleaseYear: ""},
			},
		},
	}
}

func readRecords(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV output: %v", err)
	}
	return records
}

func TestWriteNew(t *testing.T) {
	t.Run("writes header and one row per track", func(t *testing.T) {
		var buf bytes.Buffer
		warnings, err := WriteNew(&buf, samplePlaylist())
		if err != nil {
			t.Fatalf("WriteNew failed: %v", err)
		}
		if len(warnings) != 0 {
			t.Errorf("expected no warnings, got %v", warnings)
		}

		records := readRecords(t, buf.Bytes())
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "title,duration,performer,album,year,label,composer,notes" {
			t.Errorf("unexpected header: %v", records[0])
		}

		want := []string{"Song A", "2:05", "Artist A", "Album A", "2020", "Label A", "", ""}
		for i, v := range want {
			if records[1][i] != v {
				t.Errorf("row 1 column %d: expected %q, got %q", i, v, records[1][i])
			}
		}

		if records[2][0] != "Song B, Part 2" {
			t.Errorf("expected quoted title to round-trip, got %q", records[2][0])
		}
		if records[2][2] != "First, Second" {
			t.Errorf("expected joined performers, got %q", records[2][2])
		}
		if records[2][1] != "3:42" {
			t.Errorf("expected 3:42, got %q", records[2][1])
		}
	})

	t.Run("empty playlist writes only the header", func(t *testing.T) {
		var buf bytes.Buffer
		warnings, err := WriteNew(&buf, &models.ShowPlaylist{})
		if err != nil {
			t.Fatalf("WriteNew failed: %v", err)
		}
		if warnings == nil || len(warnings) != 0 {
			t.Errorf("expected empty, non-nil warnings, got %#v", warnings)
		}
		if records := readRecords(t, buf.Bytes()); len(records) != 1 {
			t.Errorf("expected only the header, got %d records", len(records))
		}
	})

	t.Run("local tracks produce a warning and blank label/year", func(t *testing.T) {
		playlist := &models.ShowPlaylist{
			Tracks: []models.ShowTrack{{
				Track: models.Track{Name: "Home Demo", AlbumName: "Tapes", IsLocal: true, DurationMS: 60000,
					Artists: []models.Artist{{Name: "Me"}}},
				Album: models.Album{Name: "Tapes"},
			}},
		}

		var buf bytes.Buffer
		warnings, err := WriteNew(&buf, playlist)
		if err != nil {
			t.Fatalf("WriteNew failed: %v", err)
		}
		if len(warnings) != 1 || !strings.Contains(warnings[0], "Home Demo") {
			t.Fatalf("expected one warning naming the track, got %v", warnings)
		}

		row := readRecords(t, buf.Bytes())[1]
		if row[3] != "Tapes" || row[4] != "" || row[5] != "" {
			t.Errorf("unexpected local track row: %v", row)
		}
		if row[1] != "1:00" {
			t.Errorf("expected 1:00, got %q", row[1])
		}
	})

	t.Run("skipped items are reported after track warnings", func(t *testing.T) {
		playlist := &models.ShowPlaylist{
			Tracks: []models.ShowTrack{{
				Track: models.Track{Name: "Local", IsLocal: true},
			}},
			SkippedItems: 2,
		}

		warnings, err := WriteNew(&bytes.Buffer{}, playlist)
		if err != nil {
			t.Fatalf("WriteNew failed: %v", err)
		}
		if len(warnings) != 3 {
			t.Fatalf("expected 3 warnings, got %d", len(warnings))
		}
		if warnings[1] != SkippedItemWarning || warnings[2] != SkippedItemWarning {
			t.Errorf("expected skipped-item warnings last, got %v", warnings)
		}
	})

	t.Run("write error", func(t *testing.T) {
		_, err := WriteNew(&th.FWriter{}, samplePlaylist())
		if err == nil {
			t.Error("expected error for failing writer")
		}
	})
}

func TestWriteOld(t *testing.T) {
	date := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)

	t.Run("writes show row, header, then tracks", func(t *testing.T) {
		playlist := samplePlaylist()
		playlist.ShowTitle = "Morning Show"
		playlist.ShowDate = &date

		var buf bytes.Buffer
		if _, err := WriteOld(&buf, playlist); err != nil {
			t.Fatalf("WriteOld failed: %v", err)
		}

		records := readRecords(t, buf.Bytes())
		if len(records) != 4 {
			t.Fatalf("expected 4 records, got %d", len(records))
		}
		if records[0][0] != "Morning Show" || records[0][1] != "03/09/24" {
			t.Errorf("unexpected show row: %v", records[0])
		}
		if len(records[1]) != len(OldEditorHeaders) || records[1][0] != "title" || records[1][11] != "notes" {
			t.Errorf("unexpected header: %v", records[1])
		}

		want := []string{"Song A", "", "2:05", "Artist A", "", "Album A", "", "2020", "Label A", "", "", ""}
		if len(records[2]) != len(want) {
			t.Fatalf("expected %d columns, got %d", len(want), len(records[2]))
		}
		for i, v := range want {
			if records[2][i] != v {
				t.Errorf("row column %d: expected %q, got %q", i, v, records[2][i])
			}
		}
	})

	t.Run("missing show info writes nothing", func(t *testing.T) {
		cases := map[string]func(p *models.ShowPlaylist){
			"no title": func(p *models.ShowPlaylist) { p.ShowDate = &date },
			"no date":  func(p *models.ShowPlaylist) { p.ShowTitle = "Morning Show" },
			"neither":  func(p *models.ShowPlaylist) {},
		}

		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				playlist := samplePlaylist()
				mutate(playlist)

				var buf bytes.Buffer
				_, err := WriteOld(&buf, playlist)
				if !errors.Is(err, shared.ErrMissingShowInfo) {
					t.Errorf("expected ErrMissingShowInfo, got %v", err)
				}
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %q", buf.String())
				}
			})
		}
	})
}

func TestWrite(t *testing.T) {
	t.Run("dispatches on layout", func(t *testing.T) {
		var buf bytes.Buffer
		if _, err := Write(&buf, LayoutNew, samplePlaylist()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.HasPrefix(buf.String(), "title,duration,") {
			t.Errorf("expected new layout, got %q", buf.String())
		}
	})

	t.Run("unknown layout", func(t *testing.T) {
		_, err := Write(&bytes.Buffer{}, Layout("xml"), samplePlaylist())
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestParseLayout(t *testing.T) {
	for in, want := range map[string]Layout{"new": LayoutNew, "OLD": LayoutOld, " new ": LayoutNew} {
		got, err := ParseLayout(in)
		if err != nil || got != want {
			t.Errorf("ParseLayout(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseLayout("csv"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{999, "0:00"},
		{10000, "0:10"},
		{60000, "1:00"},
		{125000, "2:05"},
		{222033, "3:42"},
		{3600000, "60:00"},
		{-5, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Friday Night Mix":    "friday-night-mix.csv",
		"  Lo-Fi // Beats!! ": "lo-fi-beats.csv",
		"Café del Mar 2024":   "cafe-del-mar-2024.csv",
		"Rock & Roll Hour":    "rock-and-roll-hour.csv",
		"Motörhead/Sleep":     "motorhead-sleep.csv",
		"":                    "playlist.csv",
		"!!!":                 "playlist.csv",
	}

	for in, want := range tests {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}
