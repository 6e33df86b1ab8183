package tasks

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/showlist/internal/formatter"
	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/services"
	"github.com/desertthunder/showlist/internal/shared"
)

// ShowDateLayout is the accepted show date input (ISO-8601 calendar date).
const ShowDateLayout = "2006-01-02"

// ConvertRequest is a single playlist conversion as submitted by a caller.
type ConvertRequest struct {
	PlaylistURL string `json:"playlist_url"`
	Format      string `json:"format"`
	ShowTitle   string `json:"show_title,omitempty"`
	ShowDate    string `json:"show_date,omitempty"`
}

// ConvertResult is a complete CSV plus the warnings collected while writing it.
type ConvertResult struct {
	PlaylistID   string
	PlaylistName string // empty when the playlist metadata was not found
	Filename     string
	Layout       formatter.Layout
	TrackCount   int
	Warnings     []string
	Body         []byte
}

type parsedRequest struct {
	playlistID string
	layout     formatter.Layout
	showTitle  string
	showDate   *time.Time
}

// Validate checks the request without making any network calls.
func (r ConvertRequest) Validate() error {
	_, err := r.parse()
	return err
}

func (r ConvertRequest) parse() (parsedRequest, error) {
	var p parsedRequest

	id, err := services.ExtractPlaylistID(strings.TrimSpace(r.PlaylistURL))
	if err != nil {
		return p, err
	}
	p.playlistID = id

	if p.layout, err = formatter.ParseLayout(r.Format); err != nil {
		return p, err
	}

	p.showTitle = strings.TrimSpace(r.ShowTitle)
	if raw := strings.TrimSpace(r.ShowDate); raw != "" {
		date, err := parseShowDate(raw)
		if err != nil {
			return p, err
		}
		p.showDate = &date
	}

	if p.layout == formatter.LayoutOld && (p.showTitle == "" || p.showDate == nil) {
		return p, fmt.Errorf("%w: %w", shared.ErrInvalidInput, shared.ErrMissingShowInfo)
	}
	return p, nil
}

func parseShowDate(raw string) (time.Time, error) {
	if date, err := time.Parse(ShowDateLayout, raw); err == nil {
		return date, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("%w: show date %q is not a YYYY-MM-DD date", shared.ErrInvalidInput, raw)
}

// HistoryRecorder persists an audit row for each conversion attempt.
type HistoryRecorder interface {
	Create(conversion *models.Conversion) error
}

// ConverterOpts configures a [Converter].
type ConverterOpts struct {
	History HistoryRecorder // optional
	Logger  *log.Logger
}

// Converter validates, assembles and formats playlist conversions.
type Converter struct {
	assembler *Assembler
	history   HistoryRecorder
	logger    *log.Logger
}

// NewConverter creates a [Converter] reading from source.
func NewConverter(source services.Service, opts ConverterOpts) *Converter {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Converter{
		assembler: NewAssembler(source, opts.Logger),
		history:   opts.History,
		logger:    opts.Logger,
	}
}

// Convert runs one conversion. The CSV is rendered into memory first, so no partial body is
// returned on failure.
func (c *Converter) Convert(ctx context.Context, req ConvertRequest, progress chan<- ProgressUpdate) (*ConvertResult, error) {
	parsed, err := req.parse()
	if err != nil {
		return nil, err
	}

	result, err := c.convert(ctx, parsed, progress)
	c.record(parsed, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Converter) convert(ctx context.Context, p parsedRequest, progress chan<- ProgressUpdate) (*ConvertResult, error) {
	playlist, err := c.assembler.Assemble(ctx, p.playlistID, p.showTitle, p.showDate, progress)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, writingCSVUpdate(string(p.layout)))
	var buf bytes.Buffer
	warnings, err := formatter.Write(&buf, p.layout, playlist)
	if err != nil {
		return nil, err
	}

	return &ConvertResult{
		PlaylistID:   p.playlistID,
		PlaylistName: playlist.PlaylistName,
		Filename:     formatter.Filename(playlist.PlaylistName),
		Layout:       p.layout,
		TrackCount:   len(playlist.Tracks),
		Warnings:     warnings,
		Body:         buf.Bytes(),
	}, nil
}

// record writes the history row. Failures are logged and never fail the conversion.
func (c *Converter) record(p parsedRequest, result *ConvertResult, convErr error) {
	if c.history == nil {
		return
	}

	conversion := &models.Conversion{
		PlaylistID: p.playlistID,
		Format:     string(p.layout),
		Status:     models.ConversionSucceeded,
	}
	if convErr != nil {
		conversion.Status = models.ConversionFailed
		conversion.Error = convErr.Error()
	} else {
		conversion.PlaylistName = result.PlaylistName
		conversion.TrackCount = result.TrackCount
		conversion.WarningCount = len(result.Warnings)
	}

	if err := c.history.Create(conversion); err != nil {
		c.logger.Error("failed to record conversion", "playlist", p.playlistID, "error", err)
	}
}
