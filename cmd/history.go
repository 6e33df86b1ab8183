package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/repositories"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/desertthunder/showlist/internal/tasks"
	"github.com/desertthunder/showlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// defaultRetention applies when neither --older-than nor database.retention is set.
const defaultRetention = 30 * 24 * time.Hour

// historyRow is the JSON shape of a conversion history entry.
type historyRow struct {
	ID           string    `json:"id"`
	PlaylistID   string    `json:"playlist_id"`
	PlaylistName string    `json:"playlist_name,omitempty"`
	Format       string    `json:"format"`
	TrackCount   int       `json:"track_count"`
	WarningCount int       `json:"warning_count"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toHistoryRow(c *models.Conversion) historyRow {
	return historyRow{
		ID:           c.ID,
		PlaylistID:   c.PlaylistID,
		PlaylistName: c.PlaylistName,
		Format:       c.Format,
		TrackCount:   c.TrackCount,
		WarningCount: c.WarningCount,
		Status:       string(c.Status),
		Error:        c.Error,
		CreatedAt:    c.CreatedAt,
	}
}

func (r *Runner) openHistory(configPath string) (*repositories.ConversionRepository, func(), error) {
	config, err := r.loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	repo, cleanup, err := r.historyRepository(config)
	if err != nil {
		return nil, nil, err
	}
	if repo == nil {
		return nil, nil, fmt.Errorf("%w: database.path is empty, conversion history is disabled", shared.ErrMissingConfig)
	}
	return repo, cleanup, nil
}

// HistoryList prints recent conversions.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, cleanup, err := r.openHistory(cmd.String("config"))
	if err != nil {
		return err
	}
	defer cleanup()

	conversions, err := repo.List(map[string]any{
		"limit":       int(cmd.Int("limit")),
		"playlist_id": cmd.String("playlist"),
		"status":      cmd.String("status"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]historyRow, len(conversions))
		for i, c := range conversions {
			rows[i] = toHistoryRow(c)
		}
		return r.writeJSON(rows, true)
	}

	if len(conversions) == 0 {
		r.writePlain("No conversions recorded yet.\n")
		return nil
	}

	r.writePlain("%s\n", ui.Styles.Title(fmt.Sprintf("%d conversion(s)", len(conversions))))
	r.writePlain("%s\n", ui.Styles.Rule(60))
	for _, c := range conversions {
		r.writePlain("%s\n", historyLine(c))
	}
	return nil
}

func historyLine(c *models.Conversion) string {
	name := c.PlaylistName
	if name == "" {
		name = c.PlaylistID
	}
	line := fmt.Sprintf("%s  %-3s  %s  (%d tracks, %d warnings)  %s",
		c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Format, name, c.TrackCount, c.WarningCount, c.ID)
	if c.Status == models.ConversionFailed {
		return ui.Styles.Err(line + ": " + c.Error)
	}
	return ui.Styles.OK(line)
}

// HistoryShow prints a single conversion by id.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("%w: conversion id", errMissingArgument)
	}

	repo, cleanup, err := r.openHistory(cmd.String("config"))
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := repo.Get(id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(toHistoryRow(c), true)
	}

	r.writePlain("ID:        %s\n", c.ID)
	r.writePlain("Playlist:  %s %s\n", c.PlaylistID, c.PlaylistName)
	r.writePlain("Format:    %s\n", c.Format)
	r.writePlain("Tracks:    %d\n", c.TrackCount)
	r.writePlain("Warnings:  %d\n", c.WarningCount)
	r.writePlain("Status:    %s\n", c.Status)
	if c.Error != "" {
		r.writePlain("Error:     %s\n", c.Error)
	}
	r.writePlain("Created:   %s\n", c.CreatedAt.Local().Format(time.RFC1123))
	return nil
}

// HistoryPrune deletes conversions older than --older-than, or database.retention when the flag is unset.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	repo, cleanup, err := r.openHistory(cmd.String("config"))
	if err != nil {
		return err
	}
	defer cleanup()

	maxAge := cmd.Duration("older-than")
	if maxAge == 0 {
		if maxAge, err = r.config.Database.RetentionPeriod(); err != nil {
			return err
		}
	}
	if maxAge == 0 {
		maxAge = defaultRetention
	}

	retention, err := tasks.NewRetention(repo, maxAge, r.logger)
	if err != nil {
		return err
	}

	cutoff := retention.Cutoff()
	removed, err := retention.PruneNow()
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("removed %d conversion(s) older than %s", removed, cutoff.Format("2006-01-02"))))
	return nil
}
