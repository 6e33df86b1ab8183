package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/showlist/internal/models"
	"github.com/desertthunder/showlist/internal/shared"
)

// ConversionRepository persists [models.Conversion] history rows.
type ConversionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewConversionRepository creates a new ConversionRepository with the given database connection
func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db, now: time.Now}
}

const conversionColumns = `id, sequence, playlist_id, playlist_name, format, track_count, warning_count, status, error, created_at`

// Create inserts a conversion with a generated ID and sequence. CreatedAt defaults to now.
func (r *ConversionRepository) Create(c *models.Conversion) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "conversions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	c.ID = shared.GenerateID()
	c.Sequence = sequence
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	c.CreatedAt = c.CreatedAt.UTC()

	query := `INSERT INTO conversions (` + conversionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.Exec(query,
		c.ID,
		c.Sequence,
		c.PlaylistID,
		c.PlaylistName,
		c.Format,
		c.TrackCount,
		c.WarningCount,
		string(c.Status),
		c.Error,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	return nil
}

// Get retrieves a conversion by ID
func (r *ConversionRepository) Get(id string) (*models.Conversion, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE id = ?`

	c, err := scanConversion(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversion %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	return c, nil
}

// List retrieves conversions newest first.
//
// Supported criteria: "playlist_id" (string), "status" (string or [models.ConversionStatus]) and "limit" (int).
func (r *ConversionRepository) List(criteria map[string]any) ([]*models.Conversion, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE 1 = 1`
	args := []any{}

	if playlistID, ok := criteria["playlist_id"].(string); ok && playlistID != "" {
		query += " AND playlist_id = ?"
		args = append(args, playlistID)
	}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.ConversionStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	conversions := []*models.Conversion{}
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		conversions = append(conversions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return conversions, nil
}

// DeleteBefore removes conversions created before cutoff and returns how many were removed.
func (r *ConversionRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM conversions WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(row scanner) (*models.Conversion, error) {
	var (
		c      models.Conversion
		status string
	)
	err := row.Scan(
		&c.ID,
		&c.Sequence,
		&c.PlaylistID,
		&c.PlaylistName,
		&c.Format,
		&c.TrackCount,
		&c.WarningCount,
		&status,
		&c.Error,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.ConversionStatus(status)
	return &c, nil
}
