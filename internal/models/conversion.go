package models

import (
	"errors"
	"time"
)

// ConversionStatus is the outcome recorded for a conversion.
type ConversionStatus string

const (
	ConversionSucceeded ConversionStatus = "succeeded"
	ConversionFailed    ConversionStatus = "failed"
)

// Conversion is a history row describing one conversion attempt.
type Conversion struct {
	ID           string
	Sequence     int
	PlaylistID   string
	PlaylistName string
	Format       string
	TrackCount   int
	WarningCount int
	Status       ConversionStatus
	Error        string
	CreatedAt    time.Time
}

// Validate checks the fields the history table requires.
func (c *Conversion) Validate() error {
	if c.PlaylistID == "" {
		return errors.New("playlist id is required")
	}
	if c.Format == "" {
		return errors.New("format is required")
	}
	switch c.Status {
	case ConversionSucceeded, ConversionFailed:
	default:
		return errors.New("unknown conversion status")
	}
	return nil
}
