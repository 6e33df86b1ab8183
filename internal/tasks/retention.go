package tasks

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/robfig/cron/v3"
)

// HistoryPruner deletes conversion history recorded before a cutoff.
type HistoryPruner interface {
	DeleteBefore(cutoff time.Time) (int64, error)
}

// Retention removes conversion history older than a maximum age, on demand or on a cron schedule.
type Retention struct {
	store  HistoryPruner
	maxAge time.Duration
	cron   *cron.Cron
	logger *log.Logger
	now    func() time.Time
}

// NewRetention creates a [Retention] that keeps maxAge worth of history.
func NewRetention(store HistoryPruner, maxAge time.Duration, logger *log.Logger) (*Retention, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: conversion history is disabled", shared.ErrServiceUnavailable)
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("%w: retention must be positive, got %s", shared.ErrInvalidInput, maxAge)
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &Retention{
		store:  store,
		maxAge: maxAge,
		cron:   cron.New(cron.WithLocation(time.Local), cron.WithLogger(cronLogger{logger})),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Cutoff is the oldest creation time that survives a prune.
func (r *Retention) Cutoff() time.Time {
	return r.now().Add(-r.maxAge)
}

// PruneNow deletes everything older than [Retention.Cutoff] and returns the number of rows removed.
func (r *Retention) PruneNow() (int64, error) {
	cutoff := r.Cutoff()
	removed, err := r.store.DeleteBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune conversion history: %w", err)
	}

	r.logger.Info("pruned conversion history", "removed", removed, "cutoff", cutoff.Format(time.RFC3339))
	return removed, nil
}

// Start schedules [Retention.PruneNow] with a standard five-field cron spec or a descriptor like "@daily".
func (r *Retention) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, func() {
		if _, err := r.PruneNow(); err != nil {
			r.logger.Error("scheduled prune failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("%w: bad prune schedule %q: %v", shared.ErrInvalidConfig, schedule, err)
	}

	r.cron.Start()
	r.logger.Info("history retention scheduled", "schedule", schedule, "max_age", r.maxAge)
	return nil
}

// Stop halts the scheduler and waits for a running prune to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

// cronLogger adapts a [log.Logger] to [cron.Logger].
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug(msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error(msg, append(kv, "error", err)...)
}
