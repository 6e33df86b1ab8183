package main

import (
	"context"

	"github.com/desertthunder/showlist/internal/server"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/desertthunder/showlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the conversion API until the context is canceled (SIGINT/SIGTERM in main).
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	converter, cleanup, err := r.converter(cmd.String("config"))
	if err != nil {
		return err
	}
	defer cleanup()

	conf := r.config.Server
	if host := cmd.String("host"); host != "" {
		conf.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		conf.Port = port
	}

	stopRetention, err := r.startRetention(r.config)
	if err != nil {
		return err
	}
	defer stopRetention()

	srv := server.New(conf, converter, shared.WithLogger(r.logger, "component", "server"))
	return srv.Run(ctx)
}

// startRetention schedules history pruning when history, database.retention and database.prune_schedule are all set.
func (r *Runner) startRetention(config *shared.Config) (func(), error) {
	noop := func() {}
	if config.Database.PruneSchedule == "" {
		return noop, nil
	}
	maxAge, err := config.Database.RetentionPeriod()
	if err != nil || maxAge == 0 {
		return noop, err
	}

	repo, closeHistory, err := r.historyRepository(config)
	if err != nil {
		return noop, err
	}
	if repo == nil {
		closeHistory()
		return noop, nil
	}

	retention, err := tasks.NewRetention(repo, maxAge, shared.WithLogger(r.logger, "component", "retention"))
	if err != nil {
		closeHistory()
		return noop, err
	}
	if err := retention.Start(config.Database.PruneSchedule); err != nil {
		closeHistory()
		return noop, err
	}

	return func() {
		retention.Stop()
		closeHistory()
	}, nil
}
