// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func showFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   `Playlist editor layout: "new" or "old"`,
			Value:   "new",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Show title (required for the old layout)",
		},
		&cli.StringFlag{
			Name:  "date",
			Usage: "Show date as YYYY-MM-DD (required for the old layout)",
		},
		&cli.BoolFlag{
			Name:  "tui",
			Usage: "Follow progress in a full-screen view (logs go to --log-file)",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Log file used while the progress view is open",
			Value: "./tmp/showlist.log",
		},
	}
}

// convertCommand converts a single playlist
func convertCommand(r *Runner) *cli.Command {
	flags := append([]cli.Flag{configFlag()}, showFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   `Output file path ("-" for stdout, default: slugified playlist name)`,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the conversion result as JSON instead of writing a file",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	)

	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert a Spotify playlist link into a playlist editor CSV",
		ArgsUsage: "<playlist-url>",
		Flags:     flags,
		Action:    r.Convert,
	}
}

// batchCommand converts several playlists into a directory
func batchCommand(r *Runner) *cli.Command {
	flags := append([]cli.Flag{configFlag()}, showFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "file",
			Usage: "Read playlist links from a file, one per line",
		},
		&cli.StringFlag{
			Name:    "out-dir",
			Aliases: []string{"d"},
			Usage:   "Output directory (default: showlist_export_{epoch})",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Concurrent conversions",
			Value: 3,
		},
		&cli.FloatFlag{
			Name:  "rate",
			Usage: "Conversions started per second (0 = unlimited)",
		},
	)

	return &cli.Command{
		Name:      "batch",
		Usage:     "Convert several playlists, writing one CSV each plus a manifest",
		ArgsUsage: "[playlist-url...]",
		Flags:     flags,
		Action:    r.Batch,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the conversion API over HTTP",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override server.host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

// historyCommand inspects the conversion history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect past conversions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent conversions, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of rows",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only show conversions of this playlist id",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: `Only show "succeeded" or "failed" conversions`,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Show a single conversion",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "prune",
				Usage: "Delete conversions older than a duration",
				Flags: []cli.Flag{
					configFlag(),
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age cutoff, e.g. 720h (default: database.retention)",
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// setupCommand initializes the config file and database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
