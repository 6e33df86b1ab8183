package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/desertthunder/showlist/internal/tasks"
	"github.com/desertthunder/showlist/internal/ui"
	"github.com/urfave/cli/v3"
)

// convertOutput is the --json shape of a conversion, matching the HTTP API.
type convertOutput struct {
	PlaylistName *string  `json:"playlistName"`
	Warnings     []string `json:"warnings"`
	Body         string   `json:"body"`
	Filename     string   `json:"filename"`
}

func requestFromFlags(cmd *cli.Command, playlistURL string) tasks.ConvertRequest {
	return tasks.ConvertRequest{
		PlaylistURL: playlistURL,
		Format:      cmd.String("format"),
		ShowTitle:   cmd.String("title"),
		ShowDate:    cmd.String("date"),
	}
}

// progressPrinter prints updates until the returned stop func is called.
func (r *Runner) progressPrinter() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchPlaylist, tasks.BatchConvert:
				r.writePlain("%s\n", update.Message)
			default:
				r.writePlain("   %s\n", ui.Styles.Help(update.Message))
			}
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// watch runs fn with a progress channel, printed line by line or shown in the progress view with --tui.
//
// Quitting the view cancels the context handed to fn; watch returns once fn has.
func (r *Runner) watch(ctx context.Context, cmd *cli.Command, title string, fn func(context.Context, chan<- tasks.ProgressUpdate)) error {
	if !cmd.Bool("tui") {
		progressCh, stop := r.progressPrinter()
		fn(ctx, progressCh)
		stop()
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx, progressCh)
		close(progressCh)
	}()

	model := ui.NewProgressModel(title, progressCh, cancel)
	if _, err := tea.NewProgram(model, tea.WithOutput(r.output)).Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("error running TUI: %w", err)
	}
	<-done
	return nil
}

// redirectLogs sends logs to --log-file while the progress view owns the terminal.
func (r *Runner) redirectLogs(cmd *cli.Command) error {
	if !cmd.Bool("tui") {
		return nil
	}

	logger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return err
	}
	r.logger = logger
	return nil
}

// Convert converts one playlist link into a CSV file, stdout, or a JSON result.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.Args().First()
	if playlistURL == "" {
		return fmt.Errorf("%w: playlist URL", errMissingArgument)
	}

	req := requestFromFlags(cmd, playlistURL)
	if err := req.Validate(); err != nil {
		return err
	}

	outputPath := cmd.String("output")
	quiet := cmd.Bool("json") || outputPath == "-"
	if !quiet {
		if err := r.redirectLogs(cmd); err != nil {
			return err
		}
	}

	converter, cleanup, err := r.converter(cmd.String("config"))
	if err != nil {
		return err
	}
	defer cleanup()

	r.logger.Info("converting playlist", "url", playlistURL, "format", req.Format)

	var result *tasks.ConvertResult
	if quiet {
		result, err = converter.Convert(ctx, req, nil)
	} else {
		werr := r.watch(ctx, cmd, "Converting playlist", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) {
			result, err = converter.Convert(ctx, req, progress)
		})
		if werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := convertOutput{Warnings: result.Warnings, Body: string(result.Body), Filename: result.Filename}
		if result.PlaylistName != "" {
			out.PlaylistName = &result.PlaylistName
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if outputPath == "-" {
		_, err := r.output.Write(result.Body)
		return err
	}

	if outputPath == "" {
		outputPath = result.Filename
	}
	if err := os.WriteFile(outputPath, result.Body, 0644); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	name := result.PlaylistName
	if name == "" {
		name = "(untitled playlist)"
	}
	r.writePlainln("%s", ui.Styles.OK(fmt.Sprintf("%s → %s (%d tracks)", name, outputPath, result.TrackCount)))
	if warnings := ui.Styles.Warnings(result.Warnings); warnings != "" {
		r.writePlain("%s", warnings)
	}
	return nil
}

// Batch converts every link given as an argument or listed in --file.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	links := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		fromFile, err := readLinks(path)
		if err != nil {
			return err
		}
		links = append(links, fromFile...)
	}
	if len(links) == 0 {
		return fmt.Errorf("%w: at least one playlist URL (or --file)", errMissingArgument)
	}

	reqs := make([]tasks.ConvertRequest, len(links))
	for i, link := range links {
		reqs[i] = requestFromFlags(cmd, link)
	}

	if err := r.redirectLogs(cmd); err != nil {
		return err
	}

	converter, cleanup, err := r.converter(cmd.String("config"))
	if err != nil {
		return err
	}
	defer cleanup()

	opts := tasks.BatchOpts{
		OutputDir:  cmd.String("out-dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}

	var result *tasks.BatchResult
	werr := r.watch(ctx, cmd, fmt.Sprintf("Converting %d playlists", len(reqs)), func(ctx context.Context, progress chan<- tasks.ProgressUpdate) {
		result, err = converter.BatchConvert(ctx, progress, reqs, opts)
	})
	if werr != nil {
		return werr
	}
	if err != nil {
		return err
	}

	r.writePlainln("%s", ui.Styles.Title("Batch complete"))
	r.writePlain("%s\n", ui.Styles.Rule(40))
	r.writePlain("Converted: %d/%d\n", result.Succeeded, result.Total)
	r.writePlain("Output:    %s\n", result.OutputDirectory)
	r.writePlain("Manifest:  %s\n", result.ManifestPath)

	for _, item := range result.Results {
		if !item.Success {
			r.writePlain("%s\n", ui.Styles.Err(fmt.Sprintf("%s: %s", item.PlaylistURL, item.Error)))
		}
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", result.Failed, result.Total)
	}
	return nil
}

// readLinks reads one link per line, skipping blanks and # comments.
func readLinks(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open link file: %w", err)
	}
	defer f.Close()

	var links []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read link file: %w", err)
	}
	return links, nil
}
