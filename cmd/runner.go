package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/showlist/internal/repositories"
	"github.com/desertthunder/showlist/internal/services"
	"github.com/desertthunder/showlist/internal/shared"
	"github.com/desertthunder/showlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The Spotify service and history database are built lazily from the config so commands that
// don't need them (setup, history) work without credentials.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	history    *repositories.ConversionRepository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // skips loading ConfigPath when set
	ConfigPath string
	Service    services.Service                 // skips building the Spotify client when set
	History    *repositories.ConversionRepository // skips opening the database when set
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		history:    opts.History,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		convertCommand, batchCommand, serveCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig returns the injected config, or reads path (falling back to the --config flag value
// captured at construction). A missing file means defaults plus environment overrides.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}
	if path == "" {
		path = r.configPath
	}

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		config := shared.DefaultConfig()
		config.ApplyEnv()
		r.config = config
		return config, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	r.config = config
	return config, nil
}

// spotifyService builds the Spotify client chain: token store → token manager → HTTP client → service.
//
// The returned cleanup closes the Redis connection when one was opened.
func (r *Runner) spotifyService(config *shared.Config) (services.Service, func(), error) {
	if r.service != nil {
		return r.service, func() {}, nil
	}
	if !config.Spotify.HasCredentials() {
		return nil, nil, fmt.Errorf("%w: set spotify.client_id and spotify.client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)",
			shared.ErrMissingCredentials)
	}

	cleanup := func() {}
	var store services.TokenStore
	if config.Redis.URL != "" {
		redisStore, err := services.NewRedisTokenStoreFromURL(config.Redis.URL, config.Redis.Key)
		if err != nil {
			return nil, nil, err
		}
		store = redisStore
		cleanup = func() {
			if err := redisStore.Close(); err != nil {
				r.logger.Warn("failed to close redis client", "error", err)
			}
		}
	}

	tokens, err := services.NewTokenManager(config.Spotify.ClientID, config.Spotify.ClientSecret, services.TokenManagerOpts{
		HTTPClient: r.httpClient,
		Timeout:    config.Spotify.RequestTimeout(),
		Store:      store,
		Logger:     shared.WithLogger(r.logger, "component", "token"),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	client := services.NewClient(tokens, services.ClientOpts{
		HTTPClient: r.httpClient,
		Timeout:    config.Spotify.RequestTimeout(),
		RateLimit:  config.Spotify.RateLimit,
		Logger:     shared.WithLogger(r.logger, "component", "spotify"),
	})
	service := services.NewSpotifyService(client, services.SpotifyServiceOpts{
		AlbumConcurrency: config.Spotify.AlbumConcurrency,
	})
	return service, cleanup, nil
}

// historyRepository opens the conversion history, or returns nil when it is disabled.
func (r *Runner) historyRepository(config *shared.Config) (*repositories.ConversionRepository, func(), error) {
	if r.history != nil {
		return r.history, func() {}, nil
	}
	if config.Database.Path == "" {
		return nil, func() {}, nil
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewConversionRepository(db), func() { db.Close() }, nil
}

// converter wires the Spotify service and optional history into a [tasks.Converter].
func (r *Runner) converter(configPath string) (*tasks.Converter, func(), error) {
	config, err := r.loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	service, closeService, err := r.spotifyService(config)
	if err != nil {
		return nil, nil, err
	}

	opts := tasks.ConverterOpts{Logger: shared.WithLogger(r.logger, "component", "converter")}
	history, closeHistory, err := r.historyRepository(config)
	switch {
	case err != nil:
		r.logger.Warn("conversion history disabled", "error", err)
		closeHistory = func() {}
	case history != nil:
		opts.History = history
	}

	cleanup := func() {
		closeHistory()
		closeService()
	}
	return tasks.NewConverter(service, opts), cleanup, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// errMissingArgument is returned when a required positional argument is absent.
var errMissingArgument = errors.New("missing argument")
