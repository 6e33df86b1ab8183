package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/showlist/internal/repositories"
	"github.com/desertthunder/showlist/internal/services"
	"github.com/desertthunder/showlist/internal/shared"
	tu "github.com/desertthunder/showlist/internal/testing"
	"github.com/urfave/cli/v3"
)

const testPlaylistURL = "https://open.spotify.com/playlist/pl1"

type testEnv struct {
	runner  *Runner
	output  *bytes.Buffer
	fake    *tu.FakeSpotify
	history *repositories.ConversionRepository
	config  *shared.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := tu.NewFakeSpotify(t)
	fake.AddPlaylist("pl1", tu.FakePlaylist{
		Name: "Friday Night Mix",
		Items: []map[string]any{
			tu.Track("t1", "Song A", "al1", "Album A", 125000, "Artist A"),
			tu.LocalTrack("Home Demo", "Tapes", 61000, "Me"),
		},
	})
	fake.AddAlbum("al1", tu.FakeAlbum{Name: "Album A", Label: "Label A", ReleaseDate: "2020-01-01"})

	tokens, err := services.NewTokenManager("id", "secret", services.TokenManagerOpts{TokenURL: fake.TokenURL()})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	service := services.NewSpotifyService(services.NewClient(tokens, services.ClientOpts{BaseURL: fake.APIURL()}), services.SpotifyServiceOpts{})

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	history := repositories.NewConversionRepository(db)

	config := shared.DefaultConfig()
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Service: service,
		History: history,
		Logger:  shared.DiscardLogger(),
		Output:  output,
	})

	return &testEnv{runner: runner, output: output, fake: fake, history: history, config: config}
}

func (e *testEnv) run(args ...string) error {
	app := &cli.Command{Name: "showlist", Commands: e.runner.register()}
	return app.Run(context.Background(), append([]string{"showlist"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil logger, output and httpClient uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("registers every command", func(t *testing.T) {
			names := []string{}
			for _, c := range NewRunner(RunnerOpts{}).register() {
				names = append(names, c.Name)
			}
			if strings.Join(names, ",") != "convert,batch,serve,history,setup" {
				t.Errorf("unexpected commands: %v", names)
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("missing file uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			config, err := runner.loadConfig(filepath.Join(t.TempDir(), "nope.toml"))
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			if config.Server.Port != 3000 {
				t.Errorf("expected default port, got %d", config.Server.Port)
			}
		})

		t.Run("invalid file is an error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[spotify\n"), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).loadConfig(path)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("falls back to configPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[server]\nport = 8080\n"), 0644); err != nil {
				t.Fatal(err)
			}

			config, err := NewRunner(RunnerOpts{ConfigPath: path, Logger: shared.DiscardLogger()}).loadConfig("")
			if err != nil {
				t.Fatalf("loadConfig failed: %v", err)
			}
			if config.Server.Port != 8080 {
				t.Errorf("expected port from file, got %d", config.Server.Port)
			}
		})
	})

	t.Run("spotifyService", func(t *testing.T) {
		t.Run("requires credentials", func(t *testing.T) {
			t.Setenv("SPOTIFY_CLIENT_ID", "")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "")

			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()})
			_, _, err := runner.spotifyService(shared.DefaultConfig())
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("builds with a redis token store", func(t *testing.T) {
			mr := miniredis.RunT(t)
			config := shared.DefaultConfig()
			config.Spotify.ClientID = "id"
			config.Spotify.ClientSecret = "secret"
			config.Redis.URL = "redis://" + mr.Addr() + "/0"

			service, cleanup, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).spotifyService(config)
			if err != nil {
				t.Fatalf("spotifyService failed: %v", err)
			}
			defer cleanup()
			if service.Name() != "Spotify" {
				t.Errorf("unexpected service %q", service.Name())
			}
		})

		t.Run("bad redis url", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Spotify.ClientID = "id"
			config.Spotify.ClientSecret = "secret"
			config.Redis.URL = "http://not-redis"

			if _, _, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).spotifyService(config); err == nil {
				t.Error("expected error for invalid redis url")
			}
		})
	})

	t.Run("historyRepository disabled without a path", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = ""

		repo, cleanup, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).historyRepository(config)
		if err != nil || repo != nil {
			t.Errorf("expected disabled history, got %v, %v", repo, err)
		}
		cleanup()
	})
}

func TestConvertCommand(t *testing.T) {
	t.Run("writes the CSV file and reports warnings", func(t *testing.T) {
		env := newTestEnv(t)
		out := filepath.Join(t.TempDir(), "out.csv")

		if err := env.run("convert", "-o", out, testPlaylistURL); err != nil {
			t.Fatalf("convert failed: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("expected output file: %v", err)
		}
		if !strings.Contains(string(data), "Song A,2:05,Artist A,Album A,2020,Label A,,") {
			t.Errorf("unexpected CSV:\n%s", data)
		}

		printed := env.output.String()
		for _, want := range []string{"Friday Night Mix", "2 tracks", "1 warning(s)", "Home Demo"} {
			if !strings.Contains(printed, want) {
				t.Errorf("expected %q in output:\n%s", want, printed)
			}
		}

		rows, err := env.history.List(nil)
		if err != nil || len(rows) != 1 {
			t.Fatalf("expected one history row, got %d (%v)", len(rows), err)
		}
		if rows[0].WarningCount != 1 || rows[0].TrackCount != 2 {
			t.Errorf("unexpected history row: %+v", rows[0])
		}
	})

	t.Run("stdout output is only the CSV", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("convert", "--output", "-", testPlaylistURL); err != nil {
			t.Fatalf("convert failed: %v", err)
		}
		if !strings.HasPrefix(env.output.String(), "title,duration,performer,") {
			t.Errorf("expected raw CSV, got:\n%s", env.output.String())
		}
	})

	t.Run("json output", func(t *testing.T) {
		env := newTestEnv(t)

		if err := env.run("convert", "--json", "--format", "old", "--title", "Morning Show", "--date", "2024-03-09", testPlaylistURL); err != nil {
			t.Fatalf("convert failed: %v", err)
		}

		var out convertOutput
		if err := json.Unmarshal(env.output.Bytes(), &out); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, env.output.String())
		}
		if out.PlaylistName == nil || *out.PlaylistName != "Friday Night Mix" {
			t.Errorf("unexpected playlist name %v", out.PlaylistName)
		}
		if out.Filename != "friday-night-mix.csv" || len(out.Warnings) != 1 {
			t.Errorf("unexpected output: %+v", out)
		}
		if !strings.HasPrefix(out.Body, "Morning Show,03/09/24\n") {
			t.Errorf("expected old layout body, got:\n%s", out.Body)
		}
	})

	t.Run("old layout without date fails before any request", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.run("convert", "--format", "old", "--title", "Show", testPlaylistURL)
		if !errors.Is(err, shared.ErrMissingShowInfo) {
			t.Errorf("expected ErrMissingShowInfo, got %v", err)
		}
		if tokens, pages, _ := env.fake.Counts(); tokens != 0 || pages != 0 {
			t.Errorf("expected no upstream requests, got %d/%d", tokens, pages)
		}
	})

	t.Run("missing URL", func(t *testing.T) {
		env := newTestEnv(t)
		if err := env.run("convert"); !errors.Is(err, errMissingArgument) {
			t.Errorf("expected errMissingArgument, got %v", err)
		}
	})

	t.Run("private playlist", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.run("convert", "-o", filepath.Join(t.TempDir(), "x.csv"), "https://open.spotify.com/playlist/hidden")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestBatchCommand(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	links := filepath.Join(dir, "links.txt")
	content := "# weekly shows\n" + testPlaylistURL + "\n\nhttps://open.spotify.com/playlist/hidden\n"
	if err := os.WriteFile(links, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := filepath.Join(dir, "out")
	err := env.run("batch", "--file", links, "--out-dir", outDir, "--workers", "1")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 conversions failed") {
		t.Errorf("expected partial failure, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "friday-night-mix.csv")); err != nil {
		t.Errorf("expected converted file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "batch_manifest.json")); err != nil {
		t.Errorf("expected manifest: %v", err)
	}
	if !strings.Contains(env.output.String(), "Converted: 1/2") {
		t.Errorf("expected summary, got:\n%s", env.output.String())
	}

	t.Run("no links", func(t *testing.T) {
		if err := newTestEnv(t).run("batch"); !errors.Is(err, errMissingArgument) {
			t.Errorf("expected errMissingArgument, got %v", err)
		}
	})

	t.Run("missing link file", func(t *testing.T) {
		if err := newTestEnv(t).run("batch", "--file", filepath.Join(dir, "nope.txt")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestHistoryCommands(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("convert", "-o", filepath.Join(t.TempDir(), "a.csv"), testPlaylistURL); err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "list"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Friday Night Mix") {
			t.Errorf("expected playlist in history:\n%s", env.output.String())
		}
	})

	var id string
	t.Run("list json", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "list", "--json", "--status", "succeeded"); err != nil {
			t.Fatalf("history list failed: %v", err)
		}

		var rows []historyRow
		if err := json.Unmarshal(env.output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(rows) != 1 || rows[0].PlaylistID != "pl1" {
			t.Fatalf("unexpected rows: %+v", rows)
		}
		id = rows[0].ID
	})

	t.Run("show", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "show", id); err != nil {
			t.Fatalf("history show failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "Status:    succeeded") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("show unknown id", func(t *testing.T) {
		if err := env.run("history", "show", "nope"); !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("prune keeps recent rows", func(t *testing.T) {
		env.output.Reset()
		if err := env.run("history", "prune", "--older-than", "1h"); err != nil {
			t.Fatalf("history prune failed: %v", err)
		}
		if !strings.Contains(env.output.String(), "removed 0 conversion(s)") {
			t.Errorf("unexpected output:\n%s", env.output.String())
		}
	})

	t.Run("disabled history", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = ""
		env := &testEnv{runner: NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})}

		err := env.run("history", "list")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})
		env := &testEnv{runner: runner, output: output}

		if err := env.run("setup", "config", "-c", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected config file: %v", err)
		}
		if !strings.Contains(output.String(), "Next steps:") {
			t.Errorf("expected next steps, got:\n%s", output.String())
		}

		if err := env.run("setup", "config", "-c", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		dir := t.TempDir()
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "history.db")

		env := &testEnv{runner: NewRunner(RunnerOpts{Config: config, Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})}

		if err := env.run("setup", "database", "-c", filepath.Join(dir, "config.toml")); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		if _, err := os.Stat(config.Database.Path); err != nil {
			t.Errorf("expected database file: %v", err)
		}
	})
}

func TestRedirectLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmp", "showlist.log")
	runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})

	app := &cli.Command{
		Name:  "showlist",
		Flags: showFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runner.redirectLogs(cmd)
		},
	}

	if err := app.Run(context.Background(), []string{"showlist", "--tui", "--log-file", path}); err != nil {
		t.Fatalf("redirectLogs failed: %v", err)
	}
	runner.logger.Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("unexpected log file contents %q", data)
	}
}

func TestStartRetention(t *testing.T) {
	t.Run("disabled without a schedule", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.PruneSchedule = ""

		stop, err := NewRunner(RunnerOpts{Logger: shared.DiscardLogger()}).startRetention(config)
		if err != nil {
			t.Fatalf("startRetention failed: %v", err)
		}
		stop()
	})

	t.Run("schedules pruning of the history", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.PruneSchedule = "@every 1h"
		env.config.Database.Retention = "24h"

		stop, err := env.runner.startRetention(env.config)
		if err != nil {
			t.Fatalf("startRetention failed: %v", err)
		}
		stop()
	})

	t.Run("bad schedule", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.PruneSchedule = "whenever"

		if _, err := env.runner.startRetention(env.config); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("bad retention", func(t *testing.T) {
		env := newTestEnv(t)
		env.config.Database.Retention = "forever"

		if _, err := env.runner.startRetention(env.config); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestRunnerOutput(t *testing.T) {
	t.Run("writeJSON", func(t *testing.T) {
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: out})

		if err := runner.writeJSON(map[string]string{"a": "b"}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if out.String() != "{\"a\":\"b\"}\n" {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("writeJSON body failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &tu.FWriter{}})

		if err := runner.writeJSON("x", false); err == nil || !strings.Contains(err.Error(), "failed to write output") {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("writeJSON newline failure", func(t *testing.T) {
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: tu.NewLimitedWriter(1, out)})

		if err := runner.writeJSON("x", false); err == nil || !strings.Contains(err.Error(), "failed to write newline") {
			t.Errorf("expected newline error, got %v", err)
		}
		if out.String() != `"x"` {
			t.Errorf("expected body before failure, got %q", out.String())
		}
	})

	t.Run("writeJSON unsupported value", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})

		if err := runner.writeJSON(make(chan int), false); err == nil {
			t.Error("expected marshal error")
		}
	})

	t.Run("writePlain and writePlainln", func(t *testing.T) {
		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: out})

		runner.writePlain("a=%d", 1)
		runner.writePlainln("b")
		if out.String() != "a=1\nb\n" {
			t.Errorf("unexpected output %q", out.String())
		}

		failing := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected writePlain error")
		}
		if err := failing.writePlainln("x"); err == nil {
			t.Error("expected writePlainln error")
		}
	})
}

func TestReadLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.txt")
	if err := os.WriteFile(path, []byte("  a  \n\n# skip\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	links, err := readLinks(path)
	if err != nil {
		t.Fatalf("readLinks failed: %v", err)
	}
	if strings.Join(links, ",") != "a,b" {
		t.Errorf("unexpected links %v", links)
	}
}
