package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/showlist/internal/shared"
	"golang.org/x/time/rate"
)

// BatchOpts contains configuration for converting several playlists at once.
type BatchOpts struct {
	OutputDir  string  // Output directory (default: showlist_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 3, max: 10)
	RateLimit  float64 // Conversions started per second (0 = unlimited)
}

// BatchItemResult is the outcome of one conversion in a batch.
type BatchItemResult struct {
	PlaylistURL  string   `json:"playlist_url"`
	PlaylistID   string   `json:"playlist_id,omitempty"`
	PlaylistName string   `json:"playlist_name,omitempty"`
	File         string   `json:"file,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Success      bool     `json:"success"`
	Error        string   `json:"error,omitempty"`
}

// BatchResult summarizes a batch run. Results keep the order of the input requests.
type BatchResult struct {
	Total           int               `json:"total"`
	Succeeded       int               `json:"succeeded"`
	Failed          int               `json:"failed"`
	OutputDirectory string            `json:"output_directory"`
	ManifestPath    string            `json:"-"`
	Results         []BatchItemResult `json:"results"`
}

type batchJob struct {
	index int
	req   ConvertRequest
}

type batchOutput struct {
	index  int
	result BatchItemResult
}

// BatchConvert converts every request with a bounded worker pool and writes one CSV per playlist
// into opts.OutputDir, followed by a batch_manifest.json summary.
//
// Individual failures are recorded in the result; only setup and manifest errors are returned.
func (c *Converter) BatchConvert(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	reqs []ConvertRequest,
	opts BatchOpts,
) (*BatchResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("showlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BatchResult{
		Total:           len(reqs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]BatchItemResult, len(reqs)),
	}

	limiter := rate.NewLimiter(limit, 1)
	jobs := make(chan batchJob, len(reqs))
	outputs := make(chan batchOutput, len(reqs))
	files := &fileNames{used: make(map[string]bool)}

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go c.batchWorker(ctx, &wg, jobs, outputs, opts.OutputDir, files)
	}

	go func() {
		defer close(jobs)
		sendProgress(prog, batchStartedUpdate(len(reqs)))
		for i, req := range reqs {
			if err := limiter.Wait(ctx); err != nil {
				for j := i; j < len(reqs); j++ {
					outputs <- batchOutput{index: j, result: BatchItemResult{PlaylistURL: reqs[j].PlaylistURL, Error: err.Error()}}
				}
				return
			}
			jobs <- batchJob{index: i, req: req}
		}
	}()

	go func() {
		wg.Wait()
		close(outputs)
	}()

	completed := 0
	for out := range outputs {
		completed++
		result.Results[out.index] = out.result

		name := out.result.PlaylistName
		if name == "" {
			name = out.result.PlaylistURL
		}
		if out.result.Success {
			result.Succeeded++
			sendProgress(prog, batchCompletedUpdate(completed, len(reqs), name, len(out.result.Warnings)))
		} else {
			result.Failed++
			sendProgress(prog, batchFailedUpdate(completed, len(reqs), name, fmt.Errorf("%s", out.result.Error)))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "batch_manifest.json")
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("batch completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("batch completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func (c *Converter) batchWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan batchJob,
	outputs chan<- batchOutput,
	dir string,
	files *fileNames,
) {
	defer wg.Done()

	for job := range jobs {
		item := BatchItemResult{PlaylistURL: job.req.PlaylistURL}
		if err := ctx.Err(); err != nil {
			item.Error = err.Error()
			outputs <- batchOutput{index: job.index, result: item}
			continue
		}

		res, err := c.Convert(ctx, job.req, nil)
		if err != nil {
			item.Error = err.Error()
			outputs <- batchOutput{index: job.index, result: item}
			continue
		}

		item.PlaylistID = res.PlaylistID
		item.PlaylistName = res.PlaylistName
		item.Warnings = res.Warnings

		path := filepath.Join(dir, files.claim(res.Filename, res.PlaylistID))
		if err := os.WriteFile(path, res.Body, 0644); err != nil {
			item.Error = fmt.Sprintf("failed to write CSV: %v", err)
			outputs <- batchOutput{index: job.index, result: item}
			continue
		}

		item.File = path
		item.Success = true
		outputs <- batchOutput{index: job.index, result: item}
	}
}

// fileNames hands out unique file names within one batch directory.
type fileNames struct {
	mu   sync.Mutex
	used map[string]bool
}

// claim returns name, or name suffixed with the playlist id when another playlist already took it.
// Repeats of the same id get a counter after the id.
func (f *fileNames) claim(name, playlistID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.used[name] {
		base := strings.TrimSuffix(name, ".csv") + "-" + playlistID
		name = base + ".csv"
		for n := 2; f.used[name]; n++ {
			name = fmt.Sprintf("%s-%d.csv", base, n)
		}
	}
	f.used[name] = true
	return name
}
