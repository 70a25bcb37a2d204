// Package batch measures many transport stream files concurrently.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsiec/tsprobe/internal/mpegts"
)

// Discover returns the absolute paths of the regular *.ts files directly
// inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".ts") {
			continue
		}
		files = append(files, filepath.Join(abs, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Result is the outcome for one file.
type Result struct {
	Path      string
	Duration  mpegts.DurationResult
	Truncated bool
	Err       error
}

// Runner measures files with bounded concurrency.
type Runner struct {
	// Jobs caps concurrent files; zero means GOMAXPROCS.
	Jobs    int
	Logger  *slog.Logger
	Metrics *Metrics // optional
}

// Durations runs q against every path and returns one Result per path in
// input order. Per-file failures are reported in Result.Err; the returned
// error is non-nil only when ctx ends first.
func (r *Runner) Durations(ctx context.Context, paths []string, q mpegts.Query) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = measure(ctx, path, q, logger)
			if err := results[i].Err; err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			r.Metrics.observe(results[i], time.Since(start))
			logger.Debug("measured file", "path", path, "error", results[i].Err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func measure(ctx context.Context, path string, q mpegts.Query, logger *slog.Logger) Result {
	res := Result{Path: path}
	s, err := mpegts.Open(path, mpegts.StreamOptLogger(logger))
	if err != nil {
		res.Err = err
		return res
	}
	defer s.Close()
	res.Truncated = s.Truncated()
	res.Duration, res.Err = mpegts.Duration(ctx, s, q)
	return res
}
