// Package pipeline runs a scan: discover components, then aggregate, diff
// and write each component's change log on a bounded pool of workers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/apitrail/pkg/diff"
	"github.com/odvcencio/apitrail/pkg/discovery"
	"github.com/odvcencio/apitrail/pkg/metrics"
	"github.com/odvcencio/apitrail/pkg/object"
	"github.com/odvcencio/apitrail/pkg/report"
	"github.com/odvcencio/apitrail/pkg/surface"
)

// Options configures Run.
type Options struct {
	Root      string
	Output    string
	Workers   int // must be positive
	Discovery discovery.Options
	Cache     *object.Store // optional
	Metrics   *metrics.Run  // optional
	Logger    *slog.Logger  // optional
}

// Result is the outcome of one component task.
type Result struct {
	Coordinate discovery.Coordinate
	Path       string // report path, empty on failure
	Stats      surface.Stats
	Changes    diff.Summary
	Duration   time.Duration
	// Started is false for components cancelled before any work began.
	Started bool
	Err     error
}

// Summary is the outcome of a run. Results are in coordinate order.
type Summary struct {
	Components int
	Written    int
	Failed     int
	Results    []Result
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d components, %d reports written, %d failed", s.Components, s.Written, s.Failed)
}

// Err joins the errors of every failed component, or returns nil.
func (s *Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

// Run discovers every component under opts.Root and writes one change log
// per component into opts.Output. It returns an error without a summary only
// when discovery or the output directory fails; component failures are
// reported in the summary and never stop other components. A cancelled ctx
// stops components that have not finished, and Run returns ctx's error
// alongside the partial summary.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Workers <= 0 {
		return nil, fmt.Errorf("pipeline: workers must be positive, got %d", opts.Workers)
	}

	comps, err := discovery.Discover(opts.Root, opts.Discovery)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	coords := comps.Coordinates()
	log.Info("discovered archives", "root", opts.Root, "components", len(coords), "archives", comps.Archives())

	if opts.Cache != nil {
		log.Debug("archive cache enabled", "dir", opts.Cache.Root())
	}

	agg := &surface.Aggregator{Logger: log, Cache: opts.Cache, Metrics: opts.Metrics}
	results := make([]Result, len(coords))

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, coord := range coords {
		paths := comps[coord]
		g.Go(func() error {
			results[i] = ProcessComponent(ctx, agg, opts.Output, coord, paths)
			return nil
		})
	}
	_ = g.Wait()

	sum := &Summary{Components: len(coords), Results: results}
	for _, r := range results {
		if r.Started {
			opts.Metrics.ComponentDuration(r.Duration)
		}
		if r.Err != nil {
			sum.Failed++
			opts.Metrics.Component(metrics.ComponentFailed)
			continue
		}
		sum.Written++
		opts.Metrics.Component(metrics.ComponentWritten)
	}
	log.Info("scan finished", "summary", sum.String())
	return sum, ctx.Err()
}

// ProcessComponent aggregates, diffs and writes one component. Everything it
// builds is owned by the call, so concurrent calls share nothing but agg's
// cache and metrics.
func ProcessComponent(ctx context.Context, agg *surface.Aggregator, output string, coord discovery.Coordinate, paths []string) Result {
	start := time.Now()
	res := Result{Coordinate: coord}
	log := agg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With("component", coord.String())

	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("%s: %w", coord, err)
		return res
	}
	res.Started = true

	comp, st, err := agg.Aggregate(ctx, coord, paths)
	res.Stats = st
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", coord, err)
		res.Duration = time.Since(start)
		return res
	}

	diffs := diff.DiffComponent(comp)
	res.Changes = diff.Summarize(diffs)

	path, err := report.WriteFile(output, coord, diffs)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		log.Error("report failed", "error", err)
		return res
	}
	res.Path = path
	log.Info("report written",
		"path", path,
		"releases", comp.Releases.Len(),
		"changes", res.Changes.String(),
		"duration", res.Duration.Round(time.Millisecond))
	return res
}
