package batch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/deflect-sim/deflect"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"
)

// cancelCheck is the number of points computed between two context checks.
const cancelCheck = 512

// Job is a body to propagate.
type Job struct {
	ID       string
	Name     string
	Elements deflect.Elements
}

// Result is the propagation of a single body.
type Result struct {
	ID       string
	Name     string
	Points   []deflect.TrajectoryPoint
	Closest  deflect.TrajectoryPoint
	Duration time.Duration
	Err      error
}

// Key identifies the body of the result: its name followed by its ID when it has one.
// Two bodies may share a name but never an ID.
func (r Result) Key() string {
	if r.ID == "" {
		return r.Name
	}
	return r.Name + " " + r.ID
}

// Runner propagates independent bodies over the same window in parallel.
type Runner struct {
	// Workers bounds the number of concurrent propagations, GOMAXPROCS when not positive.
	Workers int
	Logger  kitlog.Logger
	// Metrics is optional.
	Metrics *Metrics
	// Each is called from the worker with every successful result. An error marks the result failed.
	Each func(Result) error
}

// Run propagates every job between start and end. Results are in the order of the jobs and
// the failure of one body is recorded on its result only. The returned error is either an
// invalid time range or the context error; on cancellation the bodies never started carry
// the context error.
func (r *Runner) Run(ctx context.Context, jobs []Job, start, end time.Time, step time.Duration) ([]Result, error) {
	if _, err := deflect.NewTrajectory(deflect.Earth, start, end, step); err != nil {
		return nil, err
	}
	logger := r.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "subsys", "batch")
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(jobs))
	started := make([]bool, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	level.Info(logger).Log("bodies", len(jobs), "workers", workers, "start", start.UTC(), "end", end.UTC(), "step", step)
	for k, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		started[k] = true
		g.Go(func() error {
			results[k] = r.propagate(gctx, logger, job, start, end, step)
			return nil
		})
	}
	g.Wait()

	var failures int
	for k := range results {
		if !started[k] {
			results[k] = Result{ID: jobs[k].ID, Name: jobs[k].Name, Err: ctx.Err()}
		}
		if results[k].Err != nil {
			failures++
		}
	}
	level.Info(logger).Log("bodies", len(jobs), "failures", failures)
	return results, ctx.Err()
}

func (r *Runner) propagate(ctx context.Context, logger kitlog.Logger, job Job, start, end time.Time, step time.Duration) (res Result) {
	res.ID, res.Name = job.ID, job.Name
	began := time.Now()
	defer func() {
		res.Duration = time.Since(began)
		if r.Metrics != nil {
			r.Metrics.Bodies.Inc()
			r.Metrics.Duration.Observe(res.Duration.Seconds())
			r.Metrics.Points.Add(float64(len(res.Points)))
			if res.Err != nil {
				r.Metrics.Failures.Inc()
			} else {
				r.Metrics.Closest.WithLabelValues(res.Key()).Set(res.Closest.EarthDistance)
			}
		}
		if res.Err != nil {
			level.Warn(logger).Log("body", job.Name, "err", res.Err)
		}
	}()

	if err := job.Elements.CheckConvergence(); err != nil {
		level.Warn(logger).Log("body", job.Name, "warning", err)
	}
	traj, err := deflect.NewTrajectory(job.Elements, start, end, step)
	if err != nil {
		res.Err = err
		return
	}
	points := make([]deflect.TrajectoryPoint, traj.Len())
	for k := range points {
		if k%cancelCheck == 0 && ctx.Err() != nil {
			res.Err = fmt.Errorf("%s: %w", job.Name, ctx.Err())
			return
		}
		points[k] = traj.At(k)
	}
	res.Points = points
	if res.Closest, err = deflect.ClosestApproach(points); err != nil {
		res.Err = err
		return
	}
	level.Debug(logger).Log("body", job.Name, "points", len(points), "closest_km", res.Closest.EarthDistance, "closest_at", res.Closest.Time)
	if r.Each != nil {
		if err := r.Each(res); err != nil {
			res.Err = fmt.Errorf("%s: %w", job.Name, err)
		}
	}
	return
}
