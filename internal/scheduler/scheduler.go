// Package scheduler triggers registered repositories on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/hookyard/internal/config"
	"github.com/zulandar/hookyard/internal/dispatch"
	"github.com/zulandar/hookyard/internal/messaging"
	"github.com/zulandar/hookyard/internal/settings"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Opts holds the dependencies of a Scheduler.
type Opts struct {
	Store      settings.Store
	Dispatcher *dispatch.Dispatcher
	Schedules  []config.ScheduleConfig
	Sink       messaging.Sink // receives one message per fire
	Out        io.Writer
}

// Scheduler fires dispatches for configured repositories.
type Scheduler struct {
	opts Opts
	cron *cron.Cron
}

// New validates opts and registers one cron job per schedule.
func New(opts Opts) (*Scheduler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("scheduler: store is required")
	}
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("scheduler: dispatcher is required")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	s := &Scheduler{opts: opts, cron: cron.New(cron.WithParser(cronParser))}
	for _, sc := range opts.Schedules {
		target := sc.Repository
		if _, err := s.cron.AddFunc(sc.Cron, func() { s.Fire(context.Background(), target) }); err != nil {
			return nil, fmt.Errorf("scheduler: schedule %s %q: %w", target, sc.Cron, err)
		}
	}
	return s, nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits
// for running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	fmt.Fprintf(s.opts.Out, "Scheduler starting with %d schedule(s)\n", s.Len())
	for _, sc := range s.opts.Schedules {
		if next, err := NextRun(sc.Cron, time.Now()); err == nil {
			fmt.Fprintf(s.opts.Out, "  %s: %q (next %s)\n", sc.Repository, sc.Cron, next.Format(time.RFC3339))
		}
	}
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	fmt.Fprintln(s.opts.Out, "Scheduler stopped.")
	return nil
}

// Fire triggers the first persisted entry whose owner/repo equals target.
// The list is re-read on every fire; a target that is no longer registered
// reports NoSelection. Nothing is retried.
func (s *Scheduler) Fire(ctx context.Context, target string) dispatch.Result {
	list, err := settings.LoadRepositories(ctx, s.opts.Store)
	if err != nil {
		log.Printf("scheduler: load repositories: %v", err)
		owner, repo, _ := strings.Cut(target, "/")
		res := dispatch.Result{Kind: dispatch.KindUnexpected, Owner: owner, Repo: repo, Err: err}
		if s.opts.Sink != nil {
			s.opts.Sink.Add(res.Message())
		}
		return res
	}

	selected := ""
	if i := list.Index(target); i >= 0 {
		selected = strconv.Itoa(i)
	}
	res := s.opts.Dispatcher.Trigger(ctx, list, selected, s.opts.Sink)
	fmt.Fprintf(s.opts.Out, "%s %s: %s\n", time.Now().Format(time.RFC3339), target, res.Kind)
	return res
}

// NextRun returns the next fire time of a 5-field cron expression after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}
