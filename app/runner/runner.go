// Package runner is the retry driver: it repeats the whole refresh cycle a
// fixed number of times with a fixed delay, because a single pass is known to
// leave stragglers, and owns the browser session for the duration of a run.
package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/weweops/wewe-refresh/app/browser"
	"github.com/weweops/wewe-refresh/app/dash"
	"github.com/weweops/wewe-refresh/app/database"
)

type Opts struct {
	Cycles     int
	CycleDelay time.Duration
	EntryPause time.Duration
	Target     string
	Version    string
	// HoldFn, when set, runs after a successful run while the session is
	// still open (the interactive "press Enter to close" pause).
	HoldFn func()
}

// EntryResult is one entry's outcome within one cycle.
type EntryResult struct {
	Position int
	Item     dash.FeedItem
	Outcome  dash.Outcome
	Detail   string
}

// CycleSummary aggregates one full pass over the listing.
type CycleSummary struct {
	Cycle     int
	AuthOK    bool
	Attempted int
	Succeeded int
	TimedOut  int
	Skipped   int
	Failed    int
	Halted    bool
	Duration  time.Duration
	Outcomes  []EntryResult
}

type Runner struct {
	newSession func() (browser.Driver, error)
	store      database.RunStore
	bootOpts   dash.BootstrapOpts
	listOpts   dash.ListerOpts
	updateOpts dash.UpdaterOpts
	opts       Opts
}

func New(newSession func() (browser.Driver, error), store database.RunStore,
	bootOpts dash.BootstrapOpts, listOpts dash.ListerOpts, updateOpts dash.UpdaterOpts, opts Opts) *Runner {
	return &Runner{
		newSession: newSession,
		store:      store,
		bootOpts:   bootOpts,
		listOpts:   listOpts,
		updateOpts: updateOpts,
		opts:       opts,
	}
}

// Run executes the configured number of whole cycles against one browser
// session. The session is closed on every exit path. Cycles never
// short-circuit early: repeated updates are idempotent and cheap relative to
// the cost of missing stragglers.
func (r *Runner) Run(ctx context.Context) ([]CycleSummary, error) {
	session, err := r.newSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	runID := r.recordRunStart("refresh")
	defer r.recordRunFinish(runID)

	boot := dash.NewBootstrapper(session, r.bootOpts)
	lister := dash.NewLister(session, r.listOpts)
	updater := dash.NewUpdater(session, lister, r.updateOpts)

	var summaries []CycleSummary

	for cycle := 1; cycle <= r.opts.Cycles; cycle++ {
		slog.Info("Starting cycle", "cycle", cycle, "of", r.opts.Cycles)

		summary, err := r.runCycle(ctx, cycle, boot, lister, updater)
		summaries = append(summaries, summary)
		r.recordCycle(runID, summary)

		slog.Info("Cycle finished",
			"cycle", cycle,
			"attempted", summary.Attempted,
			"succeeded", summary.Succeeded,
			"timed_out", summary.TimedOut,
			"skipped", summary.Skipped,
			"duration", summary.Duration.Round(time.Millisecond))

		if err != nil {
			return summaries, err
		}

		if cycle < r.opts.Cycles {
			if err := sleepCtx(ctx, r.opts.CycleDelay); err != nil {
				return summaries, err
			}
		}
	}

	if r.opts.HoldFn != nil {
		r.opts.HoldFn()
	}

	return summaries, nil
}

// runCycle performs one full pass: bootstrap, list, update every entry. Only
// transport errors are returned; everything else lands in the summary.
func (r *Runner) runCycle(ctx context.Context, cycle int, boot *dash.Bootstrapper,
	lister *dash.Lister, updater *dash.Updater) (CycleSummary, error) {
	summary := CycleSummary{Cycle: cycle}
	started := time.Now()
	defer func() { summary.Duration = time.Since(started) }()

	ok, err := boot.Run(ctx)
	if err != nil {
		return summary, err
	}
	if !ok {
		slog.Error("Bootstrap failed, skipping cycle", "cycle", cycle)
		return summary, nil
	}
	summary.AuthOK = true

	items, err := lister.List(ctx)
	if err != nil {
		return summary, err
	}
	if len(items) == 0 {
		slog.Warn("Dashboard listed no feed entries", "cycle", cycle)
		return summary, nil
	}
	slog.Info("Listed feed entries", "cycle", cycle, "count", len(items))

	for index := range items {
		outcome, item, err := updater.UpdateAt(ctx, index)

		result := EntryResult{Position: index, Item: item, Outcome: outcome}
		if errors.Is(err, dash.ErrListChanged) {
			result.Detail = "listing shrank, cycle halted"
		}
		summary.Outcomes = append(summary.Outcomes, result)
		summary.tally(outcome)

		if errors.Is(err, dash.ErrListChanged) {
			summary.Halted = true
			break
		}
		if err != nil {
			return summary, err
		}

		// Deliberate fixed pause so the backend is never hit with
		// back-to-back update triggers.
		if index < len(items)-1 {
			if err := sleepCtx(ctx, r.opts.EntryPause); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

func (s *CycleSummary) tally(outcome dash.Outcome) {
	switch outcome {
	case dash.OutcomeSucceeded:
		s.Attempted++
		s.Succeeded++
	case dash.OutcomeTimedOut:
		s.Attempted++
		s.TimedOut++
	case dash.OutcomeFailed:
		s.Attempted++
		s.Failed++
	case dash.OutcomeSkipped:
		s.Skipped++
	}
}

func (r *Runner) recordRunStart(mode string) int64 {
	if r.store == nil {
		return 0
	}
	id, err := r.store.CreateRun(mode, r.opts.Target, r.opts.Version)
	if err != nil {
		slog.Warn("Failed to record run start", "error", err)
		return 0
	}
	return id
}

func (r *Runner) recordRunFinish(runID int64) {
	if r.store == nil || runID == 0 {
		return
	}
	if err := r.store.FinishRun(runID); err != nil {
		slog.Warn("Failed to record run finish", "run_id", runID, "error", err)
	}
}

func (r *Runner) recordCycle(runID int64, summary CycleSummary) {
	if r.store == nil || runID == 0 {
		return
	}

	report := database.CycleReport{
		Cycle:      summary.Cycle,
		Attempted:  summary.Attempted,
		Succeeded:  summary.Succeeded,
		TimedOut:   summary.TimedOut,
		Skipped:    summary.Skipped,
		Failed:     summary.Failed,
		StartedAt:  time.Now().Add(-summary.Duration),
		DurationMS: summary.Duration.Milliseconds(),
	}

	outcomes := make([]database.EntryOutcome, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		outcomes = append(outcomes, database.EntryOutcome{
			Position: o.Position,
			Title:    o.Item.Title,
			Key:      o.Item.Key,
			Outcome:  o.Outcome.String(),
			Detail:   o.Detail,
		})
	}

	if _, err := r.store.RecordCycle(runID, report, outcomes); err != nil {
		slog.Warn("Failed to record cycle", "run_id", runID, "cycle", summary.Cycle, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
