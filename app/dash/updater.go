package dash

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/weweops/wewe-refresh/app/browser"
)

type UpdaterOpts struct {
	// LocateTimeout bounds waiting for the update control to appear idle and
	// interactable after an entry is opened.
	LocateTimeout time.Duration
	// BusyTimeout bounds each of the two settlement waits: idle→busy and
	// busy→idle.
	BusyTimeout  time.Duration
	PollInterval time.Duration
	// SentinelTitle marks the synthetic "all entries" pseudo-entry, which is
	// not an updatable resource.
	SentinelTitle string
	// FastIdleSuccess controls the ambiguous case where the control is never
	// observed busy: off (default) reports a timeout and lets a later cycle
	// retry; on treats an idle, interactable control as a fast completion.
	FastIdleSuccess bool
}

// Updater drives one entry through its update cycle:
//
//	Idle → Selected → Updating → Settled
//
// The sidebar re-renders after every interaction, which invalidates element
// handles, so the updater re-fetches the full listing on every call and
// addresses the target entry strictly by index.
type Updater struct {
	drv    browser.Driver
	lister *Lister
	opts   UpdaterOpts
}

func NewUpdater(drv browser.Driver, lister *Lister, opts UpdaterOpts) *Updater {
	return &Updater{drv: drv, lister: lister, opts: opts}
}

// UpdateAt performs one update cycle for the entry at index within the
// current live listing. The returned error is nil except for ErrListChanged
// (stop the current cycle) and transport errors (stop the run).
func (u *Updater) UpdateAt(ctx context.Context, index int) (Outcome, FeedItem, error) {
	items, err := u.lister.List(ctx)
	if err != nil {
		return OutcomeFailed, FeedItem{}, err
	}

	if index >= len(items) {
		slog.Warn("Listing shrank below expected index, stopping cycle", "index", index, "listed", len(items))
		return OutcomeSkipped, FeedItem{}, ErrListChanged
	}

	item := items[index]
	logger := slog.With("index", index, "title", item.Title, "key", item.Key)

	if index == 0 || normalizeTitle(item.Title) == normalizeTitle(u.opts.SentinelTitle) {
		logger.Debug("Skipping pseudo-entry")
		return OutcomeSkipped, item, nil
	}

	// Idle → Selected: open the entry's detail view.
	found, err := u.drv.ClickEntry(ctx, entrySel, index)
	if err != nil {
		return OutcomeFailed, item, err
	}
	if !found {
		logger.Warn("Entry vanished before it could be selected")
		return OutcomeSkipped, item, nil
	}

	// Locate the update control in its idle, interactable state.
	idle, err := u.awaitControl(ctx, u.opts.LocateTimeout, u.controlIdle)
	if err != nil {
		return OutcomeFailed, item, err
	}
	if !idle {
		logger.Warn("Update control never became ready", "timeout", u.opts.LocateTimeout)
		return OutcomeTimedOut, item, nil
	}

	// Selected → Updating: trigger the update.
	clicked, err := u.drv.Click(ctx, updateButtonSel)
	if err != nil {
		return OutcomeFailed, item, err
	}
	if !clicked {
		logger.Warn("Update control disappeared before the click")
		return OutcomeSkipped, item, nil
	}

	// Confirm the update actually started: the label must switch to its busy
	// text, otherwise the click may have been a no-op server-side.
	busy, err := u.awaitControl(ctx, u.opts.BusyTimeout, u.controlBusy)
	if err != nil {
		return OutcomeFailed, item, err
	}
	if !busy {
		if u.opts.FastIdleSuccess {
			if idleAgain, err := u.controlIdle(ctx); err != nil {
				return OutcomeFailed, item, err
			} else if idleAgain {
				logger.Info("Control never observed busy, counting as fast completion")
				return OutcomeSucceeded, item, nil
			}
		}
		logger.Warn("Update never entered busy state", "timeout", u.opts.BusyTimeout)
		return OutcomeTimedOut, item, nil
	}

	// Updating → Settled: wait for the control to return to idle.
	settled, err := u.awaitControl(ctx, u.opts.BusyTimeout, u.controlIdle)
	if err != nil {
		return OutcomeFailed, item, err
	}
	if !settled {
		logger.Warn("Update did not settle", "timeout", u.opts.BusyTimeout)
		return OutcomeTimedOut, item, nil
	}

	logger.Info("Entry updated")
	return OutcomeSucceeded, item, nil
}

func (u *Updater) awaitControl(ctx context.Context, timeout time.Duration, cond func(context.Context) (bool, error)) (bool, error) {
	return awaitCondition(ctx, timeout, u.opts.PollInterval, cond)
}

func (u *Updater) controlIdle(ctx context.Context) (bool, error) {
	label, err := u.drv.Text(ctx, updateButtonSel)
	if err != nil {
		return false, err
	}
	if normalizeTitle(label) != updateIdleLabel {
		return false, nil
	}
	return u.drv.Enabled(ctx, updateButtonSel)
}

func (u *Updater) controlBusy(ctx context.Context) (bool, error) {
	label, err := u.drv.Text(ctx, updateButtonSel)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(normalizeTitle(label), updateBusyLabel), nil
}
