package dash

import (
	"context"
	"log/slog"
	"time"

	"github.com/weweops/wewe-refresh/app/browser"
)

type ListerOpts struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// Lister reads the feed entries currently rendered in the sidebar. It never
// holds element handles: every List call is a fresh snapshot.
type Lister struct {
	drv  browser.Driver
	opts ListerOpts
}

func NewLister(drv browser.Driver, opts ListerOpts) *Lister {
	return &Lister{drv: drv, opts: opts}
}

// List waits for at least one entry to be rendered and returns the current
// listing in display order. An empty dashboard is a valid state: if nothing
// shows up within the timeout the result is an empty slice, not an error.
func (l *Lister) List(ctx context.Context) ([]FeedItem, error) {
	ok, err := awaitCondition(ctx, l.opts.Timeout, l.opts.PollInterval, func(ctx context.Context) (bool, error) {
		entries, err := l.drv.Entries(ctx, entrySel, entryTitleSel)
		return len(entries) > 0, err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("No feed entries rendered within timeout", "timeout", l.opts.Timeout)
		return nil, nil
	}

	entries, err := l.drv.Entries(ctx, entrySel, entryTitleSel)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, FeedItem{Title: e.Title, Link: e.Link, Key: e.Key})
	}
	return items, nil
}
