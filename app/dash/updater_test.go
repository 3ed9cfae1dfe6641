package dash

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/weweops/wewe-refresh/app/browser"
)

func testEntries() []browser.Entry {
	return []browser.Entry{
		{Title: "全部", Link: "/feeds/all", Key: "all"},
		{Title: "甲号", Link: "/feeds/a1", Key: "a1"},
		{Title: "乙号", Link: "/feeds/a2", Key: "a2"},
	}
}

func newTestUpdater(drv *fakeDriver, opts UpdaterOpts) *Updater {
	if opts.LocateTimeout == 0 {
		opts.LocateTimeout = 50 * time.Millisecond
	}
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = 50 * time.Millisecond
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	if opts.SentinelTitle == "" {
		opts.SentinelTitle = "全部"
	}
	lister := NewLister(drv, ListerOpts{Timeout: 50 * time.Millisecond, PollInterval: time.Millisecond})
	return NewUpdater(drv, lister, opts)
}

func TestUpdater_SuccessPath(t *testing.T) {
	drv := newFakeDriver(testEntries())
	updater := newTestUpdater(drv, UpdaterOpts{})

	outcome, item, err := updater.UpdateAt(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome != OutcomeSucceeded {
		t.Fatalf("Expected Succeeded, got %s", outcome)
	}
	if item.Key != "a1" {
		t.Errorf("Expected item a1, got %+v", item)
	}

	if len(drv.clickedEntries) != 1 || drv.clickedEntries[0] != 1 {
		t.Errorf("Expected entry 1 clicked, got %v", drv.clickedEntries)
	}
	if len(drv.clicks) != 1 || drv.clicks[0] != updateButtonSel {
		t.Errorf("Expected the update control clicked once, got %v", drv.clicks)
	}
}

func TestUpdater_IndexZeroAlwaysSkipped(t *testing.T) {
	drv := newFakeDriver(testEntries())
	updater := newTestUpdater(drv, UpdaterOpts{})

	outcome, _, err := updater.UpdateAt(context.Background(), 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Fatalf("Expected Skipped for index 0, got %s", outcome)
	}
	if len(drv.clickedEntries) != 0 {
		t.Errorf("Index 0 must never be selected, got clicks %v", drv.clickedEntries)
	}
}

func TestUpdater_SentinelSkippedAtAnyPosition(t *testing.T) {
	entries := testEntries()
	entries[2].Title = "全部"
	drv := newFakeDriver(entries)
	updater := newTestUpdater(drv, UpdaterOpts{})

	outcome, _, err := updater.UpdateAt(context.Background(), 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome != OutcomeSkipped {
		t.Fatalf("Expected sentinel entry Skipped regardless of position, got %s", outcome)
	}
	if len(drv.clickedEntries) != 0 {
		t.Errorf("Sentinel entry must not be selected, got %v", drv.clickedEntries)
	}
}

func TestUpdater_ShrunkenListingHaltsCycle(t *testing.T) {
	drv := newFakeDriver(testEntries()[:2])
	updater := newTestUpdater(drv, UpdaterOpts{})

	outcome, _, err := updater.UpdateAt(context.Background(), 2)
	if outcome != OutcomeSkipped {
		t.Errorf("Expected Skipped on out-of-bounds index, got %s", outcome)
	}
	if !errors.Is(err, ErrListChanged) {
		t.Errorf("Expected ErrListChanged, got %v", err)
	}
}

func TestUpdater_NeverBusyIsTimeout(t *testing.T) {
	drv := newFakeDriver(testEntries())
	drv.onUpdateClick = nil // the click is silently ignored server-side

	updater := newTestUpdater(drv, UpdaterOpts{BusyTimeout: 15 * time.Millisecond})

	outcome, _, err := updater.UpdateAt(context.Background(), 1)
	if err != nil {
		t.Fatalf("Busy-wait timeout must not be an error: %v", err)
	}
	if outcome != OutcomeTimedOut {
		t.Fatalf("Expected TimedOut when the control never goes busy, got %s", outcome)
	}
}

func TestUpdater_FastIdleSuccessKnob(t *testing.T) {
	drv := newFakeDriver(testEntries())
	drv.onUpdateClick = nil

	updater := newTestUpdater(drv, UpdaterOpts{BusyTimeout: 15 * time.Millisecond, FastIdleSuccess: true})

	outcome, _, err := updater.UpdateAt(context.Background(), 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome != OutcomeSucceeded {
		t.Fatalf("Expected fast-idle success with the knob on, got %s", outcome)
	}
}

func TestUpdater_NeverSettlesIsTimeout(t *testing.T) {
	drv := newFakeDriver(testEntries())
	drv.onUpdateClick = []string{updateBusyLabel + "..."} // sticks in busy forever

	updater := newTestUpdater(drv, UpdaterOpts{BusyTimeout: 15 * time.Millisecond})

	outcome, _, err := updater.UpdateAt(context.Background(), 1)
	if err != nil {
		t.Fatalf("Settle timeout must not be an error: %v", err)
	}
	if outcome != OutcomeTimedOut {
		t.Fatalf("Expected TimedOut when the update never settles, got %s", outcome)
	}
}

func TestUpdater_TransportErrorIsFailed(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.entriesFn = func() ([]browser.Entry, error) { return nil, errSimulated }
	updater := newTestUpdater(drv, UpdaterOpts{})

	outcome, _, err := updater.UpdateAt(context.Background(), 1)
	if outcome != OutcomeFailed {
		t.Errorf("Expected Failed on transport error, got %s", outcome)
	}
	if !errors.Is(err, errSimulated) {
		t.Errorf("Expected transport error to propagate, got %v", err)
	}
}

func TestUpdater_RelistsOnEveryCall(t *testing.T) {
	listings := 0
	drv := newFakeDriver(nil)
	drv.entriesFn = func() ([]browser.Entry, error) {
		listings++
		return testEntries(), nil
	}
	updater := newTestUpdater(drv, UpdaterOpts{})

	if _, _, err := updater.UpdateAt(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	after := listings
	if _, _, err := updater.UpdateAt(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	if listings <= after {
		t.Error("Expected the listing re-fetched for the second entry")
	}
}
