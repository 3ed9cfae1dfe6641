package dash

import (
	"context"
	"errors"
	"sync"

	"github.com/weweops/wewe-refresh/app/browser"
)

var errSimulated = errors.New("simulated transport failure")

type setCookieCall struct {
	Name   string
	Domain string
}

// fakeDriver scripts the automation channel for workflow tests. The update
// control's label is a queue consumed per Text call (last element sticky);
// clicking the control appends the labels configured in onUpdateClick,
// modelling the idle→busy→idle transition.
type fakeDriver struct {
	mu sync.Mutex

	entriesFn func() ([]browser.Entry, error)
	enabledFn func() (bool, error)

	ready    bool
	readyErr error

	labels        []string
	onUpdateClick []string
	updateMissing bool

	inputPresent  bool
	submitPresent bool
	inputValue    string
	readbackValue *string // overrides inputValue when set

	cookieErr map[string]error

	navErr error

	navigations    []string
	cookiesSet     []setCookieCall
	clicks         []string
	clickedEntries []int
	closed         int
}

func newFakeDriver(entries []browser.Entry) *fakeDriver {
	return &fakeDriver{
		entriesFn:     func() ([]browser.Entry, error) { return entries, nil },
		enabledFn:     func() (bool, error) { return true, nil },
		ready:         true,
		labels:        []string{updateIdleLabel},
		onUpdateClick: []string{updateBusyLabel + "...", updateBusyLabel + "...", updateIdleLabel},
		inputPresent:  true,
		submitPresent: true,
	}
}

func (f *fakeDriver) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr
	}
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeDriver) Ready(ctx context.Context) (bool, error) {
	return f.ready, f.readyErr
}

func (f *fakeDriver) SetCookie(ctx context.Context, name, value, domain string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cookieErr[name]; err != nil {
		return err
	}
	f.cookiesSet = append(f.cookiesSet, setCookieCall{Name: name, Domain: domain})
	return nil
}

func (f *fakeDriver) SetValue(ctx context.Context, selector, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inputPresent {
		return false, nil
	}
	f.inputValue = value
	return true, nil
}

func (f *fakeDriver) Value(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readbackValue != nil {
		return *f.readbackValue, nil
	}
	return f.inputValue, nil
}

func (f *fakeDriver) Text(ctx context.Context, selector string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	label := f.labels[0]
	if len(f.labels) > 1 {
		f.labels = f.labels[1:]
	}
	return label, nil
}

func (f *fakeDriver) Enabled(ctx context.Context, selector string) (bool, error) {
	return f.enabledFn()
}

func (f *fakeDriver) Click(ctx context.Context, selector string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, selector)
	if selector == authSubmitSel {
		return f.submitPresent, nil
	}
	if f.updateMissing {
		return false, nil
	}
	f.labels = append(f.labels, f.onUpdateClick...)
	return true, nil
}

func (f *fakeDriver) Entries(ctx context.Context, itemSel, titleSel string) ([]browser.Entry, error) {
	return f.entriesFn()
}

func (f *fakeDriver) ClickEntry(ctx context.Context, itemSel string, index int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clickedEntries = append(f.clickedEntries, index)
	return true, nil
}

func (f *fakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}
