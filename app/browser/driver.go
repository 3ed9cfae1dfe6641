// Package browser owns the automation channel to the dashboard. The rest of
// the application talks to the narrow Driver interface; the chromedp-backed
// Session is the production implementation.
package browser

import "context"

// Entry is one raw sidebar list entry as rendered in the document.
type Entry struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Key   string `json:"key"`
}

// Driver is the surface the refresh workflow needs from a live browser.
//
// Query methods are non-blocking snapshots of the current document: a missing
// node yields a zero value, never an error. An error return from any method
// means the automation channel itself broke and the run cannot continue.
type Driver interface {
	// Navigate opens a URL and returns once navigation has been committed.
	Navigate(ctx context.Context, url string) error

	// Ready reports whether the current document has finished loading.
	Ready(ctx context.Context) (bool, error)

	// SetCookie stores a cookie scoped to the given domain.
	SetCookie(ctx context.Context, name, value, domain string) error

	// SetValue writes an input's value, clearing any previous content, and
	// fires the change events the page's framework listens for. Reports
	// whether the input was found.
	SetValue(ctx context.Context, selector, value string) (bool, error)

	// Value reads an input's current value ("" if absent).
	Value(ctx context.Context, selector string) (string, error)

	// Text reads an element's trimmed text content ("" if absent).
	Text(ctx context.Context, selector string) (string, error)

	// Enabled reports whether an element exists and is interactable.
	Enabled(ctx context.Context, selector string) (bool, error)

	// Click clicks the first element matching selector, reporting whether a
	// match was found.
	Click(ctx context.Context, selector string) (bool, error)

	// Entries snapshots the sidebar list: for every node matching itemSel it
	// extracts the trimmed text of the nested titleSel node, the href of the
	// nearest link and the node's data-key attribute.
	Entries(ctx context.Context, itemSel, titleSel string) ([]Entry, error)

	// ClickEntry scrolls the index-th node matching itemSel into view and
	// clicks it, reporting whether the node existed.
	ClickEntry(ctx context.Context, itemSel string, index int) (bool, error)

	// Close releases the browser. Safe to call more than once.
	Close() error
}
