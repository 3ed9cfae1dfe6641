package dash

// CSS anchors into the dashboard's rendered markup (NextUI components). These
// are the one thing expected to break across wewe-rss upgrades.
const (
	// Sidebar feed list entries and the label element nested inside each.
	entrySel      = `aside ul[data-slot="list"] > li[data-key]`
	entryTitleSel = `span[data-label="true"]`

	// Authorization code form on the login view.
	authInputSel  = `form input[type="password"]`
	authSubmitSel = `form button[type="submit"]`

	// The per-feed "trigger update" control in the detail view header.
	updateButtonSel = `main header button[data-update], main header button`
)

// Labels of the update control in its two observable states. The busy label
// is matched by prefix since the dashboard appends an ellipsis while a
// refresh is in flight.
const (
	updateIdleLabel = "更新"
	updateBusyLabel = "更新中"
)
