package cfg

import "time"

type Cfg struct {
	// Run mode: refresh (UI path), batch (raw tRPC path), verify, history, serve
	Mode string

	// Dashboard target
	URL         string
	AuthCode    string
	CookieFile  string
	TargetsFile string

	// Workflow timing
	LoadTimeout  time.Duration
	ListTimeout  time.Duration
	BusyTimeout  time.Duration
	PollInterval time.Duration
	EntryPause   time.Duration

	// Retry driver
	Cycles     int
	CycleDelay time.Duration

	// Behavior knobs
	SentinelTitle   string
	FastIdleSuccess bool
	Headless        bool
	Hold            bool

	// History / reporting
	DBPath       string
	Port         string
	APIAccessKey string

	// Verification
	MaxFeedAge time.Duration

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
