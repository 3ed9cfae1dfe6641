package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Dashboard target
	URL         string `long:"url" env:"WEWE_URL" default:"http://localhost:4000/dash" description:"Dashboard URL"`
	AuthCode    string `long:"auth-code" env:"WEWE_AUTH_CODE" description:"Dashboard authorization code"`
	CookieFile  string `long:"cookie-file" env:"WEWE_COOKIE_FILE" description:"File with 'k=v; k2=v2' session cookies"`
	TargetsFile string `long:"targets" env:"WEWE_TARGETS" description:"YAML file with multiple dashboard targets (overrides --url/--auth-code/--cookie-file)"`

	// Workflow timing (seconds)
	LoadTimeout  int `long:"load-timeout" env:"WEWE_LOAD_TIMEOUT" default:"15" description:"Page load wait in seconds"`
	ListTimeout  int `long:"list-timeout" env:"WEWE_LIST_TIMEOUT" default:"10" description:"Sidebar listing wait in seconds"`
	BusyTimeout  int `long:"busy-timeout" env:"WEWE_BUSY_TIMEOUT" default:"60" description:"Update busy/settle wait in seconds"`
	PollInterval int `long:"poll-interval" env:"WEWE_POLL_INTERVAL" default:"250" description:"Condition poll interval in milliseconds"`
	EntryPause   int `long:"entry-pause" env:"WEWE_ENTRY_PAUSE" default:"1500" description:"Pause between entries in milliseconds"`

	// Retry driver
	Cycles     int `long:"cycles" env:"WEWE_CYCLES" default:"4" description:"Number of full refresh cycles"`
	CycleDelay int `long:"cycle-delay" env:"WEWE_CYCLE_DELAY" default:"10" description:"Delay between cycles in seconds"`

	// Behavior knobs
	SentinelTitle   string `long:"sentinel-title" env:"WEWE_SENTINEL_TITLE" default:"全部" description:"Title of the synthetic 'all entries' pseudo-entry"`
	FastIdleSuccess bool   `long:"fast-idle-success" env:"WEWE_FAST_IDLE_SUCCESS" description:"Treat an update control that never left idle but is interactable as success"`
	Headful         bool   `long:"headful" env:"WEWE_HEADFUL" description:"Run the browser with a visible window"`
	Hold            bool   `long:"hold" env:"WEWE_HOLD" description:"Keep the browser open until Enter is pressed after the run"`

	// History / reporting
	DBPath       string `long:"db-path" env:"WEWE_DB_PATH" default:"wewe-refresh.db" description:"SQLite run-history database path"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP port for serve mode"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for serve mode (optional)"`

	// Verification
	MaxFeedAge int `long:"max-feed-age" env:"WEWE_MAX_FEED_AGE" default:"48" description:"Hours before a source counts as stale in verify mode"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"wewe-refresh/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Mode string `positional-arg-name:"mode" description:"refresh | batch | verify | history | serve (default: refresh)"`
	} `positional-args:"yes"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	mode := cmp.Or(raw.Args.Mode, "refresh")
	switch mode {
	case "refresh", "batch", "verify", "history", "serve":
	default:
		return nil, fmt.Errorf("unknown mode %q (expected refresh, batch, verify, history or serve)", mode)
	}

	cfg := &Cfg{
		Mode:            mode,
		URL:             raw.URL,
		AuthCode:        raw.AuthCode,
		CookieFile:      raw.CookieFile,
		TargetsFile:     raw.TargetsFile,
		LoadTimeout:     time.Duration(raw.LoadTimeout) * time.Second,
		ListTimeout:     time.Duration(raw.ListTimeout) * time.Second,
		BusyTimeout:     time.Duration(raw.BusyTimeout) * time.Second,
		PollInterval:    time.Duration(raw.PollInterval) * time.Millisecond,
		EntryPause:      time.Duration(raw.EntryPause) * time.Millisecond,
		Cycles:          raw.Cycles,
		CycleDelay:      time.Duration(raw.CycleDelay) * time.Second,
		SentinelTitle:   raw.SentinelTitle,
		FastIdleSuccess: raw.FastIdleSuccess,
		Headless:        !raw.Headful,
		Hold:            raw.Hold,
		DBPath:          raw.DBPath,
		Port:            raw.Port,
		APIAccessKey:    raw.APIAccessKey,
		MaxFeedAge:      time.Duration(raw.MaxFeedAge) * time.Hour,
		UserAgent:       raw.UserAgent,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
