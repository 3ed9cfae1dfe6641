package dash

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/weweops/wewe-refresh/app/browser"
	"github.com/weweops/wewe-refresh/app/cookies"
)

type BootstrapOpts struct {
	URL          string
	AuthCode     string
	Cookies      []cookies.Cookie
	LoadTimeout  time.Duration
	PollInterval time.Duration
}

// Bootstrapper turns a fresh browser session into an authenticated dashboard
// session: open the page, inject captured cookies, submit the authorization
// code.
type Bootstrapper struct {
	drv  browser.Driver
	opts BootstrapOpts
}

func NewBootstrapper(drv browser.Driver, opts BootstrapOpts) *Bootstrapper {
	return &Bootstrapper{drv: drv, opts: opts}
}

// Run performs the full bootstrap sequence. It returns false for recoverable
// failures (load timeout, auth code mismatch, missing form); only a broken
// automation channel is returned as an error.
func (b *Bootstrapper) Run(ctx context.Context) (bool, error) {
	slog.Info("Opening dashboard", "url", b.opts.URL)

	if err := b.drv.Navigate(ctx, b.opts.URL); err != nil {
		return false, err
	}
	if ok, err := b.waitLoaded(ctx); err != nil || !ok {
		if err == nil {
			slog.Error("Page load timed out", "url", b.opts.URL, "timeout", b.opts.LoadTimeout)
		}
		return false, err
	}

	if len(b.opts.Cookies) > 0 {
		ok, err := b.applyCookies(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			// Matches the manual workflow: a partially applied cookie set is
			// worth trying, the auth step decides whether it was enough.
			slog.Warn("Not all cookies were applied, continuing")
		}
	}

	return b.submitAuthCode(ctx)
}

// applyCookies injects the captured cookies scoped to the target's domain.
// Cookies cannot be stored until some page on the domain has been loaded, so
// the bare origin is visited first and the original URL restored afterwards.
// Failures are per-cookie; the call reports true only when none failed.
func (b *Bootstrapper) applyCookies(ctx context.Context) (bool, error) {
	parsed, err := url.Parse(b.opts.URL)
	if err != nil {
		return false, fmt.Errorf("invalid dashboard URL %q: %w", b.opts.URL, err)
	}

	origin := parsed.Scheme + "://" + parsed.Host
	domain := cookies.NormalizeDomain(parsed.Host)

	slog.Debug("Visiting origin before setting cookies", "origin", origin, "domain", domain)
	if err := b.drv.Navigate(ctx, origin); err != nil {
		return false, err
	}
	if _, err := b.waitLoaded(ctx); err != nil {
		return false, err
	}

	failed := 0
	for _, c := range b.opts.Cookies {
		if err := b.drv.SetCookie(ctx, c.Name, c.Value, domain); err != nil {
			slog.Warn("Failed to set cookie", "name", c.Name, "error", err)
			failed++
		}
	}
	slog.Info("Cookies applied", "total", len(b.opts.Cookies), "failed", failed)

	if err := b.drv.Navigate(ctx, b.opts.URL); err != nil {
		return false, err
	}
	if _, err := b.waitLoaded(ctx); err != nil {
		return false, err
	}

	return failed == 0, nil
}

// submitAuthCode types the code, verifies it by reading the field back and
// clicks the confirmation control. A value mismatch is a failure, not an
// error. No further validation happens here: if the code was wrong, the
// subsequent listing comes back empty and the caller infers it.
func (b *Bootstrapper) submitAuthCode(ctx context.Context) (bool, error) {
	found, err := b.drv.SetValue(ctx, authInputSel, b.opts.AuthCode)
	if err != nil {
		return false, err
	}
	if !found {
		slog.Error("Authorization input not found", "selector", authInputSel)
		return false, nil
	}

	got, err := b.drv.Value(ctx, authInputSel)
	if err != nil {
		return false, err
	}
	if got != b.opts.AuthCode {
		slog.Error("Authorization code readback mismatch", "expected_len", len(b.opts.AuthCode), "got_len", len(got))
		return false, nil
	}

	clicked, err := b.drv.Click(ctx, authSubmitSel)
	if err != nil {
		return false, err
	}
	if !clicked {
		slog.Error("Authorization submit control not found", "selector", authSubmitSel)
		return false, nil
	}

	slog.Info("Authorization code submitted")
	return true, nil
}

func (b *Bootstrapper) waitLoaded(ctx context.Context) (bool, error) {
	return awaitCondition(ctx, b.opts.LoadTimeout, b.opts.PollInterval, b.drv.Ready)
}
