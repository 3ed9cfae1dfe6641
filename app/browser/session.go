package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

var _ Driver = (*Session)(nil)

// Session drives a Chrome instance over the DevTools protocol.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration
	closeOnce   sync.Once
}

// NewSession launches the browser. The caller must Close it on every exit
// path.
func NewSession(headless bool, userAgent string, navTimeout time.Duration) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Force the browser process to start now so a broken Chrome install is
	// reported before any workflow begins.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	slog.Debug("Browser session started", "headless", headless)

	return &Session{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		navTimeout:  navTimeout,
	}, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *Session) Ready(ctx context.Context) (bool, error) {
	var ready bool
	err := s.eval(ctx, `document.readyState === 'complete'`, &ready)
	return ready, err
}

func (s *Session) SetCookie(ctx context.Context, name, value, domain string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).
			WithDomain(domain).
			WithPath("/").
			Do(ctx)
	}))
}

func (s *Session) SetValue(ctx context.Context, selector, value string) (bool, error) {
	// React-style controlled inputs ignore direct value assignment, so the
	// native setter is invoked and an input event dispatched.
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'value').set;
		setter.call(el, %q);
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, selector, value)

	var found bool
	err := s.eval(ctx, js, &found)
	return found, err
}

func (s *Session) Value(ctx context.Context, selector string) (string, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.value : '';
	})()`, selector)

	var value string
	err := s.eval(ctx, js, &value)
	return value, err
}

func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		return el ? el.textContent.trim() : '';
	})()`, selector)

	var text string
	err := s.eval(ctx, js, &text)
	return text, err
}

func (s *Session) Enabled(ctx context.Context, selector string) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		return !el.disabled && el.getAttribute('aria-disabled') !== 'true';
	})()`, selector)

	var enabled bool
	err := s.eval(ctx, js, &enabled)
	return enabled, err
}

func (s *Session) Click(ctx context.Context, selector string) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.click();
		return true;
	})()`, selector)

	var found bool
	err := s.eval(ctx, js, &found)
	return found, err
}

func (s *Session) Entries(ctx context.Context, itemSel, titleSel string) ([]Entry, error) {
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(el => {
		const titleEl = el.querySelector(%q);
		const linkEl = el.matches('a[href]') ? el : el.querySelector('a[href]');
		return {
			title: titleEl ? titleEl.textContent.trim() : '',
			link: linkEl ? linkEl.getAttribute('href') : '',
			key: el.getAttribute('data-key') || '',
		};
	})`, itemSel, titleSel)

	var entries []Entry
	err := s.eval(ctx, js, &entries)
	return entries, err
}

func (s *Session) ClickEntry(ctx context.Context, itemSel string, index int) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelectorAll(%q)[%d];
		if (!el) return false;
		el.scrollIntoView({ block: 'center' });
		el.click();
		return true;
	})()`, itemSel, index)

	var found bool
	err := s.eval(ctx, js, &found)
	return found, err
}

func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		// chromedp.Cancel waits for the browser process to exit cleanly
		// where plain context cancellation would orphan it.
		if err := chromedp.Cancel(s.ctx); err != nil {
			slog.Warn("Browser did not shut down cleanly", "error", err)
		}
		s.cancel()
		s.allocCancel()
		slog.Debug("Browser session closed")
	})
	return nil
}

func (s *Session) eval(ctx context.Context, js string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, out)); err != nil {
		return fmt.Errorf("automation channel error: %w", err)
	}
	return nil
}
