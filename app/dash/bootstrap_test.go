package dash

import (
	"context"
	"testing"
	"time"

	"github.com/weweops/wewe-refresh/app/cookies"
)

func bootstrapOpts() BootstrapOpts {
	return BootstrapOpts{
		URL:          "http://example.com:4000/dash",
		AuthCode:     "123567",
		LoadTimeout:  50 * time.Millisecond,
		PollInterval: time.Millisecond,
	}
}

func TestBootstrapper_SuccessWithoutCookies(t *testing.T) {
	drv := newFakeDriver(nil)

	ok, err := NewBootstrapper(drv, bootstrapOpts()).Run(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("Expected bootstrap to succeed")
	}

	if len(drv.navigations) != 1 || drv.navigations[0] != "http://example.com:4000/dash" {
		t.Errorf("Expected a single navigation to the dashboard, got %v", drv.navigations)
	}
	if drv.inputValue != "123567" {
		t.Errorf("Expected auth code typed into the form, got %q", drv.inputValue)
	}
	if len(drv.clicks) != 1 || drv.clicks[0] != authSubmitSel {
		t.Errorf("Expected the submit control clicked, got %v", drv.clicks)
	}
}

func TestBootstrapper_CookieRoundTrip(t *testing.T) {
	drv := newFakeDriver(nil)
	opts := bootstrapOpts()
	opts.Cookies = []cookies.Cookie{{Name: "session", Value: "xyz"}, {Name: "auth", Value: "42"}}

	ok, err := NewBootstrapper(drv, opts).Run(context.Background())
	if err != nil || !ok {
		t.Fatalf("Expected success, got ok=%v err=%v", ok, err)
	}

	// Origin visited between the two dashboard navigations so cookies can be
	// stored on the right domain.
	want := []string{
		"http://example.com:4000/dash",
		"http://example.com:4000",
		"http://example.com:4000/dash",
	}
	if len(drv.navigations) != len(want) {
		t.Fatalf("Expected navigations %v, got %v", want, drv.navigations)
	}
	for i := range want {
		if drv.navigations[i] != want[i] {
			t.Errorf("Navigation %d: expected %s, got %s", i, want[i], drv.navigations[i])
		}
	}

	if len(drv.cookiesSet) != 2 {
		t.Fatalf("Expected 2 cookies set, got %d", len(drv.cookiesSet))
	}
	for _, c := range drv.cookiesSet {
		// Port suffix must be stripped for cookie domain scoping.
		if c.Domain != "example.com" {
			t.Errorf("Cookie %s: expected domain example.com, got %s", c.Name, c.Domain)
		}
	}
}

func TestBootstrapper_PerCookieFailureDoesNotAbort(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.cookieErr = map[string]error{"bad": errSimulated}
	opts := bootstrapOpts()
	opts.Cookies = []cookies.Cookie{
		{Name: "bad", Value: "1"},
		{Name: "good", Value: "2"},
	}

	ok, err := NewBootstrapper(drv, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("Per-cookie failure must not be fatal: %v", err)
	}
	if !ok {
		t.Fatal("Expected bootstrap to proceed past cookie failures")
	}

	if len(drv.cookiesSet) != 1 || drv.cookiesSet[0].Name != "good" {
		t.Errorf("Expected the remaining cookie to be applied, got %v", drv.cookiesSet)
	}
}

func TestBootstrapper_LoadTimeout(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.ready = false

	ok, err := NewBootstrapper(drv, bootstrapOpts()).Run(context.Background())
	if err != nil {
		t.Fatalf("Load timeout must be a boolean failure, got error %v", err)
	}
	if ok {
		t.Error("Expected bootstrap failure when the page never loads")
	}
}

func TestBootstrapper_ReadbackMismatch(t *testing.T) {
	drv := newFakeDriver(nil)
	wrong := "000000"
	drv.readbackValue = &wrong

	ok, err := NewBootstrapper(drv, bootstrapOpts()).Run(context.Background())
	if err != nil {
		t.Fatalf("Readback mismatch must not be an error: %v", err)
	}
	if ok {
		t.Error("Expected failure when the field readback differs from the code")
	}
	if len(drv.clicks) != 0 {
		t.Errorf("Submit must not be clicked after a mismatch, got %v", drv.clicks)
	}
}

func TestBootstrapper_MissingAuthInput(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.inputPresent = false

	ok, err := NewBootstrapper(drv, bootstrapOpts()).Run(context.Background())
	if err != nil {
		t.Fatalf("Missing input must not be an error: %v", err)
	}
	if ok {
		t.Error("Expected failure when the auth input is absent")
	}
}

func TestBootstrapper_TransportErrorPropagates(t *testing.T) {
	drv := newFakeDriver(nil)
	drv.navErr = errSimulated

	_, err := NewBootstrapper(drv, bootstrapOpts()).Run(context.Background())
	if err == nil {
		t.Fatal("Expected transport error to propagate")
	}
}
