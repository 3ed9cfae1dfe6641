// Package cookies reads previously captured browser session cookies from a
// flat "key=value; key2=value2" text file, the format produced by copying a
// Cookie header out of the browser's network inspector.
package cookies

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// ErrNotConfigured marks a cookie file that does not exist, as opposed to one
// that exists but cannot be read. Callers use it to tell "not configured"
// from "misconfigured".
var ErrNotConfigured = errors.New("cookie file not configured")

type Cookie struct {
	Name  string
	Value string
}

// Parse splits a semicolon-separated cookie string into pairs. Pairs without
// an '=' are skipped individually; values may themselves contain '='.
func Parse(s string) []Cookie {
	var cookies []Cookie

	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, value, found := strings.Cut(pair, "=")
		if !found {
			slog.Warn("Skipping malformed cookie pair", "pair", pair)
			continue
		}

		cookies = append(cookies, Cookie{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	return cookies
}

// Load reads and parses a cookie file. A missing file is reported as
// ErrNotConfigured; any other read failure is a plain error.
func Load(path string) ([]Cookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotConfigured, path)
		}
		return nil, fmt.Errorf("failed to read cookie file %s: %w", path, err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		slog.Warn("Cookie file is empty", "path", path)
		return nil, nil
	}

	cookies := Parse(content)
	slog.Debug("Parsed cookie file", "path", path, "count", len(cookies))

	return cookies, nil
}

// NormalizeDomain strips a :port suffix from a host. Cookie scoping by domain
// does not accept ports.
func NormalizeDomain(host string) string {
	if i := strings.Index(host, ":"); i >= 0 {
		return host[:i]
	}
	return host
}
