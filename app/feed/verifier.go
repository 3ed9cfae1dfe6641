// Package feed checks the outcome of a refresh run from the outside: it
// fetches the feed the dashboard generates and reports which sources still
// look stale.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"
)

type Verifier struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	userAgent  string
}

func NewVerifier(httpClient *http.Client, userAgent string) *Verifier {
	return &Verifier{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		userAgent:  userAgent,
	}
}

// SourceFreshness is the newest item seen for one source in the combined
// feed.
type SourceFreshness struct {
	Source    string    `json:"source"`
	Latest    time.Time `json:"latest"`
	ItemCount int       `json:"item_count"`
	Stale     bool      `json:"stale"`
}

type Report struct {
	FeedTitle  string            `json:"feed_title"`
	TotalItems int               `json:"total_items"`
	Sources    []SourceFreshness `json:"sources"`
	StaleCount int               `json:"stale_count"`
}

// Run fetches and parses the combined feed and classifies every source by
// the age of its newest item. Sources are returned stalest-first.
func (v *Verifier) Run(ctx context.Context, feedURL string, maxAge time.Duration) (*Report, error) {
	data, err := v.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	parsed, err := v.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	type bucket struct {
		latest time.Time
		count  int
	}
	buckets := make(map[string]*bucket)

	for _, item := range parsed.Items {
		source := sourceName(item, parsed.Title)
		b := buckets[source]
		if b == nil {
			b = &bucket{}
			buckets[source] = b
		}
		b.count++

		if ts := itemTime(item); ts != nil && ts.After(b.latest) {
			b.latest = *ts
		}
	}

	cutoff := time.Now().Add(-maxAge)
	report := &Report{FeedTitle: parsed.Title, TotalItems: len(parsed.Items)}

	for source, b := range buckets {
		stale := b.latest.Before(cutoff)
		if stale {
			report.StaleCount++
		}
		report.Sources = append(report.Sources, SourceFreshness{
			Source:    source,
			Latest:    b.latest,
			ItemCount: b.count,
			Stale:     stale,
		})
	}

	sort.Slice(report.Sources, func(i, j int) bool {
		return report.Sources[i].Latest.Before(report.Sources[j].Latest)
	})

	slog.Info("Feed verified", "title", parsed.Title, "items", report.TotalItems,
		"sources", len(report.Sources), "stale", report.StaleCount)

	return report, nil
}

func (v *Verifier) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func sourceName(item *gofeed.Item, fallback string) string {
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			return author.Name
		}
	}
	if len(item.Categories) > 0 && item.Categories[0] != "" {
		return item.Categories[0]
	}
	if fallback != "" {
		return fallback
	}
	return "unknown"
}

func itemTime(item *gofeed.Item) *time.Time {
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed
	}
	return item.PublishedParsed
}
