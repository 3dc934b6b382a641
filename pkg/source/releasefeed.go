package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/mediascope/pkg/domain"
)

// ReleaseFeed fetches the TV release RSS feed and normalizes entries into
// raw items at the boundary. No caching here, the cache layer owns that.
type ReleaseFeed struct {
	parser    *gofeed.Parser
	sanitizer *bluemonday.Policy
	url       string
	timeout   time.Duration
	retries   int
	maxItems  int
}

// ReleaseFeedParams configures the release feed client
type ReleaseFeedParams struct {
	URL      string
	Timeout  time.Duration
	Retries  int
	MaxItems int // bound on items returned per fetch
}

// NewReleaseFeed creates a release feed client
func NewReleaseFeed(p ReleaseFeedParams) *ReleaseFeed {
	if p.Timeout == 0 {
		p.Timeout = 15 * time.Second
	}
	if p.Retries == 0 {
		p.Retries = 3
	}
	if p.MaxItems == 0 {
		p.MaxItems = 100
	}
	return &ReleaseFeed{
		parser:    gofeed.NewParser(),
		sanitizer: bluemonday.StrictPolicy(),
		url:       p.URL,
		timeout:   p.Timeout,
		retries:   p.Retries,
		maxItems:  p.MaxItems,
	}
}

// Fetch retrieves the feed and returns raw items plus the count of malformed
// entries skipped. Individual malformed entries never fail the fetch.
func (f *ReleaseFeed) Fetch(ctx context.Context) ([]domain.RawItem, int, error) {
	var feed *gofeed.Feed

	retrier := repeater.NewBackoff(f.retries, 300*time.Millisecond, repeater.WithMaxDelay(3*time.Second))
	err := retrier.Do(ctx, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		parsed, err := f.parser.ParseURLWithContext(f.url, fetchCtx)
		if err != nil {
			return fmt.Errorf("parse feed %s: %w", f.url, err)
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: release feed: %v", domain.ErrUpstreamUnavailable, err)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	skipped := 0
	for _, entry := range feed.Items {
		if strings.TrimSpace(entry.Title) == "" {
			skipped++
			continue
		}

		item := domain.RawItem{
			SourceID:    entryGUID(entry, feed.Title),
			Source:      domain.SourceEZTV,
			Title:       entry.Title,
			Kind:        domain.KindSeries,
			Description: strings.TrimSpace(f.sanitizer.Sanitize(entry.Description)),
		}
		if entry.PublishedParsed != nil {
			item.Published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			item.Published = *entry.UpdatedParsed
		}

		items = append(items, item)
		if len(items) >= f.maxItems {
			break
		}
	}

	if skipped > 0 {
		lgr.Printf("[WARN] skipped %d malformed entries from release feed", skipped)
	}
	return items, skipped, nil
}

// entryGUID picks a stable id for a feed entry
func entryGUID(entry *gofeed.Item, feedTitle string) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	if entry.Link != "" {
		return entry.Link
	}
	return fmt.Sprintf("%s-%s", feedTitle, entry.Title)
}
