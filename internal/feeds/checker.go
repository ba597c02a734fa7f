// Package feeds preflights RSS feeds before they are handed to the marquee
// ticker, so a dead or empty feed doesn't waste a display slot.
package feeds

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	logx "marqueed/pkg/logx"
)

type Checker struct {
	parser  *gofeed.Parser
	timeout time.Duration
	log     logx.Logger
}

func NewChecker(timeout time.Duration, log logx.Logger) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		parser:  gofeed.NewParser(),
		timeout: timeout,
		log:     log,
	}
}

// Check parses the feed and returns an error when it is unreachable,
// malformed, or carries no items.
func (c *Checker) Check(ctx context.Context, feedURL string) error {
	u, err := url.Parse(feedURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("feeds: invalid feed url %q", feedURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return fmt.Errorf("feeds: %s: %w", feedURL, err)
	}
	if len(feed.Items) == 0 {
		return fmt.Errorf("feeds: %s: no items", feedURL)
	}
	c.log.Debug("feed preflight ok", logx.String("feed", feedURL), logx.Int("items", len(feed.Items)))
	return nil
}
