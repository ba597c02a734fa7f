// Package pixelcade talks to the Pixelcade display controller. Every request
// is a GET with query parameters; a non-2xx status or transport error counts
// as failure.
package pixelcade

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	logx "marqueed/pkg/logx"
)

type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     logx.Logger
}

// New builds a client for the controller at baseURL (no trailing slash).
// timeout bounds each display request.
func New(baseURL string, timeout time.Duration, log logx.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("pixelcade: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pixelcade: %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("pixelcade: %s returned %s", path, resp.Status)
	}
	c.log.Debug("pixelcade request ok", logx.String("path", path))
	return nil
}

// health issues the probe request, bounded by the given timeout.
func (c *Client) health(ctx context.Context, timeout time.Duration) error {
	q := url.Values{}
	q.Set("t", "health")
	q.Set("l", "1")
	q.Set("ledonly", "true")
	return c.get(ctx, "/text", q, timeout)
}

// Text scrolls msg for hold loops.
func (c *Client) Text(ctx context.Context, msg string, hold int) error {
	q := url.Values{}
	q.Set("t", msg)
	q.Set("l", strconv.Itoa(hold))
	q.Set("ledonly", "true")
	return c.get(ctx, "/text", q, 0)
}

func (c *Client) Weather(ctx context.Context, location string) error {
	q := url.Values{}
	q.Set("location", location)
	q.Set("ledonly", "true")
	return c.get(ctx, "/weather", q, 0)
}

func (c *Client) Clock(ctx context.Context) error {
	q := url.Values{}
	q.Set("12h", "true")
	q.Set("showSeconds", "true")
	q.Set("color", "green")
	q.Set("ledonly", "true")
	return c.get(ctx, "/clock", q, 0)
}

// Sports shows the scoreboard for a league. teams, when non-empty, is passed
// through so the controller scopes its rendering the same way we filtered.
func (c *Client) Sports(ctx context.Context, league string, teams []string) error {
	q := url.Values{}
	q.Set("ledonly", "true")
	if len(teams) > 0 {
		q.Set("teams", strings.Join(teams, ","))
	}
	return c.get(ctx, "/sports/"+url.PathEscape(league), q, 0)
}

func (c *Client) Stocks(ctx context.Context, tickers string) error {
	q := url.Values{}
	q.Set("tickers", tickers)
	q.Set("c", "blue")
	q.Set("s", "9")
	q.Set("ledonly", "true")
	return c.get(ctx, "/stocks", q, 0)
}

// Ticker scrolls an RSS feed; refreshSeconds matches the configured per-feed
// display duration.
func (c *Client) Ticker(ctx context.Context, feedURL string, refreshSeconds int) error {
	q := url.Values{}
	q.Set("start", "")
	q.Set("feed", feedURL)
	q.Set("c", "yellow")
	q.Set("s", "8")
	q.Set("newsTickerRefresh", strconv.Itoa(refreshSeconds))
	q.Set("ledonly", "true")
	return c.get(ctx, "/ticker", q, 0)
}
