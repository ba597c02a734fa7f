// Package espn reads the upstream scoreboard API: one read-only HTTP endpoint
// per league, queried by league path segment and a YYYYMMDD date.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	logx "marqueed/pkg/logx"
)

// Game is one scoreboard event. Only the fields the looper needs are decoded;
// everything else upstream sends is ignored.
type Game struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Competitions []Competition `json:"competitions"`
}

type Competition struct {
	Competitors []Competitor `json:"competitors"`
}

type Competitor struct {
	Team Team `json:"team"`
}

type Team struct {
	Abbreviation string `json:"abbreviation"`
}

// HasAnyTeam reports whether any competitor's abbreviation matches one of
// abbrs exactly.
func (g Game) HasAnyTeam(abbrs []string) bool {
	if len(g.Competitions) == 0 {
		return false
	}
	for _, comp := range g.Competitions[0].Competitors {
		for _, a := range abbrs {
			if comp.Team.Abbreviation == a {
				return true
			}
		}
	}
	return false
}

type scoreboard struct {
	Events []Game `json:"events"`
}

type Client struct {
	base    string
	http    *http.Client
	timeout time.Duration
	log     logx.Logger
}

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

// Scoreboard fetches the events for one league on one date (YYYYMMDD).
func (c *Client) Scoreboard(ctx context.Context, league, date string) ([]Game, error) {
	path, ok := LeaguePath(league)
	if !ok {
		return nil, fmt.Errorf("espn: unsupported league %q", league)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("%s/%s/scoreboard?dates=%s", c.base, path, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("espn: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("espn: %s: %w", league, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("espn: %s returned %s", league, resp.Status)
	}

	var sb scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&sb); err != nil {
		return nil, fmt.Errorf("espn: %s: decode: %w", league, err)
	}
	c.log.Debug("scoreboard fetched", logx.String("league", league), logx.Int("games", len(sb.Events)))
	return sb.Events, nil
}
