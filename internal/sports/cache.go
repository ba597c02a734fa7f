// Package sports holds the time-bounded game cache and the team filter used
// by the sports display module.
package sports

import (
	"context"
	"sync"
	"time"

	"marqueed/internal/espn"
	logx "marqueed/pkg/logx"
)

// Fetcher pulls fresh scoreboard data for one league.
type Fetcher interface {
	Scoreboard(ctx context.Context, league, date string) ([]espn.Game, error)
}

// Cache keeps per-league game lists behind a fixed time-to-live. Refreshes
// replace the whole map; a failed per-league fetch keeps that league's
// previous value so a transient upstream outage never blanks a league that
// was working.
type Cache struct {
	fetch Fetcher
	ttl   time.Duration
	log   logx.Logger
	now   func() time.Time

	mu         sync.Mutex
	games      map[string][]espn.Game
	expiry     time.Time
	refreshing bool
}

// TTL is the fixed cache lifetime.
const TTL = 30 * time.Minute

func NewCache(f Fetcher, log logx.Logger) *Cache {
	return &Cache{
		fetch: f,
		ttl:   TTL,
		log:   log,
		now:   time.Now,
		games: map[string][]espn.Game{},
	}
}

// Refresh fetches fresh data for every league in leagues, unless the cache is
// still within its TTL. Individual fetch failures fall back to the league's
// previous value and never block the expiry advance, so a broken upstream is
// queried at most once per TTL window.
func (c *Cache) Refresh(ctx context.Context, date string, leagues []string) {
	c.mu.Lock()
	if c.now().Before(c.expiry) || c.refreshing {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	prev := c.games
	c.mu.Unlock()

	c.log.Debug("updating game cache", logx.String("date", date), logx.Int("leagues", len(leagues)))

	fresh := make(map[string][]espn.Game, len(leagues))
	for _, league := range leagues {
		games, err := c.fetch.Scoreboard(ctx, league, date)
		if err != nil {
			c.log.Error("scoreboard fetch failed; keeping previous data",
				logx.String("league", league), logx.Err(err))
			fresh[league] = prev[league]
			continue
		}
		fresh[league] = games
	}

	c.mu.Lock()
	c.games = fresh
	c.expiry = c.now().Add(c.ttl)
	c.refreshing = false
	c.mu.Unlock()

	c.log.Info("game cache updated", logx.Int("leagues", len(fresh)))
}

// Get returns the cached games for a league, or nil when the league was never
// fetched. A present-but-empty league is valid: there is nothing to show.
func (c *Cache) Get(league string) []espn.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.games[league]
}
