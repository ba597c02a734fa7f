package looper

import (
	"context"
	"errors"
	"time"

	"marqueed/internal/config"
	"marqueed/internal/espn"
	"marqueed/internal/sports"
	logx "marqueed/pkg/logx"
)

// Display is the outbound surface of the display controller.
type Display interface {
	Text(ctx context.Context, msg string, hold int) error
	Weather(ctx context.Context, location string) error
	Clock(ctx context.Context) error
	Sports(ctx context.Context, league string, teams []string) error
	Stocks(ctx context.Context, tickers string) error
	Ticker(ctx context.Context, feedURL string, refreshSeconds int) error
}

// Prober reports controller liveness; a nil return means responsive.
type Prober interface {
	Probe(ctx context.Context) error
}

// GameSource is the time-bounded game cache.
type GameSource interface {
	Refresh(ctx context.Context, date string, leagues []string)
	Get(league string) []espn.Game
}

// FeedChecker preflights a news feed. A nil checker disables preflight.
type FeedChecker interface {
	Check(ctx context.Context, feedURL string) error
}

// Dispatcher runs one display module at a time: health gate, enabled gate,
// one outbound display call, then a cancellable hold for the module's
// duration. Display failures abandon the module for this cycle only.
type Dispatcher struct {
	cfg      *config.Config
	display  Display
	prober   Prober
	games    GameSource
	feeds    FeedChecker
	log      logx.Logger
	fallback logx.Logger

	// tick is one display time unit. Tests shrink it.
	tick time.Duration
}

func NewDispatcher(cfg *config.Config, display Display, prober Prober, games GameSource, feeds FeedChecker, log, fallback logx.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:      cfg,
		display:  display,
		prober:   prober,
		games:    games,
		feeds:    feeds,
		log:      log,
		fallback: fallback,
		tick:     time.Second,
	}
}

// Dispatch runs a single module by name. Preconditions, in order: the
// cancellation context is still live, the controller is responsive (through
// the prober's retry budget), and the module is configured and enabled.
func (d *Dispatcher) Dispatch(ctx context.Context, module, date string) {
	if ctx.Err() != nil {
		return
	}

	if err := d.prober.Probe(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		d.log.Warn("skipping module, pixelcade is down", logx.String("module", module), logx.Err(err))
		d.fallback.Info("cannot display module: pixelcade offline after retries", logx.String("module", module))
		return
	}

	switch module {
	case "weather":
		d.showWeather(ctx)
	case "clock":
		d.showClock(ctx)
	case "sports":
		d.showSports(ctx, date)
	case "stocks":
		d.showStocks(ctx)
	case "news":
		d.showNews(ctx)
	default:
		d.log.Warn("unknown module in sequence", logx.String("module", module))
	}
}

// hold blocks for the given number of display units, one tick at a time,
// observing cancellation inside every tick. Returns false when canceled.
func (d *Dispatcher) hold(ctx context.Context, units int) bool {
	if units < 1 {
		units = 1
	}
	for i := 0; i < units; i++ {
		t := time.NewTimer(d.tick)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
	}
	return true
}

// skipUnconfigured logs the missing-section skip. Policy: a module named in
// order.sequence without a config section is skipped, not defaulted.
func (d *Dispatcher) skipUnconfigured(module string) {
	d.log.Info("module has no configuration section, skipping", logx.String("module", module))
}

func (d *Dispatcher) skipDisabled(module string) {
	d.log.Info("module is disabled, skipping", logx.String("module", module))
}

func (d *Dispatcher) showWeather(ctx context.Context) {
	wc := d.cfg.Weather
	if wc == nil {
		d.skipUnconfigured("weather")
		return
	}
	if !wc.IsEnabled() {
		d.skipDisabled("weather")
		return
	}
	if wc.ZipCode == "" {
		d.log.Warn("weather module has no zip_code, skipping")
		return
	}
	if err := d.display.Weather(ctx, wc.ZipCode); err != nil {
		d.log.Error("weather display failed", logx.Err(err))
		return
	}
	units := wc.DisplayUnits(10)
	d.log.Debug("weather displayed", logx.String("zip", wc.ZipCode), logx.Int("units", units))
	d.hold(ctx, units)
}

func (d *Dispatcher) showClock(ctx context.Context) {
	cc := d.cfg.Clock
	if cc == nil {
		d.skipUnconfigured("clock")
		return
	}
	if !cc.IsEnabled() {
		d.skipDisabled("clock")
		return
	}
	if err := d.display.Clock(ctx); err != nil {
		d.log.Error("clock display failed", logx.Err(err))
		return
	}
	d.hold(ctx, cc.DisplayUnits(10))
}

func (d *Dispatcher) showStocks(ctx context.Context) {
	sc := d.cfg.Stocks
	if sc == nil {
		d.skipUnconfigured("stocks")
		return
	}
	if !sc.IsEnabled() {
		d.skipDisabled("stocks")
		return
	}
	if sc.Tickers == "" {
		d.log.Warn("stocks module has no tickers, skipping")
		return
	}
	if err := d.display.Stocks(ctx, sc.Tickers); err != nil {
		d.log.Error("stocks display failed", logx.Err(err))
		return
	}
	d.hold(ctx, sc.DisplayUnits(10))
}

// showSports refreshes the game cache, then walks the supported leagues in
// their fixed declared order. Each league is independently skipped when
// disabled or empty; a league's display time scales with its game count.
func (d *Dispatcher) showSports(ctx context.Context, date string) {
	sc := d.cfg.Sports
	if sc == nil {
		d.skipUnconfigured("sports")
		return
	}
	if !sc.IsEnabled() {
		d.skipDisabled("sports")
		return
	}

	d.games.Refresh(ctx, date, sc.EnabledLeagues(espn.LeagueKeys()))

	per := sc.PerGameUnits()
	for _, league := range espn.LeagueKeys() {
		if ctx.Err() != nil {
			return
		}
		if !sc.LeagueEnabled(league) {
			d.log.Debug("league disabled, skipping", logx.String("league", league))
			continue
		}

		games := d.games.Get(league)
		if len(games) == 0 {
			d.log.Warn("no games for league, check date or API",
				logx.String("league", league), logx.String("date", date))
			continue
		}

		var reqTeams []string
		if sc.FilterEnabled() {
			teams := sc.TeamList(league)
			games = sports.FilterByTeams(games, teams, sc.EmptyFilterAll())
			if len(teams) > 0 {
				reqTeams = teams
			}
			if len(games) == 0 {
				d.log.Debug("no games left after team filter", logx.String("league", league))
				continue
			}
		}

		if err := d.display.Sports(ctx, league, reqTeams); err != nil {
			d.log.Error("sports display failed", logx.String("league", league), logx.Err(err))
			return
		}

		units := len(games) * per
		if units < per {
			units = per
		}
		d.log.Debug("league displayed",
			logx.String("league", league), logx.Int("games", len(games)), logx.Int("units", units))
		if !d.hold(ctx, units) {
			return
		}
	}
}

// showNews walks the configured feed list. The total-runtime cap is checked
// before each feed; a feed already on screen is never cut short by it. A
// single feed's failure skips only that feed.
func (d *Dispatcher) showNews(ctx context.Context) {
	nc := d.cfg.News
	if nc == nil {
		d.skipUnconfigured("news")
		return
	}
	if !nc.IsEnabled() {
		d.skipDisabled("news")
		return
	}

	feedList := nc.FeedList()
	if len(feedList) == 0 {
		d.log.Warn("no RSS feeds configured for news module")
		return
	}

	per := nc.PerFeedUnits()
	maxTotal := nc.MaxRuntimeUnits()

	elapsed := 0
	for _, feedURL := range feedList {
		if ctx.Err() != nil {
			return
		}
		if maxTotal > 0 && elapsed >= maxTotal {
			d.log.Debug("news module reached max runtime",
				logx.Int("elapsed", elapsed), logx.Int("max", maxTotal))
			break
		}

		if nc.Preflight && d.feeds != nil {
			if err := d.feeds.Check(ctx, feedURL); err != nil {
				d.log.Warn("feed preflight failed, skipping", logx.String("feed", feedURL), logx.Err(err))
				continue
			}
		}

		if err := d.display.Ticker(ctx, feedURL, per); err != nil {
			d.log.Error("news feed display failed", logx.String("feed", feedURL), logx.Err(err))
			continue
		}
		d.log.Info("news feed displayed", logx.String("feed", feedURL))

		if !d.hold(ctx, per) {
			return
		}
		elapsed += per
	}
	d.log.Debug("news module completed", logx.Int("elapsed", elapsed))
}
