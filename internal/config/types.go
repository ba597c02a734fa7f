package config

import (
	"strings"
)

// Config is the full marqueed configuration. It is loaded once at startup
// and never mutated afterwards.
//
// Module sections (weather, clock, stocks, sports, news) are pointers so a
// missing section is distinguishable from a present-but-default one: a module
// named in order.sequence without a section is skipped with an info log.
type Config struct {
	DebugMode bool `json:"debug_mode,omitempty"`

	Pixelcade PixelcadeConfig `json:"pixelcade,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"`
	Startup   StartupConfig   `json:"startup,omitempty"`
	Order     OrderConfig     `json:"order,omitempty"`
	ESPN      ESPNConfig      `json:"espn,omitempty"`

	Weather *WeatherConfig `json:"weather,omitempty"`
	Clock   *ClockConfig   `json:"clock,omitempty"`
	Stocks  *StocksConfig  `json:"stocks,omitempty"`
	Sports  *SportsConfig  `json:"sports,omitempty"`
	News    *NewsConfig    `json:"news,omitempty"`
}

// PixelcadeConfig points marqueed at the display controller.
type PixelcadeConfig struct {
	// URL must be absolute (scheme + host). A trailing slash is stripped.
	URL string `json:"url,omitempty"`

	// HealthCheckInterval is the cadence for re-probing an unresponsive
	// controller. Accepts a Go duration string or a bare number of seconds.
	HealthCheckInterval Seconds `json:"health_check_interval,omitempty"`

	// HealthCheckTimeout bounds a single health probe attempt.
	HealthCheckTimeout Seconds `json:"health_check_timeout,omitempty"`

	// Timeout bounds every other display request.
	Timeout Seconds `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level,omitempty"`
	Console  *bool           `json:"console,omitempty"`
	File     LoggingFile     `json:"file,omitempty"`
	Fallback LoggingFallback `json:"fallback,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// LoggingFallback configures the secondary log that records only
// display-controller-offline events.
type LoggingFallback struct {
	Enabled    bool   `json:"enabled,omitempty"`
	Path       string `json:"path,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
}

func (l LoggingConfig) ConsoleEnabled() bool { return l.Console == nil || *l.Console }

type StartupConfig struct {
	Banner string `json:"banner,omitempty"`
}

func (s StartupConfig) BannerText() string {
	if b := strings.TrimSpace(s.Banner); b != "" {
		return b
	}
	return "Marqueed starting..."
}

type OrderConfig struct {
	// Sequence is a comma-separated list of module names, iterated in order.
	Sequence string `json:"sequence,omitempty"`
}

const defaultSequence = "weather,clock,sports,stocks,news"

// Modules returns the resolved module sequence.
func (o OrderConfig) Modules() []string {
	raw := o.Sequence
	if strings.TrimSpace(raw) == "" {
		raw = defaultSequence
	}
	return splitCSV(raw)
}

type ESPNConfig struct {
	BaseURL string  `json:"base_url,omitempty"`
	Timeout Seconds `json:"timeout,omitempty"`
}

// ModuleConfig holds the settings common to every display module.
type ModuleConfig struct {
	Enabled  *bool   `json:"enabled,omitempty"`
	Duration Seconds `json:"duration,omitempty"`
}

// IsEnabled reports whether the module should run. A present section defaults
// to enabled.
func (m ModuleConfig) IsEnabled() bool { return m.Enabled == nil || *m.Enabled }

// DisplayUnits resolves the module's display duration in whole time units.
// An unset duration falls back to def; a configured one is floored at a
// single unit, so a sub-second value still gets screen time.
func (m ModuleConfig) DisplayUnits(def int) int {
	if m.Duration <= 0 {
		return def
	}
	u := m.Duration.Units()
	if u < 1 {
		u = 1
	}
	return u
}

type WeatherConfig struct {
	ModuleConfig
	ZipCode string `json:"zip_code,omitempty"`
}

type ClockConfig struct {
	ModuleConfig
}

type StocksConfig struct {
	ModuleConfig
	Tickers string `json:"tickers,omitempty"`
}

type SportsConfig struct {
	ModuleConfig

	SecondsPerGame Seconds `json:"seconds_per_game,omitempty"`

	// UseTeamFilter enables per-league team filtering (default true).
	UseTeamFilter *bool `json:"use_team_filter,omitempty"`

	// EmptyFilterShowsAll decides what an empty configured team list means
	// while the filter is enabled: true (default) shows all games, false
	// shows none.
	EmptyFilterShowsAll *bool `json:"empty_filter_shows_all,omitempty"`

	// BackgroundRefresh schedules a cron job that refreshes the game cache
	// every TTL window instead of waiting for the sports module's turn.
	BackgroundRefresh bool `json:"background_refresh,omitempty"`

	// Leagues maps league keys (nfl, nba, ...) to enable flags.
	Leagues map[string]bool `json:"leagues,omitempty"`

	// Teams maps league keys to comma-separated team abbreviations.
	Teams map[string]string `json:"teams,omitempty"`
}

func (s *SportsConfig) PerGameUnits() int {
	if s.SecondsPerGame <= 0 {
		return 4
	}
	u := s.SecondsPerGame.Units()
	if u < 1 {
		u = 1
	}
	return u
}

func (s *SportsConfig) FilterEnabled() bool {
	return s.UseTeamFilter == nil || *s.UseTeamFilter
}

func (s *SportsConfig) EmptyFilterAll() bool {
	return s.EmptyFilterShowsAll == nil || *s.EmptyFilterShowsAll
}

func (s *SportsConfig) LeagueEnabled(key string) bool {
	return s.Leagues[key]
}

// TeamList returns the configured team abbreviations for a league.
func (s *SportsConfig) TeamList(key string) []string {
	return splitCSV(s.Teams[key])
}

// EnabledLeagues filters the given ordered league keys down to the enabled
// ones, preserving order.
func (s *SportsConfig) EnabledLeagues(ordered []string) []string {
	var out []string
	for _, k := range ordered {
		if s.Leagues[k] {
			out = append(out, k)
		}
	}
	return out
}

type NewsConfig struct {
	ModuleConfig

	RSSFeeds        string  `json:"rss_feeds,omitempty"`
	DurationPerFeed Seconds `json:"duration_per_feed,omitempty"`

	// MaxTotalRuntime caps the total time spent across feeds per cycle.
	// Zero means unlimited. The cap is checked before starting each feed;
	// a feed already in progress is never cut short.
	MaxTotalRuntime Seconds `json:"max_total_runtime,omitempty"`

	// Preflight parses each feed before display and skips dead or empty ones.
	Preflight bool `json:"preflight,omitempty"`
}

func (n *NewsConfig) FeedList() []string { return splitCSV(n.RSSFeeds) }

func (n *NewsConfig) PerFeedUnits() int {
	if n.DurationPerFeed <= 0 {
		return 60
	}
	u := n.DurationPerFeed.Units()
	if u < 1 {
		u = 1
	}
	return u
}

func (n *NewsConfig) MaxRuntimeUnits() int {
	u := n.MaxTotalRuntime.Units()
	if u < 0 {
		u = 0
	}
	return u
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
