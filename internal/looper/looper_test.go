package looper

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"marqueed/internal/config"
	"marqueed/internal/espn"
	logx "marqueed/pkg/logx"
)

type call struct {
	op     string
	league string
	teams  []string
	feed   string
	text   string
}

type fakeDisplay struct {
	mu    sync.Mutex
	calls []call
	fail  map[string]error
}

func (f *fakeDisplay) record(c call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	if f.fail != nil {
		return f.fail[c.op]
	}
	return nil
}

func (f *fakeDisplay) Text(_ context.Context, msg string, _ int) error {
	return f.record(call{op: "text", text: msg})
}
func (f *fakeDisplay) Weather(_ context.Context, _ string) error {
	return f.record(call{op: "weather"})
}
func (f *fakeDisplay) Clock(_ context.Context) error { return f.record(call{op: "clock"}) }
func (f *fakeDisplay) Sports(_ context.Context, league string, teams []string) error {
	return f.record(call{op: "sports", league: league, teams: teams})
}
func (f *fakeDisplay) Stocks(_ context.Context, _ string) error {
	return f.record(call{op: "stocks"})
}
func (f *fakeDisplay) Ticker(_ context.Context, feed string, _ int) error {
	return f.record(call{op: "ticker", feed: feed})
}

func (f *fakeDisplay) ops(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeDisplay) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeProber struct {
	mu    sync.Mutex
	errs  []error // consumed in order; empty means responsive
	calls int
}

func (f *fakeProber) Probe(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

type fakeGames struct {
	mu        sync.Mutex
	byLeague  map[string][]espn.Game
	refreshes int
}

func (f *fakeGames) Refresh(_ context.Context, _ string, _ []string) {
	f.mu.Lock()
	f.refreshes++
	f.mu.Unlock()
}

func (f *fakeGames) Get(league string) []espn.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byLeague[league]
}

type fakeFeeds struct {
	bad map[string]bool
}

func (f *fakeFeeds) Check(_ context.Context, feedURL string) error {
	if f.bad[feedURL] {
		return errors.New("feed unreachable")
	}
	return nil
}

func game(abbrs ...string) espn.Game {
	var comps []espn.Competitor
	for _, a := range abbrs {
		comps = append(comps, espn.Competitor{Team: espn.Team{Abbreviation: a}})
	}
	return espn.Game{Competitions: []espn.Competition{{Competitors: comps}}}
}

func boolPtr(b bool) *bool { return &b }

func newTestDispatcher(cfg *config.Config, d Display, p Prober, g GameSource, fc FeedChecker, fb logx.Logger) *Dispatcher {
	disp := NewDispatcher(cfg, d, p, g, fc, logx.Nop(), fb)
	disp.tick = time.Millisecond
	return disp
}

func TestDispatchHealthGate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fb := logx.NewWriter(&buf, "info")

	display := &fakeDisplay{}
	prober := &fakeProber{errs: []error{errors.New("unresponsive")}}
	cfg := &config.Config{Clock: &config.ClockConfig{}}

	disp := newTestDispatcher(cfg, display, prober, &fakeGames{}, nil, fb)
	disp.Dispatch(context.Background(), "clock", "20260829")

	if got := display.total(); got != 0 {
		t.Fatalf("display calls = %d, want 0 when pixelcade is down", got)
	}
	if !strings.Contains(buf.String(), "pixelcade offline") {
		t.Fatalf("fallback log missing offline record: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "clock") {
		t.Fatalf("fallback record should name the skipped module: %q", buf.String())
	}
}

func TestHoldObservesCancellation(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	disp := NewDispatcher(cfg, &fakeDisplay{}, &fakeProber{}, &fakeGames{}, nil, logx.Nop(), logx.Nop())
	disp.tick = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if disp.hold(ctx, 600) {
		t.Fatal("hold returned true on canceled context")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("hold took %v to observe cancellation", elapsed)
	}
}

func TestDispatchSkipsUnconfiguredAndDisabled(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	cfg := &config.Config{
		Weather: nil, // no section at all
		Stocks: &config.StocksConfig{
			ModuleConfig: config.ModuleConfig{Enabled: boolPtr(false)},
			Tickers:      "AAPL",
		},
	}
	disp := newTestDispatcher(cfg, display, &fakeProber{}, &fakeGames{}, nil, logx.Nop())

	disp.Dispatch(context.Background(), "weather", "20260829")
	disp.Dispatch(context.Background(), "stocks", "20260829")

	if got := display.total(); got != 0 {
		t.Fatalf("display calls = %d, want 0 for unconfigured/disabled modules", got)
	}
}

func TestSportsDispatch(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	games := &fakeGames{byLeague: map[string][]espn.Game{
		"nfl": {game("GB", "CHI"), game("DET", "MIN")},
		"nba": nil, // enabled but empty scoreboard
	}}
	cfg := &config.Config{Sports: &config.SportsConfig{
		SecondsPerGame: config.Seconds(time.Second),
		Leagues:        map[string]bool{"nfl": true, "nba": true},
		Teams:          map[string]string{"nfl": "GB"},
	}}

	disp := newTestDispatcher(cfg, display, &fakeProber{}, games, nil, logx.Nop())
	disp.Dispatch(context.Background(), "sports", "20260829")

	if games.refreshes != 1 {
		t.Fatalf("cache refreshes = %d, want 1", games.refreshes)
	}
	calls := display.ops("sports")
	if len(calls) != 1 {
		t.Fatalf("sports display calls = %d, want 1 (nba is empty)", len(calls))
	}
	if calls[0].league != "nfl" {
		t.Fatalf("league = %q, want nfl", calls[0].league)
	}
	if len(calls[0].teams) != 1 || calls[0].teams[0] != "GB" {
		t.Fatalf("teams = %v, want [GB]", calls[0].teams)
	}
}

func TestSportsFilterRemovesAllGames(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	games := &fakeGames{byLeague: map[string][]espn.Game{
		"nfl": {game("DET", "MIN")},
	}}
	cfg := &config.Config{Sports: &config.SportsConfig{
		Leagues: map[string]bool{"nfl": true},
		Teams:   map[string]string{"nfl": "GB"},
	}}

	disp := newTestDispatcher(cfg, display, &fakeProber{}, games, nil, logx.Nop())
	disp.Dispatch(context.Background(), "sports", "20260829")

	if got := len(display.ops("sports")); got != 0 {
		t.Fatalf("sports display calls = %d, want 0 when filter matches nothing", got)
	}
}

func TestSportsEmptyFilterPolicy(t *testing.T) {
	t.Parallel()

	games := &fakeGames{byLeague: map[string][]espn.Game{
		"nhl": {game("COL", "VGK")},
	}}

	for _, tc := range []struct {
		name     string
		showsAll *bool
		want     int
	}{
		{"default shows all", nil, 1},
		{"explicit shows none", boolPtr(false), 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			display := &fakeDisplay{}
			cfg := &config.Config{Sports: &config.SportsConfig{
				EmptyFilterShowsAll: tc.showsAll,
				Leagues:             map[string]bool{"nhl": true},
			}}
			disp := newTestDispatcher(cfg, display, &fakeProber{}, games, nil, logx.Nop())
			disp.Dispatch(context.Background(), "sports", "20260829")

			if got := len(display.ops("sports")); got != tc.want {
				t.Fatalf("sports display calls = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNewsRuntimeCap(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	cfg := &config.Config{News: &config.NewsConfig{
		RSSFeeds:        "http://a/rss, http://b/rss, http://c/rss",
		DurationPerFeed: config.Seconds(2 * time.Second),
		MaxTotalRuntime: config.Seconds(3 * time.Second),
	}}

	disp := newTestDispatcher(cfg, display, &fakeProber{}, &fakeGames{}, nil, logx.Nop())
	disp.Dispatch(context.Background(), "news", "20260829")

	// Feed one ends at elapsed 2 (< 3, so feed two starts), feed two ends at
	// elapsed 4 (>= 3, so feed three never starts).
	calls := display.ops("ticker")
	if len(calls) != 2 {
		t.Fatalf("ticker calls = %d, want 2 under runtime cap", len(calls))
	}
	if calls[0].feed != "http://a/rss" || calls[1].feed != "http://b/rss" {
		t.Fatalf("wrong feeds displayed: %v", calls)
	}
}

func TestNewsPreflightSkipsDeadFeed(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	feeds := &fakeFeeds{bad: map[string]bool{"http://dead/rss": true}}
	cfg := &config.Config{News: &config.NewsConfig{
		RSSFeeds:        "http://dead/rss, http://live/rss",
		DurationPerFeed: config.Seconds(time.Second),
		Preflight:       true,
	}}

	disp := newTestDispatcher(cfg, display, &fakeProber{}, &fakeGames{}, feeds, logx.Nop())
	disp.Dispatch(context.Background(), "news", "20260829")

	calls := display.ops("ticker")
	if len(calls) != 1 || calls[0].feed != "http://live/rss" {
		t.Fatalf("ticker calls = %v, want only the live feed", calls)
	}
}

func TestNewsDisplayErrorSkipsFeedOnly(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{fail: map[string]error{"ticker": errors.New("500")}}
	cfg := &config.Config{News: &config.NewsConfig{
		RSSFeeds:        "http://a/rss, http://b/rss",
		DurationPerFeed: config.Seconds(time.Second),
	}}

	disp := newTestDispatcher(cfg, display, &fakeProber{}, &fakeGames{}, nil, logx.Nop())
	disp.Dispatch(context.Background(), "news", "20260829")

	if got := len(display.ops("ticker")); got != 2 {
		t.Fatalf("ticker calls = %d, want 2 (failures skip a feed, not the module)", got)
	}
}

func newTestLooper(cfg *config.Config, display *fakeDisplay, prober Prober) *Looper {
	disp := NewDispatcher(cfg, display, prober, &fakeGames{}, nil, logx.Nop(), logx.Nop())
	disp.tick = time.Millisecond
	l := New(cfg, disp, prober, display, logx.Nop(), logx.Nop())
	l.interval = time.Millisecond
	return l
}

func TestRunBannerThenCycle(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	prober := &fakeProber{errs: []error{errors.New("booting")}} // down once, then up
	cfg := &config.Config{
		Order: config.OrderConfig{Sequence: "weather,clock"},
		Clock: &config.ClockConfig{ModuleConfig: config.ModuleConfig{Duration: config.Seconds(time.Second)}},
		Weather: &config.WeatherConfig{
			ModuleConfig: config.ModuleConfig{Enabled: boolPtr(false)},
			ZipCode:      "53202",
		},
	}
	l := newTestLooper(cfg, display, prober)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for len(display.ops("clock")) < 2 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for cycle to run")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	texts := display.ops("text")
	if len(texts) == 0 || texts[0].text != "Marqueed starting..." {
		t.Fatalf("banner not shown first: %v", texts)
	}
	if got := len(display.ops("weather")); got != 0 {
		t.Fatalf("weather calls = %d, want 0 for a disabled module", got)
	}
}

func TestBannerSkippedWhenControllerDrops(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fb := logx.NewWriter(&buf, "info")

	display := &fakeDisplay{}
	// Healthy for the startup gate, gone again by banner time, back for the cycle.
	prober := &fakeProber{errs: []error{nil, errors.New("dropped")}}
	cfg := &config.Config{
		Order: config.OrderConfig{Sequence: "clock"},
		Clock: &config.ClockConfig{ModuleConfig: config.ModuleConfig{Duration: config.Seconds(time.Second)}},
	}
	disp := NewDispatcher(cfg, display, prober, &fakeGames{}, nil, logx.Nop(), logx.Nop())
	disp.tick = time.Millisecond
	l := New(cfg, disp, prober, display, logx.Nop(), fb)
	l.interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for len(display.ops("clock")) < 1 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the cycle to start")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	if texts := display.ops("text"); len(texts) != 0 {
		t.Fatalf("text calls = %v, want none when the banner probe fails", texts)
	}
	if !strings.Contains(buf.String(), "banner") {
		t.Fatalf("fallback log missing skipped-banner record: %q", buf.String())
	}
}

func TestRunExitsWhileAwaitingHealthy(t *testing.T) {
	t.Parallel()

	display := &fakeDisplay{}
	prober := &alwaysDownProber{}
	cfg := &config.Config{}
	l := newTestLooper(cfg, display, prober)
	l.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit promptly on cancellation")
	}
	if got := display.total(); got != 0 {
		t.Fatalf("display calls = %d, want 0 while unhealthy", got)
	}
}

type alwaysDownProber struct{}

func (alwaysDownProber) Probe(context.Context) error { return errors.New("down") }

func TestShutdownNotice(t *testing.T) {
	t.Parallel()

	t.Run("responsive", func(t *testing.T) {
		display := &fakeDisplay{}
		l := newTestLooper(&config.Config{}, display, &fakeProber{})
		l.ShutdownNotice(context.Background())

		texts := display.ops("text")
		if len(texts) != 1 || texts[0].text != "Shutdown" {
			t.Fatalf("shutdown texts = %v, want one %q", texts, "Shutdown")
		}
	})

	t.Run("unresponsive", func(t *testing.T) {
		display := &fakeDisplay{}
		l := newTestLooper(&config.Config{}, display, alwaysDownProber{})
		l.ShutdownNotice(context.Background())

		if got := display.total(); got != 0 {
			t.Fatalf("display calls = %d, want 0 when pixelcade is gone", got)
		}
	})
}
