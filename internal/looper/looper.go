package looper

import (
	"context"
	"time"

	"marqueed/internal/config"
	logx "marqueed/pkg/logx"
)

const (
	bannerHoldUnits  = 10
	shutdownText     = "Shutdown"
	shutdownHoldSecs = 2
	dateLayout       = "20060102"
)

// Looper owns the top-level lifecycle: wait for a responsive controller,
// show the startup banner, then cycle the configured modules until the
// context is canceled. If the sequence resolves empty it idles on the
// banner instead.
type Looper struct {
	cfg      *config.Config
	disp     *Dispatcher
	prober   Prober
	display  Display
	log      logx.Logger
	fallback logx.Logger

	// interval is the re-probe cadence while the controller is down.
	interval time.Duration

	now func() time.Time
}

func New(cfg *config.Config, disp *Dispatcher, prober Prober, display Display, log, fallback logx.Logger) *Looper {
	interval := cfg.Pixelcade.HealthCheckInterval.Or(30 * time.Second)
	return &Looper{
		cfg:      cfg,
		disp:     disp,
		prober:   prober,
		display:  display,
		log:      log,
		fallback: fallback,
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until ctx is canceled. It never returns a non-nil error for an
// unresponsive controller; the daemon keeps retrying instead.
func (l *Looper) Run(ctx context.Context) error {
	l.log.Info("marqueed starting", logx.String("pixelcade", l.cfg.Pixelcade.URL))

	if !l.awaitHealthy(ctx) {
		return nil
	}
	l.showBanner(ctx)

	modules := l.cfg.Order.Modules()
	if len(modules) == 0 {
		l.log.Warn("module sequence is empty, idling on banner")
		l.idle(ctx)
		return nil
	}

	l.cycle(ctx, modules)
	l.log.Info("marqueed stopping")
	return nil
}

// awaitHealthy probes the controller until it responds, re-probing on the
// health check interval. Returns false when canceled first.
func (l *Looper) awaitHealthy(ctx context.Context) bool {
	for {
		err := l.prober.Probe(ctx)
		if err == nil {
			l.log.Info("pixelcade is responsive")
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		l.log.Warn("pixelcade not responding, will retry",
			logx.Duration("interval", l.interval), logx.Err(err))
		l.fallback.Info("pixelcade offline at startup")
		if !l.sleep(ctx, l.interval) {
			return false
		}
	}
}

// showBanner re-probes the controller, then displays the startup banner once
// and holds it on screen. The controller can drop between the healthy gate
// and here, so a failed probe records an outage and skips the banner.
// Banner failures are logged and otherwise ignored; the daemon moves on.
func (l *Looper) showBanner(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := l.prober.Probe(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		l.log.Warn("skipping startup banner, pixelcade is down", logx.Err(err))
		l.fallback.Info("cannot display startup banner: pixelcade offline after retries")
		return
	}
	banner := l.cfg.Startup.BannerText()
	if err := l.display.Text(ctx, banner, bannerHoldUnits); err != nil {
		l.log.Error("startup banner failed", logx.Err(err))
		return
	}
	l.log.Info("startup banner displayed", logx.String("text", banner))
	l.disp.hold(ctx, bannerHoldUnits)
}

// idle re-displays the banner on the health check cadence. This is the
// terminal state for an empty module sequence.
func (l *Looper) idle(ctx context.Context) {
	banner := l.cfg.Startup.BannerText()
	for {
		if !l.sleep(ctx, l.interval) {
			return
		}
		if err := l.prober.Probe(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("pixelcade not responding while idle", logx.Err(err))
			l.fallback.Info("pixelcade offline while idle")
			continue
		}
		if err := l.display.Text(ctx, banner, bannerHoldUnits); err != nil {
			l.log.Error("idle banner failed", logx.Err(err))
		}
	}
}

// cycle runs the module sequence round-robin forever. The scoreboard date is
// recomputed once per full pass so a pass that straddles midnight finishes on
// the date it started with.
func (l *Looper) cycle(ctx context.Context, modules []string) {
	current := ""
	for ctx.Err() == nil {
		date := l.now().Format(dateLayout)
		if date != current {
			if current != "" {
				l.log.Info("scoreboard date rolled over",
					logx.String("from", current), logx.String("to", date))
			}
			current = date
		}
		for _, m := range modules {
			if ctx.Err() != nil {
				return
			}
			l.disp.Dispatch(ctx, m, date)
		}
	}
}

// ShutdownNotice pushes a final text to the marquee, best effort. It is
// called after the run context is canceled, so callers pass a fresh bounded
// context.
func (l *Looper) ShutdownNotice(ctx context.Context) {
	if err := l.prober.Probe(ctx); err != nil {
		l.log.Debug("skipping shutdown notice, pixelcade unreachable", logx.Err(err))
		return
	}
	if err := l.display.Text(ctx, shutdownText, shutdownHoldSecs); err != nil {
		l.log.Debug("shutdown notice failed", logx.Err(err))
		return
	}
	l.log.Info("shutdown notice displayed")
}

func (l *Looper) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
