package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"marqueed/internal/config"
	"marqueed/internal/espn"
	"marqueed/internal/feeds"
	"marqueed/internal/looper"
	"marqueed/internal/pixelcade"
	"marqueed/internal/runtime/supervisor"
	"marqueed/internal/sports"
	logx "marqueed/pkg/logx"
)

// App wires the daemon together: config, logging, the pixelcade and ESPN
// clients, the game cache, and the module loop.
type App struct {
	cfg *config.Config
	sup *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	display *pixelcade.Client
	prober  *pixelcade.Prober
	cache   *sports.Cache
	loop    *looper.Looper

	cron *cron.Cron
}

func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Fallback: logx.FallbackConfig{
			Enabled:    cfg.Logging.Fallback.Enabled,
			Path:       cfg.Logging.Fallback.Path,
			RatePerSec: cfg.Logging.Fallback.RatePerSec,
		},
	})
	log = log.With(logx.String("comp", "app"))
	fallback := logSvc.Fallback()

	display := pixelcade.New(cfg.Pixelcade.URL,
		cfg.Pixelcade.Timeout.Or(5*time.Second),
		logSvc.Logger().With(logx.String("comp", "pixelcade")))

	prober := pixelcade.NewProber(display,
		cfg.Pixelcade.HealthCheckTimeout.Or(5*time.Second),
		logSvc.Logger().With(logx.String("comp", "prober")))

	scores := espn.New(cfg.ESPN.BaseURL,
		cfg.ESPN.Timeout.Or(5*time.Second),
		logSvc.Logger().With(logx.String("comp", "espn")))

	cache := sports.NewCache(scores, logSvc.Logger().With(logx.String("comp", "cache")))

	var checker looper.FeedChecker
	if cfg.News != nil && cfg.News.Preflight {
		checker = feeds.NewChecker(cfg.ESPN.Timeout.Or(5*time.Second),
			logSvc.Logger().With(logx.String("comp", "feeds")))
	}

	disp := looper.NewDispatcher(cfg, display, prober, cache, checker,
		logSvc.Logger().With(logx.String("comp", "dispatch")), fallback)

	loop := looper.New(cfg, disp, prober, display,
		logSvc.Logger().With(logx.String("comp", "looper")), fallback)

	return &App{
		cfg:     cfg,
		log:     log,
		logs:    logSvc,
		display: display,
		prober:  prober,
		cache:   cache,
		loop:    loop,
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	a.sup.Go("looper", func(c context.Context) error {
		return a.loop.Run(c)
	})

	// Optional cron-driven cache refresh keeps the scoreboard warm even when
	// the sports module is late in a long sequence.
	if a.cfg.Sports != nil && a.cfg.Sports.BackgroundRefresh {
		a.cron = cron.New()
		runCtx := a.sup.Context()
		_, err := a.cron.AddFunc("@every 30m", func() {
			if runCtx.Err() != nil {
				return
			}
			date := time.Now().Format("20060102")
			a.cache.Refresh(runCtx, date, a.cfg.Sports.EnabledLeagues(espn.LeagueKeys()))
		})
		if err != nil {
			return fmt.Errorf("schedule background refresh: %w", err)
		}
		a.cron.Start()
		a.log.Info("background scoreboard refresh scheduled")
	}

	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel the run context first so the loop unwinds mid-hold.
	a.sup.Cancel()

	// Bound each shutdown step so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				if rem := time.Until(dl); rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		if err := fn(stepCtx); err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name),
			logx.Duration("took", time.Since(start)))
	}

	if a.cron != nil {
		step("cron", time.Second, func(c context.Context) error {
			select {
			case <-a.cron.Stop().Done():
				return nil
			case <-c.Done():
				return c.Err()
			}
		})
	}

	step("looper", 5*time.Second, func(c context.Context) error {
		err := a.sup.Wait(c)
		if n := a.sup.Active(); n > 0 {
			a.log.Warn("goroutines still active after wait", logx.Int64("active", n))
		}
		return err
	})

	// Final marquee text, best effort, after the loop has released the display.
	step("shutdown notice", 3*time.Second, func(c context.Context) error {
		a.loop.ShutdownNotice(c)
		return nil
	})

	a.log.Info("stopped")
	if a.logs != nil {
		return a.logs.Close()
	}
	return nil
}
