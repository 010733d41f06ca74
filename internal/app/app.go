// Package app wires configuration, storage, generation, transport, the
// coordinator, and the scheduler into one runnable unit.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/time/rate"

	"leetdrip/internal/catalog"
	"leetdrip/internal/config"
	"leetdrip/internal/delivery"
	"leetdrip/internal/llm"
	"leetdrip/internal/mail"
	"leetdrip/internal/observability/metrics"
	"leetdrip/internal/schedule"
	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

type App struct {
	Cfg *config.Config
	Log logx.Logger

	Store       storage.Store
	Generator   llm.Client
	Provider    mail.Provider
	Sender      *mail.Sender
	Coordinator *delivery.Coordinator
	Scheduler   *schedule.Scheduler
	Metrics     *metrics.Metrics

	logCloser io.Closer
}

// New builds the full application from a loaded config. cfg must have passed
// Validate.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, closer, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	a := &App{Cfg: cfg, Log: log, logCloser: closer}

	busy, _ := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	a.Store, err = storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	// Without an API key the app still serves catalog and subscription
	// commands; runs will fail at the solve stage.
	if strings.TrimSpace(cfg.LLM.APIKey) != "" {
		a.Generator, err = llm.New(llm.Options{
			Provider:    cfg.LLM.Provider,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temp,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init generator: %w", err)
		}
	} else {
		log.Warn("llm.api_key not set; delivery runs will fail at generation")
	}

	a.Provider, err = mail.NewProvider(ctx, mail.Config{
		Provider:        cfg.Mail.Provider,
		From:            cfg.Mail.From,
		CredentialsJSON: cfg.Mail.CredentialsJSON,
		TelegramToken:   cfg.Mail.TelegramToken,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init mail provider: %w", err)
	}
	a.Sender = mail.NewSender(a.Provider, log)

	var emb delivery.Embellisher
	if cfg.LLM.Embellish {
		emb = llm.NewEmbellisher(time.Now().UnixNano())
	}
	var limiter *rate.Limiter
	if cfg.Delivery.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Delivery.RatePerSec), cfg.Delivery.RatePerSec)
	}

	pipe := delivery.NewPipeline(a.Generator, emb, a.Sender,
		delivery.EmbellishPolicy(cfg.Delivery.EmbellishPolicy), limiter, log)
	a.Coordinator = delivery.NewCoordinator(a.Store, a.Store, a.Store, pipe, delivery.Options{
		Workers:         cfg.Delivery.Workers,
		RunTimeout:      cfg.RunTimeout(),
		RandomSelection: strings.EqualFold(cfg.Delivery.Selection, "random"),
	}, log)

	a.Scheduler, err = schedule.New(a.Coordinator, schedule.Config{
		Hour:       cfg.Schedule.Hour,
		Minute:     cfg.Schedule.Minute,
		Location:   cfg.Location(),
		RunOnStart: cfg.Schedule.RunOnStart,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Scheduler.OnReport(a.Metrics.ObserveRun)
	}
	return a, nil
}

// Close releases storage and log sinks. Safe on a partially built App.
func (a *App) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// RunScheduler starts the long-lived daemon: metrics endpoint, catalog
// watcher, systemd readiness, and the cadence loop. Blocks until ctx is
// cancelled.
func (a *App) RunScheduler(ctx context.Context) error {
	if a.Metrics != nil {
		go func() {
			if err := a.Metrics.Serve(ctx, a.Cfg.Metrics.Addr, a.Log); err != nil {
				a.Log.Error("metrics server failed", logx.Err(err))
			}
		}()
	}
	if a.Cfg.Catalog.Watch {
		w := catalog.NewWatcher(a.Store, a.Cfg.Catalog.Path, a.Log)
		go func() {
			if err := w.Run(ctx); err != nil {
				a.Log.Error("catalog watcher failed", logx.Err(err))
			}
		}()
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.Log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.Log.Debug("sd_notify ready sent")
	}
	defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()

	if interval, err := daemon.SdWatchdogEnabled(false); err != nil {
		a.Log.Warn("watchdog detection failed", logx.Err(err))
	} else if interval > 0 {
		a.Log.Debug("systemd watchdog enabled", logx.Duration("interval", interval))
		go watchdogLoop(ctx, interval/2, func() {
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		})
	}

	return a.Scheduler.Run(ctx)
}

// watchdogLoop pings until ctx is cancelled. The caller picks an interval
// comfortably under the unit's WatchdogSec.
func watchdogLoop(ctx context.Context, interval time.Duration, ping func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ping()
		}
	}
}
