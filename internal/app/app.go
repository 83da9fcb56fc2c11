package app

import (
	"context"
	"time"

	"tgsched/internal/clock"
	"tgsched/internal/config"
	"tgsched/internal/delivery"
	"tgsched/internal/dialogs"
	"tgsched/internal/eventbus"
	"tgsched/internal/runtime/supervisor"
	"tgsched/internal/schedule"
	"tgsched/internal/storage"
	"tgsched/internal/topics"
	telegram "tgsched/internal/transport/telegram"
	logx "tgsched/pkg/logx"
)

// Deps carries optional collaborators the transport cannot provide itself.
// A userbot-grade backend can supply both listers; with a plain bot token
// the app still schedules and delivers, it just cannot browse.
type Deps struct {
	Dialogs dialogs.Lister
	Topics  topics.Lister
}

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store

	adapter *telegram.Adapter

	clk   *clock.Clock
	sched *schedule.Service
	deliv *delivery.Facade

	dials *dialogs.Service
	cache *topics.Cache
}

func New(cfgPath string, deps Deps) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(cfg.LogxConfig())
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	ad, err := telegram.New(telegram.Config{
		Token:           cfg.Telegram.Token,
		LongPollTimeout: cfg.PollTimeout(),
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	bus := eventbus.New()

	// Storage (optional)
	var store storage.Store
	if sc := cfg.StorageSettings(); sc.Driver != "" {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			logSvc.Close()
			return nil, err
		}
		store = st
		if store != nil {
			log.Info("delivery history enabled", logx.String("driver", sc.Driver))
		}
	}

	a := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		adapter: ad,
	}
	if deps.Dialogs != nil {
		a.dials = dialogs.NewService(deps.Dialogs)
	}
	if deps.Topics != nil {
		p := topics.NewPaginator(deps.Topics, cfg.Topics.PageSize,
			log.With(logx.String("comp", "topics")))
		a.cache = topics.NewCache(p)
	}
	return a, nil
}

// Start measures the clock offset, arms the scheduler and launches the
// background loops. It returns once the app is running.
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Get()
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// Clock correction happens once at startup; a failed or absent NTP
	// host leaves the offset at zero.
	offset := clock.Offset(a.sup.Context(), cfg.Clock.NTPHost,
		a.log.With(logx.String("comp", "clock")))
	a.clk = clock.New(offset)
	a.log.Info("clock ready", logx.Int64("offset_ms", offset.Milliseconds()))

	a.deliv = delivery.New(a.adapter, cfg.Scheduler.SendRatePerSec)
	a.sched = schedule.New(schedule.Config{CleanupInterval: cfg.CleanupInterval()},
		a.clk, a.deliv, a.bus,
		a.log.With(logx.String("comp", "schedule")))
	if err := a.sched.Start(); err != nil {
		return err
	}

	if a.dials != nil {
		if err := a.dials.Reload(a.sup.Context()); err != nil {
			a.log.Warn("initial dialog load failed", logx.Err(err))
		}
	}

	if a.store != nil {
		a.sup.Go0("history", func(ctx context.Context) { a.recordHistory(ctx) })
	}
	a.sup.GoRestart("config.watch", a.cfgm.Watch)
	a.sup.Go0("config.apply", func(ctx context.Context) { a.applyConfigUpdates(ctx) })

	a.log.Info("app started")
	return nil
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Scheduler exposes the job scheduler for embedding front ends.
func (a *App) Scheduler() *schedule.Service { return a.sched }

// Dialogs exposes the conversation directory; nil without a dialog lister.
func (a *App) Dialogs() *dialogs.Service { return a.dials }

// ReloadDialogs replaces the conversation set wholesale and drops every
// cached topic listing. A failed reload keeps the previous set and cache.
func (a *App) ReloadDialogs(ctx context.Context) error {
	if a.dials == nil {
		return nil
	}
	if err := a.dials.Reload(ctx); err != nil {
		return err
	}
	if a.cache != nil {
		a.cache.Clear()
	}
	return nil
}

// Topics exposes the forum topic cache; nil without a topic lister.
func (a *App) Topics() *topics.Cache { return a.cache }

// History returns the most recent delivery outcomes, newest first.
// Without storage it returns nothing.
func (a *App) History(ctx context.Context, limit int) ([]storage.HistoryEntry, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.RecentHistory(ctx, limit)
}

func (a *App) Stop(ctx context.Context) error {
	var firstErr error
	if a.sched != nil {
		if err := a.sched.Stop(ctx); err != nil {
			firstErr = err
			a.log.Warn("scheduler stop", logx.Err(err))
		}
	}
	if a.sup != nil {
		if err := a.sup.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.adapter != nil {
		if err := a.adapter.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.log.Info("app stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return firstErr
}

// recordHistory turns job outcome events into persistent history entries.
func (a *App) recordHistory(ctx context.Context) {
	events, unsub := a.bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var outcome string
			switch ev.Type {
			case schedule.EventDelivered:
				outcome = "delivered"
			case schedule.EventFailed:
				outcome = "failed"
			case schedule.EventCancelled:
				outcome = "cancelled"
			default:
				continue
			}
			je, ok := ev.Data.(schedule.JobEvent)
			if !ok {
				continue
			}
			wctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := a.store.AppendHistory(wctx, storage.HistoryEntry{
				At:       ev.Time,
				JobID:    je.ID,
				ChatID:   je.ChatID,
				TopicID:  je.TopicID,
				Label:    je.Label,
				Outcome:  outcome,
				Category: je.Category,
			})
			cancel()
			if err != nil {
				a.log.Warn("history append failed", logx.String("job", je.ID), logx.Err(err))
			}
		}
	}
}

// applyConfigUpdates consumes hot reloads. Logging changes apply live;
// sections that are wired at startup only get a restart warning.
func (a *App) applyConfigUpdates(ctx context.Context) {
	sub := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(sub)
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			if newCfg == nil {
				continue
			}
			a.logs.Apply(newCfg.LogxConfig())

			if last != nil {
				if newCfg.Telegram != last.Telegram {
					a.log.Warn("telegram config changed; restart required for changes to take effect")
				}
				if restartOnly(last, newCfg) {
					a.log.Warn("scheduler/storage config changed; restart required for changes to take effect")
				}
			}
			last = newCfg
			a.log.Info("config applied")
		}
	}
}

func restartOnly(prev, next *config.Config) bool {
	if prev.Scheduler != next.Scheduler || prev.Clock != next.Clock || prev.Topics != next.Topics {
		return true
	}
	if (prev.Storage == nil) != (next.Storage == nil) {
		return true
	}
	return prev.Storage != nil && *prev.Storage != *next.Storage
}
