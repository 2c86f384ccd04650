package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/furnibot/core/bootstrap"
	corecmd "github.com/m3rciful/furnibot/core/cmd"
	"github.com/m3rciful/furnibot/core/logger"
	"github.com/m3rciful/furnibot/core/metrics"
	tg "github.com/m3rciful/furnibot/core/telegram"
	"github.com/m3rciful/furnibot/core/telegram/format"
	"github.com/m3rciful/furnibot/core/telegram/router"
	"github.com/m3rciful/furnibot/core/telegram/state"
	"github.com/m3rciful/furnibot/internal/admin"
	"github.com/m3rciful/furnibot/internal/catalog"
	"github.com/m3rciful/furnibot/internal/config"
	"github.com/m3rciful/furnibot/internal/leads"
	"github.com/m3rciful/furnibot/internal/menu"
	"github.com/m3rciful/furnibot/migrations"

	tele "gopkg.in/telebot.v4"
)

const textRateLimited = "⏳ Слишком часто. Подождите секунду."

// App is the assembled bot: storage, conversation state and handlers.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	redis    *redis.Client
	metrics  *metrics.Metrics
	handlers *Handlers

	opsCancel context.CancelFunc
	opsDone   chan struct{}
	closeOnce sync.Once
}

// Bootstrap connects to PostgreSQL, applies migrations, optionally seeds
// the demo catalog and builds the handlers.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	var seeders []bootstrap.Seeder
	if cfg.Catalog.Seed {
		seeders = append(seeders, bootstrap.SeederFunc(catalog.SeedDemo))
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders:    seeders,
	})
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, db: res.DB, metrics: metrics.New()}
	metrics.Set(app.metrics)

	states, err := app.stateManager(ctx)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	style := format.For(cfg.Telegram.ParseMode)
	gate := admin.NewGate(admin.GateConfig{
		UserIDs:      cfg.Admin.UserIDs,
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
	})
	app.handlers = NewHandlers(Deps{
		Catalog: catalog.NewStore(res.DB),
		Leads:   leads.NewStore(res.DB),
		States:  states,
		Gate:    gate,
		Style:   style,
		Company: menu.Company{
			WhatsApp:  cfg.Company.WhatsApp,
			Telegram:  cfg.Company.Telegram,
			Developer: cfg.Company.Developer,
		},
		Reports: admin.Reports{Style: style, Loc: cfg.Location()},
	})

	logger.LogEvent(ctx, logger.L, slog.LevelInfo, "app.ready",
		slog.String("state_backend", cfg.State.Backend),
		slog.Bool("admin_enabled", gate.Enabled()),
		slog.Bool("admin_password", gate.NeedsPassword()),
		slog.Bool("seed", cfg.Catalog.Seed),
	)
	return app, nil
}

func (a *App) stateManager(ctx context.Context) (state.Manager, error) {
	if a.cfg.State.Backend != config.StateRedis {
		return state.NewMemoryManager(), nil
	}
	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("bot: redis ping %s: %w", a.cfg.Redis.Addr, err)
	}
	logger.LogEvent(ctx, logger.State, slog.LevelInfo, "state.backend",
		slog.String("status", logger.StatusOK),
		slog.String("backend", config.StateRedis),
		slog.String("addr", a.cfg.Redis.Addr),
	)
	return state.NewRedisManager(a.redis, a.cfg.State.Prefix, a.cfg.StateTTL()), nil
}

// TelegramRunOptions builds the route table and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		Gate:          a.handlers.Gate(),
		OnAdminReject: a.handlers.denied,
	})
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.TextRoutes(a.handlers.Machine(), reg, router.TextOptions{
		UnknownText:  func(c tele.Context) error { return send(c, menu.UnknownText, nil) },
		UnknownMedia: func(c tele.Context) error { return send(c, menu.UnknownMedia, nil) },
	})...)

	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:   core,
		Registry: reg,
		Middlewares: tg.DefaultMiddlewares(core, func(c tele.Context) error {
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: textRateLimited})
			}
			return nil
		}),
		Routes:  routes,
		OnStart: a.startOps,
		OnStop:  a.stopOps,
	}, nil
}

// startOps serves /metrics and /healthz when metrics.listen is set.
func (a *App) startOps(ctx context.Context, _ tg.Runtime) error {
	listen := a.cfg.Metrics.Listen
	if listen == "" {
		return nil
	}
	checks := map[string]metrics.Pinger{"postgres": a.db}
	if a.redis != nil {
		checks["redis"] = redisPinger{a.redis}
	}
	opsCtx, cancel := context.WithCancel(ctx)
	a.opsCancel = cancel
	a.opsDone = make(chan struct{})
	go func() {
		defer close(a.opsDone)
		if err := metrics.Serve(opsCtx, listen, metrics.Handler(a.metrics, checks)); err != nil {
			logger.LogEvent(opsCtx, logger.Ops, slog.LevelError, "ops.serve",
				slog.String("status", logger.StatusFail),
				logger.Err(err),
			)
		}
	}()
	return nil
}

func (a *App) stopOps(context.Context, tg.Runtime) error {
	if a.opsCancel == nil {
		return nil
	}
	a.opsCancel()
	<-a.opsDone
	return nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.redis != nil {
			errs = append(errs, a.redis.Close())
		}
		if a.db != nil {
			errs = append(errs, a.db.Close())
		}
	})
	return errors.Join(errs...)
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.c.Ping(ctx).Err()
}
