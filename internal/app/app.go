// Package app assembles craftbot: storage, sessions, the AI generators, the
// listing flow and the Telegram wiring around it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/craftbot/core/bootstrap"
	"github.com/m3rciful/craftbot/core/logger"
	coretelegram "github.com/m3rciful/craftbot/core/telegram"
	tghelpers "github.com/m3rciful/craftbot/core/telegram/helpers"
	"github.com/m3rciful/craftbot/core/telegram/router"
	tgsender "github.com/m3rciful/craftbot/core/telegram/sender"
	"github.com/m3rciful/craftbot/internal/ai"
	"github.com/m3rciful/craftbot/internal/bot"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

const rateLimitedText = "You're sending messages too quickly. Please wait a moment."

// generator produces both spec questions and descriptions.
type generator interface {
	flow.QuestionGenerator
	flow.DescriptionGenerator
}

// App owns the long-lived components of a running bot.
type App struct {
	cfg *Config
	db  *sqlx.DB

	store      *session.Store
	fetcher    *bot.FileFetcher
	gemini     *ai.Gemini
	dispatcher *tgsender.Dispatcher
	handler    *bot.Handler

	mu          sync.Mutex
	stopSweeper context.CancelFunc
}

// New runs the bootstrap pipeline and assembles the application.
func New(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	a, err := assemble(ctx, cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

func assemble(ctx context.Context, cfg *Config, db *sqlx.DB) (*App, error) {
	a := &App{
		cfg:     cfg,
		db:      db,
		store:   session.NewStore(cfg.Session.IdleTimeout, session.SystemClock),
		fetcher: &bot.FileFetcher{},
		dispatcher: tgsender.NewDispatcher(tgsender.Options{
			MaxRetries: 3,
		}),
	}

	var gen generator = ai.Static{}
	aiState := func() string { return "static templates" }
	if cfg.AI.GeminiAPIKey != "" {
		g, err := ai.NewGemini(ctx, ai.Config{
			APIKey:          cfg.AI.GeminiAPIKey,
			Model:           cfg.AI.Model,
			Temperature:     cfg.AI.Temperature,
			BreakerTimeout:  cfg.AI.BreakerTimeout,
			BreakerFailures: cfg.AI.BreakerFailures,
		}, a.fetcher)
		if err != nil {
			a.dispatcher.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		a.gemini = g
		gen = g
		aiState = func() string {
			return fmt.Sprintf("%s (breaker %s)", g.Model(), g.BreakerState())
		}
	}
	logger.Info(ctx, "ai", "ai.init",
		slog.String("status", "ok"),
		slog.Bool("gemini", a.gemini != nil),
	)

	repo := product.NewRepository(db)
	orch := flow.NewOrchestrator(a.store, gen, gen, repo, flow.Config{
		AITimeout:   cfg.AI.Timeout,
		SaveTimeout: cfg.Storage.SaveTimeout,
	})

	a.handler = bot.NewHandler(bot.Options{
		Flow:     orch,
		Listings: repo,
		AdminID:  cfg.Telegram.AdminID,
		AIState:  aiState,
		SenderStats: func() (uint64, uint64) {
			return a.dispatcher.SentCount(), a.dispatcher.ErrorCount()
		},
	})
	return a, nil
}

// TelegramRunOptions wires commands, buttons and the conversation into the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	if err := a.handler.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: a.cfg.Telegram.AdminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(reg, router.MessageOptions{
		Conversation: a.handler.Converse,
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, onRateLimited),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func onRateLimited(c tele.Context) error {
	return tghelpers.SendText(c, rateLimitedText)
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	a.fetcher.Bind(rt.Bot)

	sweepCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.stopSweeper = cancel
	a.mu.Unlock()
	go a.store.RunSweeper(sweepCtx, a.cfg.Session.SweepInterval)

	logger.Info(ctx, "app", "app.start",
		slog.String("status", "ok"),
		slog.Duration("idle_timeout", a.cfg.Session.IdleTimeout),
	)
	return nil
}

func (a *App) stop(ctx context.Context, _ coretelegram.Runtime) error {
	a.mu.Lock()
	if a.stopSweeper != nil {
		a.stopSweeper()
		a.stopSweeper = nil
	}
	a.mu.Unlock()

	var errs []error
	if a.gemini != nil {
		if err := a.gemini.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gemini: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	err := errors.Join(errs...)
	logger.Info(ctx, "app", "app.stop",
		slog.String("status", logger.Status(err)),
		slog.Int("sessions", a.store.Len()),
	)
	return err
}
