package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/craftbot/core/config"
	"github.com/m3rciful/craftbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared global chain: panic recovery, update
// logging (so later stages log with a rid), per-user rate limiting when
// configured, and reply counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}

	if rl := rateLimit(cfg, onLimited); rl != nil {
		mws = append(mws, Middleware{Name: "rate_limit", Use: rl})
	}

	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}

func rateLimit(cfg *coreconfig.Config, onLimited func(tele.Context) error) tele.MiddlewareFunc {
	if cfg == nil {
		return nil
	}
	interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
	if interval <= 0 {
		return nil
	}
	ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, t := range cfg.RateLimit.ExcludeUpdates {
		ex[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return middleware.RateLimitMiddleware(middleware.RateLimitOptions{
		Interval:  interval,
		Exclude:   ex,
		OnLimited: onLimited,
	})
}
