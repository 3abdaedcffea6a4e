package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/craftbot/core/telegram"
	"github.com/m3rciful/craftbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions configures routing of free-form messages.
type MessageOptions struct {
	// Conversation receives every text, photo and document that is not a
	// registered command. When nil, messages fall through to the registry's
	// text fallback.
	Conversation tele.HandlerFunc
	// Name labels conversation handler summaries; defaults to "conversation".
	Name string
}

// MessageRoutes builds handlers for text, photo and document updates.
// Texts naming a registered command or alias are dispatched to that command
// first, so aliases work without separate telebot endpoints.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	name := opts.Name
	if name == "" {
		name = "conversation"
	}

	converse := func(c tele.Context, start time.Time, kind string) error {
		if opts.Conversation != nil {
			return handleWithSummary(c, name+"."+kind, start, "", "", func() error {
				return opts.Conversation(c)
			})
		}
		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}
		logHandlerSummary(c, "unknown_"+kind, start, "skip", "ok", nil)
		return nil
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if reg != nil && strings.HasPrefix(text, "/") {
			word, _, _ := strings.Cut(text, " ")
			word, _, _ = strings.Cut(word, "@")
			if key, cmd, ok := reg.LookupCommand(word); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}
		return converse(c, start, "text")
	}

	photoHandler := func(c tele.Context) error {
		return converse(c, time.Now(), "photo")
	}

	docHandler := func(c tele.Context) error {
		return converse(c, time.Now(), "document")
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(photoHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}
