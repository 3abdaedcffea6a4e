// Package bot adapts Telegram updates to the listing flow and renders its
// instructions back as messages with inline buttons.
package bot

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/craftbot/core/logger"
	tghelpers "github.com/m3rciful/craftbot/core/telegram/helpers"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/product"
)

// Flow is the conversation engine driven by the handler.
type Flow interface {
	Handle(ctx context.Context, ev flow.Event) (flow.Instruction, error)
	ActiveSessions() int
	InFlight() int
}

// Listings reads a seller's saved products.
type Listings interface {
	ListRecent(ctx context.Context, sellerID int64, limit int) ([]product.Listing, error)
}

// Options configures a Handler. Listings and the stat callbacks are optional.
type Options struct {
	Flow     Flow
	Listings Listings
	AdminID  int64

	// AIState reports the generator health, e.g. the breaker state.
	AIState func() string
	// SenderStats reports sent and failed outbound messages.
	SenderStats func() (sent, failed uint64)
}

// Handler serves commands, buttons and free-form messages.
type Handler struct {
	opts Options
}

// NewHandler builds a handler around the flow.
func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts}
}

// Converse feeds the update to the flow and sends the resulting instruction.
// Collaborator failures are returned so the router summary records them;
// every other flow error has already been answered and is only logged.
func (h *Handler) Converse(c tele.Context) error {
	ev, ok := eventFrom(c)
	if !ok {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	if ev.Kind != flow.EventButton || ev.Button != flow.ButtonStatus {
		_ = tghelpers.Typing(c)
	}

	instr, err := h.opts.Flow.Handle(ctx, ev)
	if sendErr := tghelpers.SendWithMarkup(c, instr.Text, markupFor(instr)); sendErr != nil {
		logger.Error(ctx, "tg", "reply.send",
			slog.String("status", "fail"),
			slog.String("state", instr.State.String()),
			slog.String("err", sendErr.Error()),
		)
	}
	return h.outcome(ctx, instr, err)
}

func (h *Handler) outcome(ctx context.Context, instr flow.Instruction, err error) error {
	if err == nil {
		return nil
	}
	switch flow.KindOf(err) {
	case flow.KindTimeout, flow.KindFailure:
		return err
	}
	logger.Debug(ctx, "flow", "flow.outcome",
		slog.String("status", "skip"),
		slog.String("instruction", string(instr.Kind)),
		slog.String("err_code", string(flow.KindOf(err))),
		slog.String("err", err.Error()),
	)
	return nil
}
