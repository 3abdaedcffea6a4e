package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/craftbot/core/buildinfo"
	"github.com/m3rciful/craftbot/core/logger"
	tg "github.com/m3rciful/craftbot/core/telegram"
	"github.com/m3rciful/craftbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/craftbot/core/telegram/helpers"
	"github.com/m3rciful/craftbot/core/telegram/middleware"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/product"
)

const recentListings = 5

// Register adds the bot commands and button callbacks to reg.
func (h *Handler) Register(reg *tg.Registry) error {
	// These commands are flow tokens: the classifier decides what they mean
	// in the current state.
	conv := []struct{ name, desc string }{
		{"/start", "Start a new product listing"},
		{"/status", "Show the current listing progress"},
		{"/skip", "Skip the current optional step"},
		{"/retry", "Retry a failed step"},
		{"/restart", "Discard the listing and start over"},
	}
	for i, c := range conv {
		reg.RegisterCommand(c.name, commands.Command{
			Handler:     h.Converse,
			Description: c.desc,
			Order:       i + 1,
		})
	}
	reg.RegisterCommand("/products", commands.Command{
		Handler:     h.Products,
		Description: "Show your recently saved products",
		Order:       6,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.Stats,
		Description: "Bot statistics",
		AdminOnly:   true,
	})

	for _, key := range []string{flow.ButtonSkip, flow.ButtonRestart, flow.ButtonRetry, flow.ButtonStatus} {
		if err := reg.RegisterCallback(key, h.Converse); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}
	return nil
}

// Products lists the sender's latest saved listings.
func (h *Handler) Products(c tele.Context) error {
	if h.opts.Listings == nil || c.Sender() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	items, err := h.opts.Listings.ListRecent(ctx, c.Sender().ID, recentListings)
	if err != nil {
		_ = tghelpers.SendText(c, "I couldn't load your products right now. Please try again later.")
		return err
	}
	logger.Debug(ctx, "product", "product.list",
		slog.String("status", "ok"),
		slog.Int("count", len(items)),
	)
	return tghelpers.SendText(c, listingsText(items))
}

// Stats reports runtime counters to the admin.
func (h *Handler) Stats(c tele.Context) error {
	if !middleware.IsAdmin(h.opts.AdminID, c.Sender()) {
		return nil
	}
	return tghelpers.SendText(c, h.statsText())
}

func (h *Handler) statsText() string {
	var b strings.Builder
	b.WriteString("📊 Bot statistics\n\n")
	fmt.Fprintf(&b, "Active sessions: %d\n", h.opts.Flow.ActiveSessions())
	fmt.Fprintf(&b, "Messages in progress: %d\n", h.opts.Flow.InFlight())
	if h.opts.SenderStats != nil {
		sent, failed := h.opts.SenderStats()
		fmt.Fprintf(&b, "Replies sent: %d, failed: %d\n", sent, failed)
	}
	if h.opts.AIState != nil {
		fmt.Fprintf(&b, "AI: %s\n", h.opts.AIState())
	}
	fmt.Fprintf(&b, "Version: %s", buildinfo.Summary())
	return b.String()
}

func listingsText(items []product.Listing) string {
	if len(items) == 0 {
		return "You have no saved products yet. Send /start to list one."
	}
	var b strings.Builder
	b.WriteString("🛍 Your recent products:\n")
	for i, it := range items {
		name := "Unnamed product"
		if it.Name.Valid && strings.TrimSpace(it.Name.String) != "" {
			name = it.Name.String
		}
		price := "price not set"
		if it.Price.Valid {
			price = "₹" + product.FormatPrice(it.Price.Float64)
		}
		fmt.Fprintf(&b, "\n%d. %s · %s · %s", i+1, name, price, it.CreatedAt.Format("02 Jan 2006"))
	}
	return b.String()
}
