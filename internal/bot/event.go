package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/craftbot/core/telegram/callbacks"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/product"
)

// eventFrom converts a Telegram update into a flow event. ok is false for
// updates without a sender (channel posts).
func eventFrom(c tele.Context) (flow.Event, bool) {
	user := c.Sender()
	if user == nil {
		return flow.Event{}, false
	}
	ev := flow.Event{UserID: user.ID, UserName: displayName(user)}

	if cb := c.Callback(); cb != nil {
		ev.Kind = flow.EventButton
		ev.Button, _ = callbacks.Parse(cb)
		return ev, true
	}

	msg := c.Message()
	if msg == nil {
		ev.Kind = flow.EventText
		return ev, true
	}
	if img := imageOf(msg); img != nil {
		ev.Kind = flow.EventImage
		ev.Image = img
		return ev, true
	}
	ev.Kind = flow.EventText
	ev.Text = msg.Text
	return ev, true
}

// imageOf returns the largest photo size, or an image sent as a file.
func imageOf(msg *tele.Message) *product.ImageRef {
	if p := msg.Photo; p != nil && p.FileID != "" {
		return &product.ImageRef{FileID: p.FileID, FileUniqueID: p.UniqueID, MIME: "image/jpeg"}
	}
	if d := msg.Document; d != nil && d.FileID != "" && strings.HasPrefix(strings.ToLower(d.MIME), "image/") {
		return &product.ImageRef{FileID: d.FileID, FileUniqueID: d.UniqueID, MIME: strings.ToLower(d.MIME)}
	}
	return nil
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}
