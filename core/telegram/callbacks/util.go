// Package callbacks decodes inline button callback data.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the button unique and its payload. Telebot already splits
// data of registered buttons into Unique/Data; raw "\f<unique>|<payload>"
// strings from generic OnCallback handlers are decoded here.
func Parse(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Key returns the unique of the pressed button.
func Key(c tele.Context) string {
	key, _ := Parse(c.Callback())
	return key
}

// Payload returns the data attached to the pressed button.
func Payload(c tele.Context) string {
	_, payload := Parse(c.Callback())
	return payload
}
