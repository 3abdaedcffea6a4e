package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const repliesKey = "replies"

// replyStats counts what a handler sent back. Sends may run on dispatcher
// workers, so the fields are atomic.
type replyStats struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

func (s *replyStats) record(opts []any) {
	s.messages.Add(1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				s.keyboard.Store(true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				s.keyboard.Store(true)
			}
		}
	}
}

// countingContext records successful Send and Reply calls.
type countingContext struct {
	tele.Context
	stats *replyStats
}

func (c countingContext) Send(what any, opts ...any) error {
	err := c.Context.Send(what, opts...)
	if err == nil {
		c.stats.record(opts)
	}
	return err
}

func (c countingContext) Reply(what any, opts ...any) error {
	err := c.Context.Reply(what, opts...)
	if err == nil {
		c.stats.record(opts)
	}
	return err
}

// MessageMetricsMiddleware counts replies so handler summaries can report them.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &replyStats{}
		c.Set(repliesKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// GetCounters returns the number of replies sent so far and whether any
// carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	stats, ok := c.Get(repliesKey).(*replyStats)
	if !ok {
		return 0, false
	}
	return int(stats.messages.Load()), stats.keyboard.Load()
}
