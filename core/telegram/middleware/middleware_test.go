package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext overrides the handful of tele.Context methods middleware touches.
type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
}

func newFakeContext(userID int64, upd tele.Update) *fakeContext {
	if upd.Message == nil && upd.Callback == nil {
		upd.Message = &tele.Message{Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}}
	}
	return &fakeContext{upd: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update { return f.upd }

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.upd.Callback != nil:
		return f.upd.Callback.Sender
	case f.upd.Message != nil:
		return f.upd.Message.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message != nil {
		return f.upd.Message.Chat
	}
	return nil
}

func (f *fakeContext) Text() string {
	if f.upd.Message != nil {
		return f.upd.Message.Text
	}
	return ""
}

func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }

func TestRateLimitMiddleware(t *testing.T) {
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(newFakeContext(1, tele.Update{ID: 1})))
	require.NoError(t, h(newFakeContext(1, tele.Update{ID: 2})))
	require.NoError(t, h(newFakeContext(2, tele.Update{ID: 3})))

	cb := tele.Update{ID: 4, Callback: &tele.Callback{Sender: &tele.User{ID: 1}}}
	require.NoError(t, h(newFakeContext(1, cb)))

	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, limited)
}

func TestAdminOnlyMiddleware(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  7,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	require.NoError(t, h(newFakeContext(7, tele.Update{})))
	require.NoError(t, h(newFakeContext(8, tele.Update{})))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, rejected)
	assert.False(t, IsAdmin(0, &tele.User{ID: 0}))
	assert.False(t, IsAdmin(7, nil))
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.NotPanics(t, func() {
		assert.NoError(t, h(newFakeContext(1, tele.Update{ID: 9})))
	})

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	assert.ErrorIs(t, h(newFakeContext(1, tele.Update{ID: 10})), want)
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := newFakeContext(5, tele.Update{ID: 11})
	var seen string
	h := LoggerMiddleware(func(c tele.Context) error {
		seen, _ = c.Get("rid").(string)
		return nil
	})
	require.NoError(t, h(c))
	assert.NotEmpty(t, seen)
}

type sendingContext struct {
	*fakeContext
	sent []any
	err  error
}

func (s *sendingContext) Send(what any, _ ...any) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, what)
	return nil
}

func TestMessageMetricsCounters(t *testing.T) {
	c := &sendingContext{fakeContext: newFakeContext(5, tele.Update{ID: 12})}
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("plain"))
		return c.Send("with buttons", &tele.ReplyMarkup{})
	})
	require.NoError(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)
	assert.Len(t, c.sent, 2)
}

func TestMessageMetricsSkipsFailedSends(t *testing.T) {
	c := &sendingContext{fakeContext: newFakeContext(5, tele.Update{ID: 13}), err: errors.New("blocked")}
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		return c.Send("x", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.Error(t, h(c))

	msgs, kb := GetCounters(c)
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestGetCountersWithoutMiddleware(t *testing.T) {
	msgs, kb := GetCounters(newFakeContext(1, tele.Update{}))
	assert.Zero(t, msgs)
	assert.False(t, kb)
}
