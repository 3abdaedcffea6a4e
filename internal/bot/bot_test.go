package bot

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/craftbot/core/telegram"
	"github.com/m3rciful/craftbot/internal/flow"
	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

// fakeContext implements the tele.Context methods the handler uses and
// records outgoing messages.
type fakeContext struct {
	tele.Context
	user  *tele.User
	msg   *tele.Message
	cb    *tele.Callback
	store map[string]any

	sent     []string
	markups  []*tele.ReplyMarkup
	notified int
}

func newFake(user *tele.User) *fakeContext {
	return &fakeContext{user: user, store: map[string]any{}}
}

func (f *fakeContext) Sender() *tele.User { return f.user }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }
func (f *fakeContext) Notify(tele.ChatAction) error { f.notified++; return nil }

func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: f.msg, Callback: f.cb}
}

func (f *fakeContext) Send(what any, opts ...any) error {
	text, _ := what.(string)
	f.sent = append(f.sent, text)
	var markup *tele.ReplyMarkup
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			markup = so.ReplyMarkup
		}
	}
	f.markups = append(f.markups, markup)
	return nil
}

type fakeFlow struct {
	events []flow.Event
	instr  flow.Instruction
	err    error
}

func (f *fakeFlow) Handle(_ context.Context, ev flow.Event) (flow.Instruction, error) {
	f.events = append(f.events, ev)
	return f.instr, f.err
}
func (f *fakeFlow) ActiveSessions() int { return 3 }
func (f *fakeFlow) InFlight() int { return 1 }

var seller = &tele.User{ID: 42, FirstName: "Asha", LastName: "Rao"}

func TestEventFrom(t *testing.T) {
	photo := newFake(seller)
	photo.msg = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "f1", UniqueID: "u1"}}}
	ev, ok := eventFrom(photo)
	require.True(t, ok)
	assert.Equal(t, flow.EventImage, ev.Kind)
	assert.Equal(t, &product.ImageRef{FileID: "f1", FileUniqueID: "u1", MIME: "image/jpeg"}, ev.Image)
	assert.Equal(t, "Asha Rao", ev.UserName)

	doc := newFake(seller)
	doc.msg = &tele.Message{Document: &tele.Document{File: tele.File{FileID: "d1"}, MIME: "image/PNG"}}
	ev, _ = eventFrom(doc)
	assert.Equal(t, flow.EventImage, ev.Kind)
	assert.Equal(t, "image/png", ev.Image.MIME)

	pdf := newFake(seller)
	pdf.msg = &tele.Message{Document: &tele.Document{File: tele.File{FileID: "d2"}, MIME: "application/pdf"}}
	ev, _ = eventFrom(pdf)
	assert.Equal(t, flow.EventText, ev.Kind)
	assert.Nil(t, ev.Image)
	assert.Empty(t, ev.Text)

	text := newFake(&tele.User{ID: 7, Username: "potter"})
	text.msg = &tele.Message{Text: "Blue vase"}
	ev, _ = eventFrom(text)
	assert.Equal(t, flow.Event{UserID: 7, UserName: "@potter", Kind: flow.EventText, Text: "Blue vase"}, ev)

	button := newFake(seller)
	button.cb = &tele.Callback{Data: "\fskip|"}
	ev, _ = eventFrom(button)
	assert.Equal(t, flow.EventButton, ev.Kind)
	assert.Equal(t, flow.ButtonSkip, ev.Button)

	_, ok = eventFrom(newFake(nil))
	assert.False(t, ok)
}

func TestMarkupFor(t *testing.T) {
	m := markupFor(flow.Instruction{Kind: flow.InstructionPrompt, Options: []flow.Option{flow.OptionSkip, flow.OptionRestart}})
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, flow.ButtonSkip, m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, flow.ButtonRestart, m.InlineKeyboard[0][1].Unique)
	assert.Equal(t, flow.ButtonStatus, m.InlineKeyboard[1][0].Unique)

	done := markupFor(flow.Instruction{Kind: flow.InstructionComplete, Options: []flow.Option{flow.OptionRestart}})
	require.NotNil(t, done)
	assert.Len(t, done.InlineKeyboard, 1)

	assert.Nil(t, markupFor(flow.Instruction{Kind: flow.InstructionBusy}))
}

func TestConverseSendsInstruction(t *testing.T) {
	ff := &fakeFlow{instr: flow.Instruction{
		Kind:    flow.InstructionPrompt,
		Text:    "Now, please provide the product name.",
		Options: []flow.Option{flow.OptionSkip, flow.OptionRestart},
		State:   session.State{Step: session.StepAwaitingName},
	}}
	h := NewHandler(Options{Flow: ff})

	c := newFake(seller)
	c.msg = &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "f1"}}}
	require.NoError(t, h.Converse(c))

	require.Len(t, ff.events, 1)
	assert.Equal(t, int64(42), ff.events[0].UserID)
	assert.Equal(t, []string{"Now, please provide the product name."}, c.sent)
	require.NotNil(t, c.markups[0])
	assert.Equal(t, 1, c.notified)
}

func TestConverseErrorOutcome(t *testing.T) {
	timeout := &flow.Error{Kind: flow.KindTimeout, Op: "describe", Err: context.DeadlineExceeded}
	h := NewHandler(Options{Flow: &fakeFlow{
		instr: flow.Instruction{Kind: flow.InstructionFailure, Text: "That took too long."},
		err:   timeout,
	}})
	c := newFake(seller)
	c.msg = &tele.Message{Text: "/retry"}
	err := h.Converse(c)
	assert.ErrorIs(t, err, flow.ErrCollaboratorTimeout)
	assert.Len(t, c.sent, 1)

	h = NewHandler(Options{Flow: &fakeFlow{
		instr: flow.Instruction{Kind: flow.InstructionRetry, Text: "Please upload a product image."},
		err:   &flow.Error{Kind: flow.KindInvalidInput, Op: "classify"},
	}})
	assert.NoError(t, h.Converse(c))

	status := newFake(seller)
	status.cb = &tele.Callback{Unique: flow.ButtonStatus}
	h = NewHandler(Options{Flow: &fakeFlow{instr: flow.Instruction{Kind: flow.InstructionStatus, Text: "Stage"}}})
	require.NoError(t, h.Converse(status))
	assert.Zero(t, status.notified)
}

type fakeListings struct {
	items []product.Listing
	err   error
}

func (f fakeListings) ListRecent(context.Context, int64, int) ([]product.Listing, error) {
	return f.items, f.err
}

func TestProducts(t *testing.T) {
	created := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	h := NewHandler(Options{Flow: &fakeFlow{}, Listings: fakeListings{items: []product.Listing{
		{ID: 1, Name: sql.NullString{String: "Blue vase", Valid: true}, Price: sql.NullFloat64{Float64: 25.5, Valid: true}, CreatedAt: created},
		{ID: 2, CreatedAt: created},
	}}})
	c := newFake(seller)
	c.msg = &tele.Message{Text: "/products"}
	require.NoError(t, h.Products(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "1. Blue vase · ₹25.50 · 04 Mar 2025")
	assert.Contains(t, c.sent[0], "2. Unnamed product · price not set")

	h = NewHandler(Options{Flow: &fakeFlow{}, Listings: fakeListings{err: errors.New("db down")}})
	c = newFake(seller)
	c.msg = &tele.Message{Text: "/products"}
	assert.Error(t, h.Products(c))
	assert.Len(t, c.sent, 1)

	assert.Contains(t, listingsText(nil), "no saved products")
}

func TestStats(t *testing.T) {
	h := NewHandler(Options{
		Flow:        &fakeFlow{},
		AdminID:     42,
		AIState:     func() string { return "gemini (closed)" },
		SenderStats: func() (uint64, uint64) { return 10, 2 },
	})
	c := newFake(seller)
	c.msg = &tele.Message{Text: "/stats"}
	require.NoError(t, h.Stats(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Active sessions: 3")
	assert.Contains(t, c.sent[0], "Messages in progress: 1")
	assert.Contains(t, c.sent[0], "Replies sent: 10, failed: 2")
	assert.Contains(t, c.sent[0], "AI: gemini (closed)")

	other := newFake(&tele.User{ID: 1})
	require.NoError(t, h.Stats(other))
	assert.Empty(t, other.sent)
}

func TestRegister(t *testing.T) {
	reg := tg.NewRegistry()
	h := NewHandler(Options{Flow: &fakeFlow{}})
	require.NoError(t, h.Register(reg))

	menu := reg.ListCommands(true)
	require.Len(t, menu, 6)
	assert.Equal(t, "start", menu[0].Text)
	assert.Equal(t, "products", menu[5].Text)
	assert.Len(t, reg.Commands(), 7)
	assert.Equal(t, []string{"restart", "retry", "skip", "status"}, reg.ListCallbacks())

	assert.Error(t, h.Register(reg))
}

func TestFileFetcher(t *testing.T) {
	var f FileFetcher
	_, _, err := f.FetchImage(context.Background(), product.ImageRef{FileID: "x"})
	assert.ErrorIs(t, err, ErrNotBound)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)
	data, mime, err := readImage(bytes.NewReader(png), "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Len(t, data, len(png))

	_, mime, err = readImage(bytes.NewReader(png), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	_, _, err = readImage(bytes.NewReader(nil), "")
	assert.Error(t, err)
}
