package telegram

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/craftbot/core/config"
)

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, lp.Timeout)
	assert.Equal(t, []string{"message", "callback_query"}, lp.AllowedUpdates)

	wh, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://example.org/hook"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://example.org/hook", wh.Endpoint.PublicURL)
}

func TestBuildHTTPClientStretchesForLongPoll(t *testing.T) {
	c := BuildHTTPClient(HTTPClientOptions{LongPoll: 50 * time.Second})
	assert.Equal(t, 60*time.Second, c.Timeout)

	rt, ok := c.Transport.(*retryTransport)
	require.True(t, ok)
	base, ok := rt.base.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 55*time.Second, base.ResponseHeaderTimeout)

	def := BuildHTTPClient(HTTPClientOptions{})
	assert.Equal(t, 30*time.Second, def.Timeout)
}

func TestDefaultMiddlewares(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, len(mws))
		for i, m := range mws {
			out[i] = m.Name
		}
		return out
	}

	assert.Equal(t, []string{"recover", "logger", "metrics"}, names(DefaultMiddlewares(nil, nil)))

	cfg := &coreconfig.Config{}
	cfg.RateLimit.IntervalMS = 500
	cfg.RateLimit.ExcludeUpdates = []string{" Callback "}
	assert.Equal(t, []string{"recover", "logger", "rate_limit", "metrics"}, names(DefaultMiddlewares(cfg, nil)))
}
