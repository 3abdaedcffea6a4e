package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/craftbot/core/config"
)

// capture returns a logger writing to a buffer and a func that flushes it
// and returns the written lines.
func capture(t *testing.T, format logFormat) (*slog.Logger, func() []string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	return slog.New(h), func() []string {
		require.NoError(t, aw.Close())
		return strings.Split(strings.TrimSpace(buf.String()), "\n")
	}
}

func TestKVLineOrder(t *testing.T) {
	log, lines := capture(t, formatKV)
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)

	LogEvent(ctx, log.With("component", "flow"), slog.LevelInfo, "flow.handle",
		slog.String("status", "OK"),
		slog.String("cause", "unit"),
	)

	tokens := strings.Fields(lines()[0])
	want := []string{"ts=", "level=INFO", "component=flow", "event=flow.handle", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	require.GreaterOrEqual(t, len(tokens), len(want))
	for i, prefix := range want {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
}

func TestJSONLine(t *testing.T) {
	log, lines := capture(t, formatJSON)
	ctx := WithSession(WithRID(context.Background(), "11:22:33"), "sess-1")

	LogEvent(ctx, log.With("component", "product"), slog.LevelError, "product.save",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("boom")),
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("outcome", "prompt"),
		slog.String("empty", ""),
	)

	line := lines()[0]
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &got))

	assert.Equal(t, "ERROR", got["level"])
	assert.Equal(t, "product", got["component"])
	assert.Equal(t, CompactRID("11:22:33"), got["rid"])
	assert.Equal(t, "11:22:33", got["rid_full"])
	assert.Equal(t, "sess-1", got["session_id"])
	assert.Equal(t, "boom", got["err"])
	assert.EqualValues(t, 2, got["duration_ms"])
	assert.Contains(t, got, "ts_unix_nano")
	assert.NotContains(t, got, "outcome", "unknown outcomes are dropped")
	assert.NotContains(t, got, "empty")

	assert.Less(t, strings.Index(line, `"event"`), strings.Index(line, `"status"`))
	assert.Less(t, strings.Index(line, `"session_id"`), strings.Index(line, `"err"`))
}

func TestKVOmitsFullRID(t *testing.T) {
	log, lines := capture(t, formatKV)
	LogEvent(WithRID(context.Background(), "123:456:789"), log, slog.LevelInfo, "rid.test")

	line := lines()[0]
	assert.Contains(t, line, "rid="+CompactRID("123:456:789"))
	assert.NotContains(t, line, "rid_full=")
	assert.Contains(t, line, "component=app")
}

func TestExplicitAttrsWinOverContext(t *testing.T) {
	log, lines := capture(t, formatKV)
	ctx := WithSession(context.Background(), "from-ctx")
	LogEvent(ctx, log, slog.LevelInfo, "x", slog.String("session_id", "explicit"))
	assert.Contains(t, lines()[0], "session_id=explicit")
}

func TestGroupsFlatten(t *testing.T) {
	log, lines := capture(t, formatKV)
	log.WithGroup("ai").With("model", "flash").Info("ai.call", slog.Group("usage", slog.Int("tokens", 12)))

	line := lines()[0]
	assert.Contains(t, line, "ai.model=flash")
	assert.Contains(t, line, "ai.usage.tokens=12")
	assert.Contains(t, line, "event=ai.call")
}

func TestKVQuotesValues(t *testing.T) {
	assert.Equal(t, `"a b"`, kvValue("a b"))
	assert.Equal(t, `"k=v"`, kvValue("k=v"))
	assert.Equal(t, "plain", kvValue("plain"))
	assert.Equal(t, "42", kvValue(int64(42)))
	assert.Equal(t, "true", kvValue(true))
}

func TestDurationKey(t *testing.T) {
	assert.Equal(t, "duration_ms", durationKey("duration"))
	assert.Equal(t, "startup_duration_ms", durationKey("startup_duration"))
	assert.Equal(t, "backoff_ms", durationKey("backoff_ms"))
	assert.Equal(t, "timeout_ms", durationKey("timeout"))
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.co.lx", CompactRID("123:456:789"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
	assert.Equal(t, "", CompactRID(""))
}

func TestContextAccessors(t *testing.T) {
	ctx := WithHandler(WithUpdateMeta(context.Background(), 5, 6, 7), "converse")
	assert.Equal(t, 5, UpdateIDFrom(ctx))
	assert.Equal(t, int64(6), UserIDFrom(ctx))
	assert.Equal(t, int64(7), ChatIDFrom(ctx))
	assert.Equal(t, "converse", HandlerFrom(ctx))
	assert.Empty(t, RIDFrom(ctx))
	assert.Empty(t, SessionIDFrom(ctx))
}

func TestSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for range 6 {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, false, false, true, false, false}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	num, den := parseRatioSpec("2/5")
	assert.Equal(t, [2]int{2, 5}, [2]int{num, den})
	num, den = parseRatioSpec("10")
	assert.Equal(t, [2]int{1, 10}, [2]int{num, den})
	num, den = parseRatioSpec("x/5")
	assert.Equal(t, [2]int{0, 0}, [2]int{num, den})
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ab\tc\n", Sanitize("a\x00b\tc\n\x7f"))
	assert.Equal(t, "héll", SanitizeLimit("héllo", 4))
	assert.Equal(t, "", SanitizeLimit("x", 0))
	assert.Equal(t, "fail", Status(errors.New("x")))
	assert.Equal(t, "ok", Status(nil))
}

func TestWriterRejectsAfterClose(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 16)
	require.NoError(t, aw.Write([]byte("one\n")))
	require.NoError(t, aw.Flush())
	assert.Equal(t, "one\n", buf.String())

	require.NoError(t, aw.Close())
	require.NoError(t, aw.Close())
	assert.ErrorIs(t, aw.Write([]byte("two\n")), errWriterClosed)
	assert.NoError(t, aw.Flush())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterReportsSinkError(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{failingWriter{}}, 1)
	require.NoError(t, aw.Write([]byte("x")))
	assert.EqualError(t, aw.Close(), "disk full")
}

func TestOptionsFrom(t *testing.T) {
	o := optionsFrom(nil)
	assert.Equal(t, formatJSON, o.format)
	assert.Equal(t, slog.LevelInfo, o.level)
	assert.Equal(t, [2]int{1, 50}, [2]int{o.sampleNum, o.sampleDen})

	cfg := &coreconfig.Config{}
	cfg.Logging.Profile = "Dev"
	cfg.Logging.Level = "debug"
	cfg.Logging.KeysOrder = "event, ts"
	cfg.Logging.DebugSample = "0"
	cfg.Logging.Dir = "/var/log/craftbot"
	cfg.Logging.ErrorsFile = "errors.log"

	o = optionsFrom(cfg)
	assert.Equal(t, formatKV, o.format)
	assert.Equal(t, slog.LevelDebug, o.level)
	assert.Equal(t, []string{"event", "ts"}, o.keyOrder)
	assert.Equal(t, "dev", o.profile)
	assert.Zero(t, o.sampleDen)
	assert.Empty(t, o.botFile)
	assert.Equal(t, "/var/log/craftbot/errors.log", o.errorsFile)
}

func TestErrorRecordsReachErrorsWriter(t *testing.T) {
	var all, errs bytes.Buffer
	main := newAsyncWriter([]io.Writer{&all}, 1024)
	ew := newAsyncWriter([]io.Writer{&errs}, 1024)
	log := slog.New(newStructuredHandler(handlerConfig{
		level:     slog.LevelInfo,
		writer:    main,
		errWriter: ew,
		format:    formatKV,
	}))

	log.Info("session.restart")
	log.Error("product.save")
	require.NoError(t, main.Close())
	require.NoError(t, ew.Close())

	assert.Equal(t, 2, strings.Count(all.String(), "\n"))
	assert.Equal(t, 1, strings.Count(errs.String(), "\n"))
	assert.Contains(t, errs.String(), "event=product.save")
}
