package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/craftbot/internal/product"
)

// maxImageBytes caps downloads; Telegram bots may fetch files up to 20 MB.
const maxImageBytes = 20 << 20

// ErrNotBound is returned by FileFetcher before the bot is running.
var ErrNotBound = errors.New("file fetcher: bot not bound")

// FileFetcher downloads product photos through the Bot API.
// The bot is bound once the runtime starts.
type FileFetcher struct {
	bot atomic.Pointer[tele.Bot]
}

// Bind attaches the running bot.
func (f *FileFetcher) Bind(b *tele.Bot) { f.bot.Store(b) }

// FetchImage returns the image bytes and their MIME type.
func (f *FileFetcher) FetchImage(ctx context.Context, ref product.ImageRef) ([]byte, string, error) {
	b := f.bot.Load()
	if b == nil {
		return nil, "", ErrNotBound
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	rc, err := b.File(&tele.File{FileID: ref.FileID})
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", ref.FileID, err)
	}
	defer rc.Close()
	return readImage(rc, ref.MIME)
}

func readImage(r io.Reader, mime string) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, "", errors.New("image is empty")
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}
