package netutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("no route")}, true},
		{"read other", &net.OpError{Op: "read", Err: errors.New("closed")}, false},
		{"url deadline", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: context.DeadlineExceeded}, true},
		{"url refused", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: syscall.ECONNREFUSED}, true},
		{"canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}
