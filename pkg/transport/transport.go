// Package transport carries GUI RPC documents to and from a BOINC
// client. Each document, in both directions, is one frame: the XML
// text followed by a single delimiter byte.
package transport

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/boinc-go/guirpc/pkg/rpc"
)

const (
	// FrameDelimiter ends every request and reply document.
	FrameDelimiter byte = 0x03

	// DefaultPort is where the BOINC client listens for GUI RPC.
	DefaultPort = 31416
)

// Conn is one open connection to a daemon. There is no pipelining:
// after Send, the caller must Receive the reply before sending again.
type Conn interface {
	// Send writes one request frame. It fails with a connection
	// error if the stream is broken.
	Send(ctx context.Context, req *rpc.Request) error
	// Receive blocks until one complete reply frame has arrived and
	// returns its reply element, with the reply envelope removed.
	Receive(ctx context.Context) (*rpc.Element, error)
	Close() error
}

// Dialer opens connections.
type Dialer interface {
	Dial(ctx context.Context, host string) (Conn, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context, host string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, host string) (Conn, error) {
	return f(ctx, host)
}

// Dial connects over a WebSocket when host is a ws:// or wss:// URL,
// and over plain TCP otherwise.
func Dial(ctx context.Context, host string) (Conn, error) {
	if strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return DialWebsocket(ctx, host)
	}
	return DialTCP(ctx, host)
}

// DefaultDialer uses Dial.
var DefaultDialer Dialer = DialerFunc(Dial)

// HostPort adds the default port to host if it has none.
func HostPort(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(DefaultPort))
}
