package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
)

// UserAgent is sent when dialing a WebSocket relay.
var UserAgent = "boincctl"

type DialErr struct {
	URL          string
	HTTPResponse *http.Response
}

func (de DialErr) Error() string {
	if de.HTTPResponse != nil {
		return fmt.Sprintf("connecting to websocket %s (http status code = %v)", de.URL, de.HTTPResponse.StatusCode)
	}
	return "connecting to websocket (unknown error)"
}

// DialWebsocket connects to a daemon through a WebSocket relay
// (e.g. websockify in front of the GUI RPC port). Binary messages
// carry the byte stream; frame boundaries are still the delimiter's.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	header := http.Header{}
	header.Set("User-Agent", UserAgent)

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: DialTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			err = &DialErr{url, resp}
		}
		return nil, rpcerr.ConnectionError(errors.Wrapf(err, "connecting to %s", url))
	}
	return NewConn(&websocketStream{conn: conn}), nil
}

// websocketStream emulates a byte stream over a *websocket.Conn.
type websocketStream struct {
	readLock  sync.Mutex
	writeLock sync.Mutex
	reader    io.Reader
	conn      *websocket.Conn
}

func (w *websocketStream) Read(b []byte) (int, error) {
	w.readLock.Lock()
	defer w.readLock.Unlock()

	for w.reader == nil {
		msgType, r, err := w.conn.NextReader()
		if err != nil {
			if IsExpectedWSCloseError(err) {
				return 0, io.EOF
			}
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			// Ignore non-binary messages.
			continue
		}
		w.reader = r
	}

	n, err := w.reader.Read(b)
	if err == io.EOF {
		w.reader = nil
		err = nil
	}
	return n, err
}

func (w *websocketStream) Write(b []byte) (int, error) {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	if err := w.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (w *websocketStream) Close() error {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *websocketStream) SetReadDeadline(t time.Time) error {
	return w.conn.SetReadDeadline(t)
}

func (w *websocketStream) SetWriteDeadline(t time.Time) error {
	return w.conn.SetWriteDeadline(t)
}

// IsExpectedWSCloseError returns boolean indicating whether the error is a
// clean disconnection.
func IsExpectedWSCloseError(err error) bool {
	return err == io.EOF || err == io.ErrClosedPipe || websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
	)
}
