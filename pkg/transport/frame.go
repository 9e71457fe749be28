package transport

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

// Stream is a byte stream with deadlines; a net.Conn is one.
type Stream interface {
	io.ReadWriteCloser
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

var _ Stream = net.Conn(nil)

// frameConn speaks delimiter-framed documents over a Stream.
type frameConn struct {
	s Stream
	r *bufio.Reader
}

// NewConn frames requests and replies over s.
func NewConn(s Stream) Conn {
	return &frameConn{s: s, r: bufio.NewReader(s)}
}

func (c *frameConn) Send(ctx context.Context, req *rpc.Request) error {
	stop := watch(ctx, c.s.SetWriteDeadline)
	defer stop()

	frame := append(req.Encode(), FrameDelimiter)
	if _, err := c.s.Write(frame); err != nil {
		return rpcerr.ConnectionError(errors.Wrapf(ctxErr(ctx, err), "sending <%s>", req.Tag()))
	}
	return nil
}

func (c *frameConn) Receive(ctx context.Context) (*rpc.Element, error) {
	stop := watch(ctx, c.s.SetReadDeadline)
	defer stop()

	frame, err := c.r.ReadBytes(FrameDelimiter)
	if err != nil {
		if err == io.EOF && len(bytes.TrimSpace(frame)) > 0 {
			return nil, rpcerr.ProtocolError(errors.New("reply truncated: connection closed before end of frame"))
		}
		return nil, rpcerr.ConnectionError(errors.Wrap(ctxErr(ctx, err), "receiving reply"))
	}

	doc, err := rpc.Parse(frame[:len(frame)-1])
	if err != nil {
		return nil, rpcerr.ProtocolError(err)
	}
	return unwrap(doc)
}

func (c *frameConn) Close() error {
	return c.s.Close()
}

// unwrap removes the reply envelope. Documents without the envelope
// are passed through as they are.
func unwrap(doc *rpc.Element) (*rpc.Element, error) {
	if doc.Tag != rpc.ReplyEnvelope {
		return doc, nil
	}
	if len(doc.Children) == 0 {
		return nil, rpcerr.ProtocolError(errors.New("empty reply"))
	}
	return doc.Children[0], nil
}

var aLongTimeAgo = time.Unix(1, 0)

// watch applies ctx's deadline to the stream, and interrupts any
// blocked I/O if ctx is cancelled before stop is called.
func watch(ctx context.Context, setDeadline func(time.Time) error) (stop func()) {
	deadline, _ := ctx.Deadline()
	setDeadline(deadline)
	if ctx.Done() == nil {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		select {
		case <-ctx.Done():
			setDeadline(aLongTimeAgo)
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-finished
	}
}

// ctxErr prefers the context's error, so that a cancelled or expired
// call says so rather than reporting an i/o timeout.
func ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return err
}
