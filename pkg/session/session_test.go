package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
	"github.com/boinc-go/guirpc/pkg/rpc"
	"github.com/boinc-go/guirpc/pkg/transport"
)

const (
	testPassword = "hunter2"
	testNonce    = "1574430553.291846"
)

// mockConn answers each request with whatever reply returns for it,
// and notes any Send made while a reply is still owed.
type mockConn struct {
	reply func(req *rpc.Request) string

	mu          sync.Mutex
	sent        []*rpc.Request
	pending     bool
	interleaved bool
	closed      bool
	sendErr     error
	recvErr     error
}

func (c *mockConn) Send(ctx context.Context, req *rpc.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	if c.pending {
		c.interleaved = true
	}
	c.pending = true
	c.sent = append(c.sent, req)
	return nil
}

func (c *mockConn) Receive(ctx context.Context) (*rpc.Element, error) {
	c.mu.Lock()
	req := c.sent[len(c.sent)-1]
	recvErr := c.recvErr
	c.mu.Unlock()

	// give anyone trying to overlap a chance to
	time.Sleep(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if recvErr != nil {
		return nil, recvErr
	}
	return rpc.Parse([]byte(c.reply(req)))
}

func (c *mockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *mockConn) tags() []rpc.Tag {
	c.mu.Lock()
	defer c.mu.Unlock()
	var tags []rpc.Tag
	for _, r := range c.sent {
		tags = append(tags, r.Tag())
	}
	return tags
}

// daemon is a reply function that implements the handshake, and
// hands any other request to data.
func daemon(password string, data func(req *rpc.Request, authorized bool) string) func(*rpc.Request) string {
	var authorized bool
	return func(req *rpc.Request) string {
		switch req.Tag() {
		case rpc.Auth1:
			return "<nonce>" + testNonce + "</nonce>"
		case rpc.Auth2:
			hash, _ := req.Child(rpc.NonceHash).Text()
			if hash == Digest(testNonce, password) {
				authorized = true
				return "<authorized/>"
			}
			return "<unauthorized/>"
		}
		return data(req, authorized)
	}
}

type dialer struct {
	conns []*mockConn
	dials int
	err   error
}

func (d *dialer) Dial(ctx context.Context, host string) (transport.Conn, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.conns[d.dials-1], nil
}

func newSession(password string, conns ...*mockConn) (*Session, *dialer) {
	d := &dialer{conns: conns}
	return New(Config{Host: "localhost", Password: password, Dialer: d, Logger: log.NewNopLogger()}), d
}

func abort() *rpc.Request {
	return rpc.NewRequest(rpc.AbortResult, rpc.Text(rpc.ProjectURL, "http://einstein.phys.uwm.edu/"), rpc.Text(rpc.Name, "h1_0123"))
}

func TestDigest(t *testing.T) {
	// md5("abc")
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", Digest("a", "bc"))
	// the nonce comes first
	assert.NotEqual(t, Digest(testNonce, testPassword), Digest(testPassword, testNonce))
}

func TestReactiveAuthorization(t *testing.T) {
	conn := &mockConn{reply: daemon(testPassword, func(req *rpc.Request, authorized bool) string {
		if !authorized {
			return "<unauthorized/>"
		}
		return "<success/>"
	})}
	s, _ := newSession(testPassword, conn)

	outcome, err := s.SendAuthorized(context.Background(), abort())
	require.NoError(t, err)
	assert.Equal(t, rpc.OutcomeAcknowledged, outcome.Kind)
	assert.Equal(t, []rpc.Tag{rpc.AbortResult, rpc.Auth1, rpc.Auth2, rpc.AbortResult}, conn.tags())

	// the handshake answer is the digest of the nonce and password
	hash, ok := conn.sent[2].Child(rpc.NonceHash).Text()
	assert.True(t, ok)
	assert.Equal(t, Digest(testNonce, testPassword), hash)
}

func TestUnauthorizedOnceThenSuccess(t *testing.T) {
	var calls int
	conn := &mockConn{reply: daemon(testPassword, func(*rpc.Request, bool) string {
		calls++
		if calls == 1 {
			return "<unauthorized/>"
		}
		return "<success/>"
	})}
	s, _ := newSession(testPassword, conn)

	outcome, err := s.SendAuthorized(context.Background(), abort())
	require.NoError(t, err)
	assert.Equal(t, rpc.OutcomeAcknowledged, outcome.Kind)
	assert.Equal(t, []rpc.Tag{rpc.AbortResult, rpc.Auth1, rpc.Auth2, rpc.AbortResult}, conn.tags())
}

func TestUnauthorizedTwiceIsReturned(t *testing.T) {
	conn := &mockConn{reply: daemon(testPassword, func(*rpc.Request, bool) string {
		return "<unauthorized/>"
	})}
	s, _ := newSession(testPassword, conn)

	outcome, err := s.SendAuthorized(context.Background(), abort())
	require.NoError(t, err)
	assert.Equal(t, rpc.OutcomeUnauthorized, outcome.Kind)
	// exactly one handshake and one resend
	assert.Equal(t, []rpc.Tag{rpc.AbortResult, rpc.Auth1, rpc.Auth2, rpc.AbortResult}, conn.tags())
}

func TestWrongPasswordStillResends(t *testing.T) {
	conn := &mockConn{reply: daemon(testPassword, func(req *rpc.Request, authorized bool) string {
		if !authorized {
			return "<unauthorized/>"
		}
		return "<success/>"
	})}
	s, _ := newSession("wrong", conn)

	outcome, err := s.SendAuthorized(context.Background(), abort())
	require.NoError(t, err)
	assert.Equal(t, rpc.OutcomeUnauthorized, outcome.Kind)
	assert.Equal(t, []rpc.Tag{rpc.AbortResult, rpc.Auth1, rpc.Auth2, rpc.AbortResult}, conn.tags())
}

func TestNoPasswordSkipsHandshake(t *testing.T) {
	conn := &mockConn{reply: daemon(testPassword, func(*rpc.Request, bool) string {
		return "<unauthorized/>"
	})}
	s, _ := newSession("", conn)

	outcome, err := s.SendAuthorized(context.Background(), abort())
	require.NoError(t, err)
	assert.Equal(t, rpc.OutcomeUnauthorized, outcome.Kind)
	assert.Equal(t, []rpc.Tag{rpc.AbortResult, rpc.AbortResult}, conn.tags())

	// and a password given later is used
	s.SetPassword(testPassword)
	ok, err := s.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPlainSendDoesNotAuthenticate(t *testing.T) {
	conn := &mockConn{reply: daemon(testPassword, func(*rpc.Request, bool) string {
		return "<unauthorized/>"
	})}
	s, _ := newSession(testPassword, conn)

	outcome, err := s.Send(context.Background(), rpc.NewRequest(rpc.GetResults))
	require.NoError(t, err)
	assert.Equal(t, rpc.OutcomeUnauthorized, outcome.Kind)
	assert.Equal(t, []rpc.Tag{rpc.GetResults}, conn.tags())
}

func TestServerError(t *testing.T) {
	for name, send := range map[string]func(*Session, context.Context, *rpc.Request) (rpc.Outcome, error){
		"plain":      (*Session).Send,
		"authorized": (*Session).SendAuthorized,
	} {
		t.Run(name, func(t *testing.T) {
			conn := &mockConn{reply: func(*rpc.Request) string {
				return "<error>quota exceeded</error>"
			}}
			s, _ := newSession(testPassword, conn)

			_, err := send(s, context.Background(), abort())
			require.Error(t, err)
			assert.True(t, rpcerr.IsServer(err))
			assert.Equal(t, "quota exceeded", err.Error())
			assert.Len(t, conn.tags(), 1)
		})
	}
}

func TestDataPassesThrough(t *testing.T) {
	conn := &mockConn{reply: func(*rpc.Request) string {
		return "<results><result><name>t1</name></result></results>"
	}}
	s, _ := newSession("", conn)

	outcome, err := s.Send(context.Background(), rpc.NewRequest(rpc.GetResults))
	require.NoError(t, err)
	require.Equal(t, rpc.OutcomeData, outcome.Kind)
	assert.Equal(t, rpc.Tag("results"), outcome.Reply.Tag)
}

func TestHandshakeNeedsNonce(t *testing.T) {
	conn := &mockConn{reply: func(req *rpc.Request) string {
		if req.Tag() == rpc.Auth1 {
			return "<error>no</error>"
		}
		return "<unauthorized/>"
	}}
	s, d := newSession(testPassword, conn)

	_, err := s.SendAuthorized(context.Background(), abort())
	require.Error(t, err)
	assert.True(t, rpcerr.IsProtocol(err))
	// auth2 never went out
	assert.Equal(t, []rpc.Tag{rpc.AbortResult, rpc.Auth1}, conn.tags())
	assert.True(t, conn.closed)
	assert.Equal(t, 1, d.dials)
}

func TestSerializesCallers(t *testing.T) {
	conn := &mockConn{reply: daemon(testPassword, func(req *rpc.Request, authorized bool) string {
		if req.Tag() == rpc.AbortResult && !authorized {
			return "<unauthorized/>"
		}
		if req.Tag() == rpc.AbortResult {
			return "<success/>"
		}
		return "<seqno>42</seqno>"
	})}
	s, _ := newSession(testPassword, conn)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = s.SendAuthorized(ctx, abort())
			} else {
				_, err = s.Send(ctx, rpc.NewRequest(rpc.GetMessageCount))
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.False(t, conn.interleaved, "a request was sent before the previous reply was received")
	// the handshake happens as a unit: auth2 always directly follows auth1
	tags := conn.tags()
	for i, tag := range tags {
		if tag == rpc.Auth1 {
			require.True(t, i+1 < len(tags))
			assert.Equal(t, rpc.Auth2, tags[i+1])
		}
	}
}

func TestReconnectsAfterConnectionError(t *testing.T) {
	broken := &mockConn{recvErr: rpcerr.ConnectionError(errors.New("connection reset by peer"))}
	fresh := &mockConn{reply: func(*rpc.Request) string { return "<seqno>7</seqno>" }}
	s, d := newSession("", broken, fresh)
	ctx := context.Background()

	_, err := s.Send(ctx, rpc.NewRequest(rpc.GetMessageCount))
	require.Error(t, err)
	assert.True(t, rpcerr.IsConnection(err))
	assert.True(t, broken.closed)
	// not retried
	assert.Equal(t, 1, d.dials)
	assert.Len(t, broken.tags(), 1)

	outcome, err := s.Send(ctx, rpc.NewRequest(rpc.GetMessageCount))
	require.NoError(t, err)
	assert.Equal(t, "7", outcome.Reply.Text)
	assert.Equal(t, 2, d.dials)
}

func TestDialError(t *testing.T) {
	s, d := newSession("")
	d.err = rpcerr.ConnectionError(errors.New("connection refused"))

	_, err := s.Send(context.Background(), rpc.NewRequest(rpc.GetResults))
	assert.True(t, rpcerr.IsConnection(err))

	_, err = Open(context.Background(), Config{Host: "localhost", Dialer: d})
	assert.True(t, rpcerr.IsConnection(err))
}

func TestLazyConnectAndClose(t *testing.T) {
	conn := &mockConn{reply: func(*rpc.Request) string { return "<success/>" }}
	s, d := newSession("", conn)
	assert.Equal(t, 0, d.dials)

	require.NoError(t, s.Connect(context.Background()))
	require.NoError(t, s.Connect(context.Background()))
	assert.Equal(t, 1, d.dials)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, conn.closed)

	_, err := s.Send(context.Background(), rpc.NewRequest(rpc.GetResults))
	assert.True(t, rpcerr.IsConnection(err))
	assert.Equal(t, 1, d.dials)
}
