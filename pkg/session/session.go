// Package session holds one connection to a BOINC client and the
// password for it, and exchanges requests and replies over it.
//
// Authorization is never assumed. A request that needs it is sent as
// is; only if the daemon answers <unauthorized/> is the handshake run,
// once, and the request sent again, once. Whatever the daemon says
// the second time is the answer.
//
// One request is outstanding at a time. The protocol has no way to
// match replies to requests other than order, so a Session serializes
// its callers: each exchange, including any handshake and resend,
// holds the session until its reply is read.
//
// If an exchange fails part way (a broken connection, a malformed
// reply, or a cancelled context while waiting for a reply) the
// connection is closed and forgotten, since there is no telling what
// is still in flight on it. The next call dials again. Failed calls
// are not retried.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
	guimetrics "github.com/boinc-go/guirpc/pkg/metrics"
	"github.com/boinc-go/guirpc/pkg/rpc"
	"github.com/boinc-go/guirpc/pkg/transport"
)

// Config is what a Session needs to reach a daemon.
type Config struct {
	// Host is a host name or address, optionally with a port
	// (default 31416), or a ws:// or wss:// URL of a relay.
	Host string
	// Password is the GUI RPC password (gui_rpc_auth.cfg). Empty
	// means none; the handshake is then skipped.
	Password string
	// Dialer defaults to transport.DefaultDialer.
	Dialer transport.Dialer
	// Logger defaults to discarding.
	Logger log.Logger
}

type Session struct {
	host   string
	dialer transport.Dialer
	logger log.Logger

	mu       sync.Mutex
	password string
	conn     transport.Conn
	closed   bool
}

// New makes a Session. No connection is made until it's needed.
func New(cfg Config) *Session {
	s := &Session{
		host:     cfg.Host,
		password: cfg.Password,
		dialer:   cfg.Dialer,
		logger:   cfg.Logger,
	}
	if s.dialer == nil {
		s.dialer = transport.DefaultDialer
	}
	if s.logger == nil {
		s.logger = log.NewNopLogger()
	}
	return s
}

// Open makes a Session and connects it straight away, so that an
// unreachable daemon is reported up front.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	s := New(cfg)
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) Host() string {
	return s.host
}

// SetPassword replaces the password used from the next handshake on.
func (s *Session) SetPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = password
}

// Connect dials the daemon if there's no open connection.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.connect(ctx)
	return err
}

// Authenticate runs the handshake now, rather than waiting to be
// told to. It reports whether the daemon accepted the password.
func (s *Session) Authenticate(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticate(ctx)
}

// Send sends a request that does not need authorization, and
// interprets the reply. An <error> reply is returned as a server
// error carrying the daemon's message; an <unauthorized/> reply is
// returned as that outcome, untouched.
func (s *Session) Send(ctx context.Context, req *rpc.Request) (rpc.Outcome, error) {
	return s.send(ctx, req, false)
}

// SendAuthorized is like Send, except that an <unauthorized/> reply
// makes it run the handshake and send the request once more. The
// second outcome is returned whatever it is, including unauthorized.
func (s *Session) SendAuthorized(ctx context.Context, req *rpc.Request) (rpc.Outcome, error) {
	return s.send(ctx, req, true)
}

func (s *Session) send(ctx context.Context, req *rpc.Request, requireAuth bool) (rpc.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome, err := s.exchange(ctx, req)
	if err != nil {
		return rpc.Outcome{}, err
	}

	if requireAuth && outcome.Kind == rpc.OutcomeUnauthorized {
		ok, err := s.authenticate(ctx)
		if err != nil {
			return rpc.Outcome{}, errors.Wrapf(err, "authorizing <%s>", req.Tag())
		}
		reauthorizations.With(guimetrics.LabelAuthorized, fmt.Sprint(ok)).Add(1)
		if !ok {
			s.logger.Log("info", "daemon did not accept password; sending request anyway", "request", req.Tag())
		}
		if outcome, err = s.exchange(ctx, req); err != nil {
			return rpc.Outcome{}, err
		}
	}

	if outcome.Kind == rpc.OutcomeServerError {
		return rpc.Outcome{}, rpcerr.ServerError(outcome.Message)
	}
	return outcome, nil
}

// exchange sends one request and reads its reply.
func (s *Session) exchange(ctx context.Context, req *rpc.Request) (rpc.Outcome, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return rpc.Outcome{}, err
	}
	if err := conn.Send(ctx, req); err != nil {
		s.drop(err)
		return rpc.Outcome{}, err
	}
	reply, err := conn.Receive(ctx)
	if err != nil {
		s.drop(err)
		return rpc.Outcome{}, err
	}
	return rpc.Interpret(reply), nil
}

func (s *Session) authenticate(ctx context.Context) (bool, error) {
	if s.password == "" {
		s.logger.Log("info", "no password configured; skipping handshake")
		return false, nil
	}
	conn, err := s.connect(ctx)
	if err != nil {
		return false, err
	}
	ok, err := authenticate(ctx, conn, s.password)
	if err != nil {
		s.drop(err)
		return false, err
	}
	s.logger.Log("info", "handshake", "authorized", ok)
	return ok, nil
}

func (s *Session) connect(ctx context.Context) (transport.Conn, error) {
	if s.closed {
		return nil, rpcerr.ConnectionError(errors.New("session is closed"))
	}
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.dialer.Dial(ctx, s.host)
	connects.With(guimetrics.LabelSuccess, fmt.Sprint(err == nil)).Add(1)
	if err != nil {
		s.logger.Log("host", s.host, "err", err)
		return nil, err
	}
	s.logger.Log("host", s.host, "info", "connected")
	s.conn = conn
	return conn, nil
}

// drop closes and forgets the connection after a failed exchange.
func (s *Session) drop(cause error) {
	if s.conn == nil {
		return
	}
	s.logger.Log("host", s.host, "info", "dropping connection", "err", cause)
	s.conn.Close()
	s.conn = nil
}

// Close closes the connection, if there is one. The session can't be
// used afterwards. Closing more than once is fine.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
