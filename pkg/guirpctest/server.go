// Package guirpctest provides a fake BOINC client to run GUI RPC code
// against. It speaks the framed protocol over in-memory pipes, does
// the password handshake, and answers everything else from handlers
// and queued replies set up by the test.
package guirpctest

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
	"github.com/boinc-go/guirpc/pkg/rpc"
	"github.com/boinc-go/guirpc/pkg/session"
	"github.com/boinc-go/guirpc/pkg/transport"
)

// Hangup, returned by a handler or queued, makes the server close the
// connection instead of replying.
const Hangup = ""

// A Handler answers one request with a reply document. authorized
// says whether the handshake has succeeded on this connection.
type Handler func(req *rpc.Element, authorized bool) string

// Reply answers every request with the same document.
func Reply(doc string) Handler {
	return func(*rpc.Element, bool) string { return doc }
}

// RequireAuth answers <unauthorized/> until the handshake has
// succeeded, and hands over to h after that.
func RequireAuth(h Handler) Handler {
	return func(req *rpc.Element, authorized bool) string {
		if !authorized {
			return "<unauthorized/>"
		}
		return h(req, authorized)
	}
}

type Server struct {
	password string

	mu       sync.Mutex
	handlers map[rpc.Tag]Handler
	queued   map[rpc.Tag][]string
	requests []*rpc.Element
	dials    int
	conns    []net.Conn
	refuse   error
}

// NewServer makes a server that accepts password in the handshake.
// An empty password is never accepted.
func NewServer(password string) *Server {
	return &Server{
		password: password,
		handlers: map[rpc.Tag]Handler{},
		queued:   map[rpc.Tag][]string{},
	}
}

// Handle sets the handler for requests with the given tag.
func (s *Server) Handle(tag rpc.Tag, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[tag] = h
}

// Queue adds replies to be used, one per request and in order, for
// requests with the given tag. Queued replies come before the handler.
func (s *Server) Queue(tag rpc.Tag, replies ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued[tag] = append(s.queued[tag], replies...)
}

// Refuse makes subsequent dials fail with err; nil lets them through
// again.
func (s *Server) Refuse(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = err
}

// Dial implements transport.Dialer. Every dial is a fresh connection
// with its own handshake state.
func (s *Server) Dial(ctx context.Context, host string) (transport.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dials++
	if s.refuse != nil {
		return nil, rpcerr.ConnectionError(errors.Wrapf(s.refuse, "dialing %s", host))
	}
	client, server := net.Pipe()
	s.conns = append(s.conns, server)
	go s.serve(server, len(s.conns))
	return transport.NewConn(client), nil
}

// Session makes a session that dials this server.
func (s *Server) Session(password string) *session.Session {
	return session.New(session.Config{Host: "guirpctest", Password: password, Dialer: s})
}

// Requests returns every request received so far, across
// connections, in order of arrival.
func (s *Server) Requests() []*rpc.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*rpc.Element(nil), s.requests...)
}

// Tags returns the tag of every request received so far.
func (s *Server) Tags() []rpc.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]rpc.Tag, len(s.requests))
	for i, r := range s.requests {
		tags[i] = r.Tag
	}
	return tags
}

// Last returns the most recent request with the given tag, or nil.
func (s *Server) Last(tag rpc.Tag) *rpc.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Tag == tag {
			return s.requests[i]
		}
	}
	return nil
}

// Count returns how many requests with the given tag were received.
func (s *Server) Count(tag rpc.Tag) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, r := range s.requests {
		if r.Tag == tag {
			n++
		}
	}
	return n
}

func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Close closes the server's end of every connection.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *Server) serve(conn net.Conn, id int) {
	defer conn.Close()
	var (
		r          = bufio.NewReader(conn)
		nonce      string
		authorized bool
		challenges int
	)
	for {
		frame, err := r.ReadBytes(transport.FrameDelimiter)
		if err != nil {
			return
		}
		var reply string
		doc, err := rpc.Parse(frame[:len(frame)-1])
		switch {
		case err != nil:
			reply = fmt.Sprintf("<error>%s</error>", err)
		case doc.Tag != rpc.RequestEnvelope || len(doc.Children) == 0:
			reply = "<error>missing request envelope</error>"
		default:
			req := doc.Children[0]
			s.record(req)
			switch req.Tag {
			case rpc.Auth1:
				challenges++
				nonce = fmt.Sprintf("%d.%06d", 1574430553+id, challenges)
				reply = "<nonce>" + nonce + "</nonce>"
			case rpc.Auth2:
				authorized = nonce != "" && s.password != "" &&
					req.ChildText(rpc.NonceHash) == session.Digest(nonce, s.password)
				nonce = ""
				if authorized {
					reply = "<authorized/>"
				} else {
					reply = "<unauthorized/>"
				}
			default:
				reply = s.answer(req, authorized)
			}
		}
		if reply == Hangup {
			return
		}
		envelope := "<" + string(rpc.ReplyEnvelope) + ">\n" + reply + "\n</" + string(rpc.ReplyEnvelope) + ">\n"
		if _, err := conn.Write(append([]byte(envelope), transport.FrameDelimiter)); err != nil {
			return
		}
	}
}

func (s *Server) record(req *rpc.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *Server) answer(req *rpc.Element, authorized bool) string {
	s.mu.Lock()
	if q := s.queued[req.Tag]; len(q) > 0 {
		s.queued[req.Tag] = q[1:]
		s.mu.Unlock()
		return q[0]
	}
	h, ok := s.handlers[req.Tag]
	s.mu.Unlock()
	if !ok {
		return "<error>unrecognized op: " + string(req.Tag) + "</error>"
	}
	return h(req, authorized)
}
