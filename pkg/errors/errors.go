package errors

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"
)

// Representation of errors returned by the client. These are divided
// into a small number of categories, essentially distinguished by
// which side of the connection is at fault; i.e., is this error:
//  - a problem reaching the daemon at all, so the connection is gone?
//  - the daemon saying something we can't make sense of?
//  - the daemon telling us, in so many words, that it refused?
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string `json:"help"`
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Cause lets errors.Cause see through to the underlying error.
func (e *Error) Cause() error {
	return e.Err
}

type Type string

const (
	// The daemon could not be reached, or the connection broke
	// while we were talking to it.
	Connection Type = "connection"
	// The daemon sent something that is not a well-formed reply.
	Protocol Type = "protocol"
	// The daemon understood the request and reported an error for
	// it. The message is the daemon's own.
	Server Type = "server"
	// The daemon refused the request, even after we authenticated.
	Unauthorized Type = "unauthorized"
	// The request could not be built from what was supplied.
	User Type = "user"
)

func is(err error, t Type) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Type == t
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return false
		}
		err = cause.Cause()
	}
	return false
}

func IsConnection(err error) bool {
	return is(err, Connection)
}

func IsProtocol(err error) bool {
	return is(err, Protocol)
}

func IsServer(err error) bool {
	return is(err, Server)
}

func IsUnauthorized(err error) bool {
	return is(err, Unauthorized)
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var errMsg string
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{
		Type: string(e.Type),
		Help: e.Help,
		Err:  errMsg,
	}
	return json.Marshal(jsonable)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{}
	if err := json.Unmarshal(data, &jsonable); err != nil {
		return err
	}
	e.Type = Type(jsonable.Type)
	e.Help = jsonable.Help
	if jsonable.Err != "" {
		e.Err = pkgerrors.New(jsonable.Err)
	}
	return nil
}

func ConnectionError(err error) *Error {
	return &Error{
		Type: Connection,
		Err:  err,
		Help: `Cannot talk to the BOINC client

To service this request, we need to ask the BOINC client (the daemon
running on the host) for some information, but the connection to it
could not be made or was lost.

This may be because it's not running at all, is not accepting remote
GUI RPC connections, or has been firewalled. If you are sure it is
running, check that the host is listed in its remote_hosts.cfg (or
that --allow_remote_gui_rpc is set) and try again.

    ` + err.Error() + `
`,
	}
}

func ProtocolError(err error) *Error {
	return &Error{
		Type: Protocol,
		Err:  err,
		Help: `Unexpected reply from the BOINC client

The BOINC client replied, but not with something we understand:

    ` + err.Error() + `

This may be a BOINC client version we don't know how to talk to. If
the reply was cut short, the connection has been dropped and will be
reopened for the next request.
`,
	}
}

// ServerError carries the message the daemon sent back in an
// <error> reply, verbatim.
func ServerError(message string) *Error {
	return &Error{
		Type: Server,
		Err:  pkgerrors.New(message),
		Help: `Error from the BOINC client

The BOINC client reported this error:

    ` + message + `

which indicates that it is running, but cannot complete the request.
`,
	}
}

func UnauthorizedError(method string) *Error {
	return &Error{
		Type: Unauthorized,
		Err:  pkgerrors.New(method + ": unauthorized"),
		Help: `The BOINC client refused the request

The request needs authorization, and the BOINC client did not accept
the password we supplied (or none was supplied). The password is in
gui_rpc_auth.cfg in the BOINC data directory.
`,
	}
}
