// Package client implements the GUI RPC operations on top of a
// session: it builds each request, sends it, and turns the reply
// into values.
package client

import (
	"context"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/boinc-go/guirpc/pkg/api"
	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

// Version is what we tell the daemon we are in exchange_versions.
var Version = semver.MustParse("7.16.0")

// Dispatcher sends one request and interprets its reply.
// *session.Session is the usual one.
type Dispatcher interface {
	Send(ctx context.Context, req *rpc.Request) (rpc.Outcome, error)
	SendAuthorized(ctx context.Context, req *rpc.Request) (rpc.Outcome, error)
}

var _ api.Client = &Client{}

type Client struct {
	d Dispatcher
}

func New(d Dispatcher) *Client {
	return &Client{d: d}
}

func (c *Client) GetResults(ctx context.Context, activeOnly bool) ([]rpc.Value, error) {
	req := rpc.NewRequest(rpc.GetResults)
	if activeOnly {
		req = req.With(rpc.Flag(rpc.ActiveOnly))
	}
	return c.list(ctx, req)
}

func (c *Client) GetOldResults(ctx context.Context) ([]rpc.Value, error) {
	return c.list(ctx, rpc.NewRequest(rpc.GetOldResults))
}

func (c *Client) GetProjectStatus(ctx context.Context) ([]rpc.Value, error) {
	return c.list(ctx, rpc.NewRequest(rpc.GetProjectStatus))
}

func (c *Client) GetMessageCount(ctx context.Context) (int, error) {
	reply, err := c.read(ctx, rpc.NewRequest(rpc.GetMessageCount))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(reply.Text))
	if err != nil {
		return 0, rpcerr.ProtocolError(errors.Wrapf(err, "parsing <%s> reply", rpc.GetMessageCount))
	}
	return n, nil
}

func (c *Client) GetMessages(ctx context.Context, seqno int, translatable bool) ([]rpc.Value, error) {
	req := rpc.NewRequest(rpc.GetMessages, rpc.Text(rpc.Seqno, strconv.Itoa(seqno)))
	if translatable {
		req = req.With(rpc.Flag(rpc.Translatable))
	}
	return c.list(ctx, req)
}

// GetNoticesPublic asks for notices from seqno on. The daemon returns
// those after the number it's given, hence the one subtracted here.
func (c *Client) GetNoticesPublic(ctx context.Context, seqno *int) ([]rpc.Value, error) {
	var s string
	if seqno != nil {
		s = strconv.Itoa(*seqno - 1)
	}
	return c.list(ctx, rpc.NewRequest(rpc.GetNoticesPublic, rpc.Text(rpc.Seqno, s)))
}

func (c *Client) ExchangeVersions(ctx context.Context) (*semver.Version, error) {
	req := rpc.NewRequest(rpc.ExchangeVersions,
		rpc.Text(rpc.Major, strconv.FormatUint(Version.Major(), 10)),
		rpc.Text(rpc.Minor, strconv.FormatUint(Version.Minor(), 10)),
		rpc.Text(rpc.Release, strconv.FormatUint(Version.Patch(), 10)),
	)
	reply, err := c.read(ctx, req)
	if err != nil {
		return nil, err
	}
	if reply.Tag != rpc.ServerVersion {
		return nil, rpcerr.ProtocolError(errors.Errorf("expected <%s> in reply to <%s>, got <%s>", rpc.ServerVersion, rpc.ExchangeVersions, reply.Tag))
	}
	v, err := semver.NewVersion(strings.Join([]string{
		reply.ChildText(rpc.Major),
		reply.ChildText(rpc.Minor),
		reply.ChildText(rpc.Release),
	}, "."))
	if err != nil {
		return nil, rpcerr.ProtocolError(errors.Wrapf(err, "parsing <%s>", rpc.ServerVersion))
	}
	return v, nil
}

func (c *Client) GetHostInfo(ctx context.Context) (rpc.Record, error) {
	reply, err := c.read(ctx, rpc.NewRequest(rpc.GetHostInfo))
	if err != nil {
		return nil, err
	}
	r, ok := rpc.Normalize(reply).Record()
	if !ok {
		return nil, rpcerr.ProtocolError(errors.Errorf("<%s> reply has no fields", rpc.GetHostInfo))
	}
	return r, nil
}

func (c *Client) AbortResult(ctx context.Context, projectURL, name string) error {
	return c.control(ctx, rpc.AbortResult, projectURL, name)
}

func (c *Client) SuspendResult(ctx context.Context, projectURL, name string) error {
	return c.control(ctx, rpc.SuspendResult, projectURL, name)
}

func (c *Client) ResumeResult(ctx context.Context, projectURL, name string) error {
	return c.control(ctx, rpc.ResumeResult, projectURL, name)
}

func (c *Client) list(ctx context.Context, req *rpc.Request) ([]rpc.Value, error) {
	reply, err := c.read(ctx, req)
	if err != nil {
		return nil, err
	}
	return rpc.NormalizeList(reply), nil
}

// read sends a status query, which must be answered with data.
func (c *Client) read(ctx context.Context, req *rpc.Request) (*rpc.Element, error) {
	outcome, err := c.d.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	switch outcome.Kind {
	case rpc.OutcomeData:
		return outcome.Reply, nil
	case rpc.OutcomeUnauthorized:
		return nil, rpcerr.UnauthorizedError(req.Tag().String())
	}
	return nil, rpcerr.ProtocolError(errors.Errorf("expected data in reply to <%s>, got %s", req.Tag(), outcome))
}

// control sends a command for one task, which must be acknowledged.
func (c *Client) control(ctx context.Context, command rpc.Tag, projectURL, name string) error {
	if projectURL == "" || name == "" {
		return &rpcerr.Error{
			Type: rpcerr.User,
			Err:  errors.Errorf("<%s> needs a project URL and a task name", command),
			Help: `A task is named by the URL of its project together with its own
name, as listed by "boincctl tasks". Both must be given.
`,
		}
	}
	req := rpc.NewRequest(command, rpc.Text(rpc.ProjectURL, projectURL), rpc.Text(rpc.Name, name))
	outcome, err := c.d.SendAuthorized(ctx, req)
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case rpc.OutcomeAcknowledged:
		return nil
	case rpc.OutcomeUnauthorized:
		return rpcerr.UnauthorizedError(command.String())
	}
	return rpcerr.ProtocolError(errors.Errorf("expected <%s> in reply to <%s>, got %s", rpc.Success, command, outcome))
}
