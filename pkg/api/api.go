package api

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/boinc-go/guirpc/pkg/rpc"
)

// Reader covers the status queries. None of them need authorization.
type Reader interface {
	// GetResults lists the tasks the client holds. With activeOnly,
	// only those that are currently running.
	GetResults(ctx context.Context, activeOnly bool) ([]rpc.Value, error)
	// GetOldResults lists recently reported tasks.
	GetOldResults(ctx context.Context) ([]rpc.Value, error)
	GetProjectStatus(ctx context.Context) ([]rpc.Value, error)
	// GetMessageCount returns the sequence number of the newest
	// message in the client's log.
	GetMessageCount(ctx context.Context) (int, error)
	// GetMessages returns the messages after seqno.
	GetMessages(ctx context.Context, seqno int, translatable bool) ([]rpc.Value, error)
	// GetNoticesPublic returns the public notices from seqno on, or
	// all of them when seqno is nil.
	GetNoticesPublic(ctx context.Context, seqno *int) ([]rpc.Value, error)
	ExchangeVersions(ctx context.Context) (*semver.Version, error)
	GetHostInfo(ctx context.Context) (rpc.Record, error)
}

// Controller covers the task control commands. These need the
// client's GUI RPC password.
type Controller interface {
	AbortResult(ctx context.Context, projectURL, name string) error
	SuspendResult(ctx context.Context, projectURL, name string) error
	ResumeResult(ctx context.Context, projectURL, name string) error
}

// Client is everything a GUI RPC client can be asked.
type Client interface {
	Reader
	Controller
}
