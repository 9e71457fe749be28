package transport

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
)

// DialTimeout bounds connection establishment when the context has
// no deadline of its own.
const DialTimeout = 30 * time.Second

// DialTCP connects to the daemon's GUI RPC port. The default port is
// used if host does not name one.
func DialTCP(ctx context.Context, host string) (Conn, error) {
	addr := HostPort(host)
	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, rpcerr.ConnectionError(errors.Wrapf(err, "connecting to %s", addr))
	}
	return NewConn(conn), nil
}
