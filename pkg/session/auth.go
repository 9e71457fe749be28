package session

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"github.com/pkg/errors"

	rpcerr "github.com/boinc-go/guirpc/pkg/errors"
	"github.com/boinc-go/guirpc/pkg/rpc"
	"github.com/boinc-go/guirpc/pkg/transport"
)

// Digest is the handshake's answer to a nonce: the hex MD5 of the
// nonce followed by the password. The algorithm and the order are
// what the daemon checks against.
func Digest(nonce, password string) string {
	sum := md5.Sum([]byte(nonce + password))
	return hex.EncodeToString(sum[:])
}

// authenticate runs the two-message handshake on conn: ask for a
// nonce, then answer it. It reports whether the daemon accepted the
// answer. It keeps no state between calls.
func authenticate(ctx context.Context, conn transport.Conn, password string) (bool, error) {
	if err := conn.Send(ctx, rpc.NewRequest(rpc.Auth1)); err != nil {
		return false, err
	}
	challenge, err := conn.Receive(ctx)
	if err != nil {
		return false, err
	}
	if challenge.Tag != rpc.Nonce {
		return false, rpcerr.ProtocolError(errors.Errorf("expected <%s> in reply to <%s>, got <%s>", rpc.Nonce, rpc.Auth1, challenge.Tag))
	}

	auth2 := rpc.NewRequest(rpc.Auth2, rpc.Text(rpc.NonceHash, Digest(challenge.Text, password)))
	if err := conn.Send(ctx, auth2); err != nil {
		return false, err
	}
	reply, err := conn.Receive(ctx)
	if err != nil {
		return false, err
	}
	return reply.Tag == rpc.Authorized, nil
}
