package guirpctest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boinc-go/guirpc/pkg/rpc"
	"github.com/boinc-go/guirpc/pkg/session"
)

func TestHandshake(t *testing.T) {
	srv := NewServer("secret")
	defer srv.Close()
	ctx := context.Background()

	conn, err := srv.Dial(ctx, "localhost")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.Auth1)))
	nonce, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, rpc.Nonce, nonce.Tag)

	require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.Auth2, rpc.Text(rpc.NonceHash, session.Digest(nonce.Text, "wrong")))))
	reply, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, rpc.Unauthorized, reply.Tag)

	// a nonce is good for one answer only
	require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.Auth2, rpc.Text(rpc.NonceHash, session.Digest(nonce.Text, "secret")))))
	reply, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, rpc.Unauthorized, reply.Tag)

	require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.Auth1)))
	nonce, err = conn.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.Auth2, rpc.Text(rpc.NonceHash, session.Digest(nonce.Text, "secret")))))
	reply, err = conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, rpc.Authorized, reply.Tag)

	assert.Equal(t, []rpc.Tag{rpc.Auth1, rpc.Auth2, rpc.Auth2, rpc.Auth1, rpc.Auth2}, srv.Tags())
}

func TestQueueBeforeHandler(t *testing.T) {
	srv := NewServer("")
	defer srv.Close()
	srv.Handle(rpc.GetMessageCount, Reply("<seqno>2</seqno>"))
	srv.Queue(rpc.GetMessageCount, "<seqno>1</seqno>")
	ctx := context.Background()

	conn, err := srv.Dial(ctx, "localhost")
	require.NoError(t, err)
	defer conn.Close()

	for _, want := range []string{"1", "2", "2"} {
		require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.GetMessageCount)))
		reply, err := conn.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, reply.Text)
	}
	assert.Equal(t, 3, srv.Count(rpc.GetMessageCount))
	assert.Equal(t, 1, srv.Dials())
}

func TestUnhandled(t *testing.T) {
	srv := NewServer("")
	defer srv.Close()
	ctx := context.Background()

	conn, err := srv.Dial(ctx, "localhost")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Send(ctx, rpc.NewRequest(rpc.GetHostInfo)))
	reply, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, rpc.Error, reply.Tag)
	assert.Contains(t, reply.Text, "get_host_info")
}
