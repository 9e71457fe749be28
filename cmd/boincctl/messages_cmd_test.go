package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/boinc-go/guirpc/pkg/client"
	"github.com/boinc-go/guirpc/pkg/guirpctest"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

func msgs(seqnos ...int) string {
	var b strings.Builder
	b.WriteString("<msgs>")
	for _, n := range seqnos {
		fmt.Fprintf(&b, "<msg><project>Einstein@Home</project><pri>1</pri><seqno>%d</seqno><body>\nmessage %d\n</body><time>1574430553</time></msg>", n, n)
	}
	b.WriteString("</msgs>")
	return b.String()
}

func TestMessages(t *testing.T) {
	srv := guirpctest.NewServer("")
	srv.Handle(rpc.GetMessages, guirpctest.Reply(msgs(4, 5)))
	opts := mockRoot(t, srv)

	out, err := execute(opts, "messages", "--seqno", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "4"))
	assert.True(t, strings.HasSuffix(lines[1], "message 4"))
	assert.Equal(t, "3", srv.Last(rpc.GetMessages).ChildText(rpc.Seqno))
}

func TestFollowMessages(t *testing.T) {
	srv := guirpctest.NewServer("")
	srv.Queue(rpc.GetMessages, msgs(1, 2), msgs())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var once sync.Once
	srv.Handle(rpc.GetMessages, func(*rpc.Element, bool) string {
		once.Do(cancel)
		return msgs(3)
	})

	root := mockRoot(t, srv)
	root.output = "tab"
	root.API = client.New(srv.Session(""))
	opts := &messagesOpts{rootOpts: root}

	var out bytes.Buffer
	require.NoError(t, opts.followMessages(ctx, &out, rate.NewLimiter(rate.Inf, 1)))

	assert.Equal(t, 1, strings.Count(out.String(), "SEQNO"))
	assert.Contains(t, out.String(), "message 1")
	assert.Contains(t, out.String(), "message 2")

	var seqnos []string
	for _, req := range srv.Requests() {
		seqnos = append(seqnos, req.ChildText(rpc.Seqno))
	}
	// picks up after the newest message seen
	require.Len(t, seqnos, 3)
	assert.Equal(t, []string{"0", "2", "2"}, seqnos)
}

func TestMessageCount(t *testing.T) {
	srv := guirpctest.NewServer("")
	srv.Handle(rpc.GetMessageCount, guirpctest.Reply("<seqno>42</seqno>"))
	opts := mockRoot(t, srv)

	out, err := execute(opts, "message-count")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)

	out, err = execute(opts, "-o", "json", "message-count")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestNotices(t *testing.T) {
	srv := guirpctest.NewServer("")
	srv.Handle(rpc.GetNoticesPublic, guirpctest.Reply(`<notices><notice><seqno>5</seqno><title>Server maintenance</title><category>server</category></notice></notices>`))
	opts := mockRoot(t, srv)

	out, err := execute(opts, "notices", "--seqno", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Server maintenance")
	assert.Equal(t, "4", srv.Last(rpc.GetNoticesPublic).ChildText(rpc.Seqno))

	_, err = execute(opts, "notices")
	require.NoError(t, err)
	s := srv.Last(rpc.GetNoticesPublic).Child(rpc.Seqno)
	require.NotNil(t, s)
	assert.False(t, s.HasText())
}
