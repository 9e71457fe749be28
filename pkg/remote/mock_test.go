package remote

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"

	"github.com/boinc-go/guirpc/pkg/api"
	"github.com/boinc-go/guirpc/pkg/client"
	"github.com/boinc-go/guirpc/pkg/guirpctest"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

// Just test that the mock does its job.
func TestMock(t *testing.T) {
	ClientTestBattery(t, func(mock api.Client) api.Client { return mock })
}

func TestErrorLogging(t *testing.T) {
	var buf bytes.Buffer
	ClientTestBattery(t, func(mock api.Client) api.Client {
		return NewErrorLoggingClient(mock, log.NewLogfmtLogger(&buf))
	})
	out := buf.String()
	for _, want := range []string{
		`method=GetResults active_only=true err="get results failure"`,
		`method=GetMessages seqno=3 err="get messages failure"`,
		`method=ResumeResult`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "GetHostInfo") {
		t.Errorf("expected only failures to be logged, got:\n%s", out)
	}
}

func TestInstrument(t *testing.T) {
	ClientTestBattery(t, func(mock api.Client) api.Client { return Instrument(mock) })
}

// The real client, talking to a fake daemon that answers from the mock.
func TestClientOverGUIRPC(t *testing.T) {
	ClientTestBattery(t, func(mock api.Client) api.Client {
		srv := guirpctest.NewServer("secret")
		serve(srv, mock.(*MockClient))
		s := srv.Session("secret")
		t.Cleanup(func() {
			s.Close()
			srv.Close()
		})
		return client.New(s)
	})
}

func serve(srv *guirpctest.Server, mock *MockClient) {
	list := func(tag rpc.Tag, answer func() ([]rpc.Value, error)) {
		srv.Handle(tag, func(*rpc.Element, bool) string {
			vs, err := answer()
			if err != nil {
				return encodeError(err)
			}
			var b strings.Builder
			b.WriteString("<list>")
			for _, v := range vs {
				b.WriteString(encode("item", v))
			}
			b.WriteString("</list>")
			return b.String()
		})
	}
	list(rpc.GetResults, func() ([]rpc.Value, error) { return mock.GetResultsAnswer, mock.GetResultsError })
	list(rpc.GetMessages, func() ([]rpc.Value, error) { return mock.GetMessagesAnswer, mock.GetMessagesError })

	srv.Handle(rpc.GetMessageCount, func(*rpc.Element, bool) string {
		if mock.GetMessageCountError != nil {
			return encodeError(mock.GetMessageCountError)
		}
		return fmt.Sprintf("<seqno>%d</seqno>", mock.GetMessageCountAnswer)
	})
	srv.Handle(rpc.ExchangeVersions, func(*rpc.Element, bool) string {
		v := mock.ExchangeVersionsAnswer
		return fmt.Sprintf("<server_version><major>%d</major><minor>%d</minor><release>%d</release></server_version>", v.Major(), v.Minor(), v.Patch())
	})
	srv.Handle(rpc.GetHostInfo, func(*rpc.Element, bool) string {
		return encode("host_info", rpc.RecordOf(mock.GetHostInfoAnswer))
	})

	for _, command := range []rpc.Tag{rpc.AbortResult, rpc.SuspendResult, rpc.ResumeResult} {
		command := command
		srv.Handle(command, guirpctest.RequireAuth(func(req *rpc.Element, _ bool) string {
			if err := mock.control(command, req.ChildText(rpc.ProjectURL), req.ChildText(rpc.Name)); err != nil {
				return encodeError(err)
			}
			return "<success/>"
		}))
	}
}

func encodeError(err error) string {
	return encode(rpc.Error, rpc.String(err.Error()))
}

func encode(tag rpc.Tag, v rpc.Value) string {
	switch v.Kind() {
	case rpc.StringValue:
		s, _ := v.Str()
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(s))
		return fmt.Sprintf("<%s>%s</%s>", tag, b.String(), tag)
	case rpc.RecordValue:
		r, _ := v.Record()
		keys := make([]string, 0, len(r))
		for k := range r {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			b.WriteString(encode(rpc.Tag(k), r[rpc.Tag(k)]))
		}
		return fmt.Sprintf("<%s>%s</%s>", tag, b.String(), tag)
	}
	return fmt.Sprintf("<%s/>", tag)
}
