package remote

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/boinc-go/guirpc/pkg/api"
	"github.com/boinc-go/guirpc/pkg/rpc"
)

type MockClient struct {
	GetResultsAnswer []rpc.Value
	GetResultsError  error

	GetOldResultsAnswer []rpc.Value
	GetOldResultsError  error

	GetProjectStatusAnswer []rpc.Value
	GetProjectStatusError  error

	GetMessageCountAnswer int
	GetMessageCountError  error

	GetMessagesAnswer []rpc.Value
	GetMessagesError  error

	GetNoticesPublicAnswer []rpc.Value
	GetNoticesPublicError  error

	ExchangeVersionsAnswer *semver.Version
	ExchangeVersionsError  error

	GetHostInfoAnswer rpc.Record
	GetHostInfoError  error

	// ControlArgTest, if set, sees every control command first.
	ControlArgTest func(command rpc.Tag, projectURL, name string) error
	ControlError   error
}

func (p *MockClient) GetResults(context.Context, bool) ([]rpc.Value, error) {
	return p.GetResultsAnswer, p.GetResultsError
}

func (p *MockClient) GetOldResults(context.Context) ([]rpc.Value, error) {
	return p.GetOldResultsAnswer, p.GetOldResultsError
}

func (p *MockClient) GetProjectStatus(context.Context) ([]rpc.Value, error) {
	return p.GetProjectStatusAnswer, p.GetProjectStatusError
}

func (p *MockClient) GetMessageCount(context.Context) (int, error) {
	return p.GetMessageCountAnswer, p.GetMessageCountError
}

func (p *MockClient) GetMessages(context.Context, int, bool) ([]rpc.Value, error) {
	return p.GetMessagesAnswer, p.GetMessagesError
}

func (p *MockClient) GetNoticesPublic(context.Context, *int) ([]rpc.Value, error) {
	return p.GetNoticesPublicAnswer, p.GetNoticesPublicError
}

func (p *MockClient) ExchangeVersions(context.Context) (*semver.Version, error) {
	return p.ExchangeVersionsAnswer, p.ExchangeVersionsError
}

func (p *MockClient) GetHostInfo(context.Context) (rpc.Record, error) {
	return p.GetHostInfoAnswer, p.GetHostInfoError
}

func (p *MockClient) AbortResult(ctx context.Context, projectURL, name string) error {
	return p.control(rpc.AbortResult, projectURL, name)
}

func (p *MockClient) SuspendResult(ctx context.Context, projectURL, name string) error {
	return p.control(rpc.SuspendResult, projectURL, name)
}

func (p *MockClient) ResumeResult(ctx context.Context, projectURL, name string) error {
	return p.control(rpc.ResumeResult, projectURL, name)
}

func (p *MockClient) control(command rpc.Tag, projectURL, name string) error {
	if p.ControlArgTest != nil {
		if err := p.ControlArgTest(command, projectURL, name); err != nil {
			return err
		}
	}
	return p.ControlError
}

var _ api.Client = &MockClient{}

// -- Battery of tests for an api.Client implementation. Since these
// essentially wrap the client in various decorators, we expect
// arguments and answers to be preserved.

func ClientTestBattery(t *testing.T, wrap func(mock api.Client) api.Client) {
	// set up
	projectURL := "https://einsteinathome.org/"
	taskName := "h1_0123.4_O2MD1"

	resultsAnswer := []rpc.Value{
		rpc.RecordOf(rpc.Record{
			rpc.Name:       rpc.String(taskName),
			rpc.ProjectURL: rpc.String(projectURL),
			"active_task": rpc.RecordOf(rpc.Record{
				"active_task_state": rpc.String("1"),
			}),
		}),
		rpc.RecordOf(rpc.Record{
			rpc.Name:            rpc.String("wu_987_1"),
			"suspended_via_gui": rpc.True(),
		}),
	}

	messagesAnswer := []rpc.Value{
		rpc.RecordOf(rpc.Record{rpc.Seqno: rpc.String("4"), "body": rpc.String("Starting BOINC client")}),
	}

	var controlled []rpc.Tag
	checkControl := func(command rpc.Tag, url, name string) error {
		if url != projectURL || name != taskName {
			return errors.New("expected != actual")
		}
		controlled = append(controlled, command)
		return nil
	}

	mock := &MockClient{
		GetResultsAnswer:       resultsAnswer,
		GetMessageCountAnswer:  42,
		GetMessagesAnswer:      messagesAnswer,
		ExchangeVersionsAnswer: semver.MustParse("7.16.6"),
		GetHostInfoAnswer:      rpc.Record{"domain_name": rpc.String("cruncher")},
		ControlArgTest:         checkControl,
	}

	ctx := context.Background()

	// OK, here we go
	client := wrap(mock)

	rs, err := client.GetResults(ctx, true)
	if err != nil {
		t.Error(err)
	}
	if !reflect.DeepEqual(rs, mock.GetResultsAnswer) {
		t.Error(fmt.Errorf("expected:\n%#v\ngot:\n%#v", mock.GetResultsAnswer, rs))
	}
	mock.GetResultsError = fmt.Errorf("get results failure")
	if _, err = client.GetResults(ctx, true); err == nil {
		t.Error("expected error from GetResults, got nil")
	}

	n, err := client.GetMessageCount(ctx)
	if err != nil {
		t.Error(err)
	}
	if n != 42 {
		t.Errorf("expected 42, got %d", n)
	}

	msgs, err := client.GetMessages(ctx, 3, false)
	if err != nil {
		t.Error(err)
	}
	if !reflect.DeepEqual(msgs, mock.GetMessagesAnswer) {
		t.Error(fmt.Errorf("expected:\n%#v\ngot:\n%#v", mock.GetMessagesAnswer, msgs))
	}
	mock.GetMessagesError = fmt.Errorf("get messages failure")
	if _, err = client.GetMessages(ctx, 3, false); err == nil {
		t.Error("expected error from GetMessages, got nil")
	}

	v, err := client.ExchangeVersions(ctx)
	if err != nil {
		t.Error(err)
	}
	if v == nil || !v.Equal(mock.ExchangeVersionsAnswer) {
		t.Errorf("expected %s, got %v", mock.ExchangeVersionsAnswer, v)
	}

	info, err := client.GetHostInfo(ctx)
	if err != nil {
		t.Error(err)
	}
	if !reflect.DeepEqual(info, mock.GetHostInfoAnswer) {
		t.Error(fmt.Errorf("expected:\n%#v\ngot:\n%#v", mock.GetHostInfoAnswer, info))
	}

	if err := client.AbortResult(ctx, projectURL, taskName); err != nil {
		t.Error(err)
	}
	if err := client.SuspendResult(ctx, projectURL, taskName); err != nil {
		t.Error(err)
	}
	if err := client.ResumeResult(ctx, projectURL, taskName); err != nil {
		t.Error(err)
	}
	if want := []rpc.Tag{rpc.AbortResult, rpc.SuspendResult, rpc.ResumeResult}; !reflect.DeepEqual(controlled, want) {
		t.Errorf("expected %v, got %v", want, controlled)
	}
	if err := client.AbortResult(ctx, projectURL, "someone-else"); err == nil {
		t.Error("expected error from AbortResult, got nil")
	}
	mock.ControlError = fmt.Errorf("control failure")
	if err := client.ResumeResult(ctx, projectURL, taskName); err == nil {
		t.Error("expected error from ResumeResult, got nil")
	}
}
